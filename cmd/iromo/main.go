package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"iromo/internal/bootstrap"
	extractiondto "iromo/internal/modules/extraction/dto"
	topicdto "iromo/internal/modules/topic/dto"
	"iromo/internal/platform/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var collectionPath string
	var debug bool

	root := &cobra.Command{
		Use:           "iromo",
		Short:         "Incremental reading topic store",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&collectionPath, "collection", "", "collection path (defaults to the last opened collection)")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "verbose logging")

	root.AddCommand(newInitCmd(&debug))
	root.AddCommand(newTopicCmd(&collectionPath, &debug))
	root.AddCommand(newTreeCmd(&collectionPath, &debug))
	root.AddCommand(newExtractCmd(&collectionPath, &debug))
	root.AddCommand(newExtractionsCmd(&collectionPath, &debug))
	root.AddCommand(newHistoryCmd(&collectionPath, &debug))
	root.AddCommand(newTUICmd(&collectionPath, &debug))
	return root
}

// resolvePath falls back to the last opened collection recorded in the user
// settings file when --collection is not given.
func resolvePath(collectionPath string) (string, error) {
	if strings.TrimSpace(collectionPath) != "" {
		return collectionPath, nil
	}
	settingsPath, err := config.DefaultSettingsPath()
	if err != nil {
		return "", err
	}
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return "", err
	}
	if settings.LastCollection == "" {
		return "", fmt.Errorf("no collection given and none remembered; pass --collection or run iromo init")
	}
	return settings.LastCollection, nil
}

func loadApp(collectionPath string, createNew, debug bool) (*bootstrap.App, string, error) {
	path, err := resolvePath(collectionPath)
	if err != nil {
		return nil, "", err
	}
	app, err := bootstrap.Open(context.Background(), path, createNew, debug)
	if err != nil {
		return nil, "", err
	}
	rememberCollection(path)
	return app, path, nil
}

func rememberCollection(path string) {
	settingsPath, err := config.DefaultSettingsPath()
	if err != nil {
		return
	}
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return
	}
	settings.LastCollection = path
	_ = config.SaveSettings(settingsPath, settings)
}

func newInitCmd(debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "init <path>",
		Short: "Create a new collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, path, err := loadApp(args[0], true, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "collection ready at %s\n", path)
			return nil
		},
	}
}

func newTopicCmd(collectionPath *string, debug *bool) *cobra.Command {
	topic := &cobra.Command{Use: "topic", Short: "Topic operations"}

	var parentID, title string
	create := &cobra.Command{
		Use:   "create [body]",
		Short: "Create a topic",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := loadApp(*collectionPath, false, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			body := ""
			if len(args) == 1 {
				body = args[0]
			}
			input := topicdto.CreateTopicInput{Body: body, Title: title}
			if strings.TrimSpace(parentID) != "" {
				input.ParentID = &parentID
			}
			out, err := app.Topics.CreateTopic(context.Background(), input)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", out.Title, out.ID)
			return nil
		},
	}
	create.Flags().StringVar(&parentID, "parent", "", "parent topic id (root when omitted)")
	create.Flags().StringVar(&title, "title", "", "title (derived from body when omitted)")
	topic.AddCommand(create)

	rename := &cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a topic",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := loadApp(*collectionPath, false, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			if err := app.Topics.RenameTopic(context.Background(),
				topicdto.RenameTopicInput{TopicID: args[0], NewTitle: args[1]}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "renamed %s\n", args[0])
			return nil
		},
	}
	topic.AddCommand(rename)

	var newParent string
	var newOrder int
	move := &cobra.Command{
		Use:   "move <id>",
		Short: "Move a topic to a new parent and/or position",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := loadApp(*collectionPath, false, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			input := topicdto.MoveTopicInput{TopicID: args[0], NewOrder: newOrder}
			if strings.TrimSpace(newParent) != "" {
				input.NewParentID = &newParent
			}
			if err := app.Topics.MoveTopic(context.Background(), input); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "moved %s\n", args[0])
			return nil
		},
	}
	move.Flags().StringVar(&newParent, "parent", "", "new parent id (root when omitted)")
	move.Flags().IntVar(&newOrder, "order", 0, "position among siblings")
	topic.AddCommand(move)

	del := &cobra.Command{
		Use:   "delete <id>...",
		Short: "Delete topics and their subtrees",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := loadApp(*collectionPath, false, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			if err := app.Topics.DeleteTopics(context.Background(),
				topicdto.DeleteTopicsInput{TopicIDs: args}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "deleted %d topic(s) with descendants\n", len(args))
			return nil
		},
	}
	topic.AddCommand(del)

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a topic and its body",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := loadApp(*collectionPath, false, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			ctx := context.Background()
			out, err := app.Topics.GetTopic(ctx, args[0])
			if err != nil {
				return err
			}
			body, err := app.Topics.GetBody(ctx, args[0])
			if err != nil {
				return err
			}
			parent := "-"
			if out.ParentID != nil {
				parent = *out.ParentID
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "id: %s\ntitle: %s\nparent: %s\ncreated: %s\nupdated: %s\n\n%s\n",
				out.ID, out.Title, parent,
				out.CreatedAt.Format("2006-01-02 15:04:05"),
				out.UpdatedAt.Format("2006-01-02 15:04:05"),
				body)
			return nil
		},
	}
	topic.AddCommand(show)

	save := &cobra.Command{
		Use:   "save <id> <body>",
		Short: "Replace a topic's body",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, _, err := loadApp(*collectionPath, false, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			if err := app.Topics.SaveBody(context.Background(),
				topicdto.SaveBodyInput{TopicID: args[0], Body: args[1]}); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "saved %s\n", args[0])
			return nil
		},
	}
	topic.AddCommand(save)

	return topic
}

func newTreeCmd(collectionPath *string, debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "tree",
		Short: "Print the topic hierarchy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := loadApp(*collectionPath, false, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			topics, err := app.Topics.Hierarchy(context.Background())
			if err != nil {
				return err
			}
			if len(topics) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no topics")
				return nil
			}
			printTree(cmd, topics, nil, 0)
			return nil
		},
	}
}

func printTree(cmd *cobra.Command, topics []topicdto.TopicOutput, parentID *string, depth int) {
	for _, t := range topics {
		switch {
		case parentID == nil && t.ParentID != nil:
			continue
		case parentID != nil && (t.ParentID == nil || *t.ParentID != *parentID):
			continue
		}
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s%s  (%s)\n", strings.Repeat("  ", depth), t.Title, t.ID)
		printTree(cmd, topics, &t.ID, depth+1)
	}
}

func newExtractCmd(collectionPath *string, debug *bool) *cobra.Command {
	var parentID, text string
	var start, end int
	extract := &cobra.Command{
		Use:   "extract --parent <id> --start <n> --end <n>",
		Short: "Extract a span of a topic's body into a child topic",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(parentID) == "" {
				return fmt.Errorf("--parent is required")
			}
			app, _, err := loadApp(*collectionPath, false, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.Extractions.Extract(context.Background(), extractiondto.ExtractInput{
				ParentTopicID: parentID,
				StartChar:     start,
				EndChar:       end,
				Text:          text,
			})
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "extracted %q into topic %s (extraction %s)\n",
				out.ChildTitle, out.ChildTopicID, out.ExtractionID)
			return nil
		},
	}
	extract.Flags().StringVar(&parentID, "parent", "", "parent topic id")
	extract.Flags().IntVar(&start, "start", 0, "start char (inclusive)")
	extract.Flags().IntVar(&end, "end", 0, "end char (inclusive)")
	extract.Flags().StringVar(&text, "text", "", "extracted text (read from the body when omitted)")
	return extract
}

func newExtractionsCmd(collectionPath *string, debug *bool) *cobra.Command {
	var parentID string
	extractions := &cobra.Command{
		Use:   "extractions --parent <id>",
		Short: "List extractions recorded against a topic",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if strings.TrimSpace(parentID) == "" {
				return fmt.Errorf("--parent is required")
			}
			app, _, err := loadApp(*collectionPath, false, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			out, err := app.Extractions.ListForParent(context.Background(), parentID)
			if err != nil {
				return err
			}
			if len(out) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no extractions")
				return nil
			}
			for _, e := range out {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t[%d, %d]\tchild=%s\n", e.ID, e.StartChar, e.EndChar, e.ChildTopicID)
			}
			return nil
		},
	}
	extractions.Flags().StringVar(&parentID, "parent", "", "parent topic id")
	return extractions
}

func newHistoryCmd(collectionPath *string, debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "Show the undo and redo stacks of this session",
		Long: "Undo history lives in memory for the duration of a session; " +
			"one-shot invocations start with empty stacks. Use the tui command " +
			"for a session where undo and redo are useful.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, _, err := loadApp(*collectionPath, false, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			undo := app.History.UndoDescriptions()
			redo := app.History.RedoDescriptions()
			if len(undo) == 0 && len(redo) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "history is empty")
				return nil
			}
			for _, desc := range undo {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "undo: %s\n", desc)
			}
			for _, desc := range redo {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "redo: %s\n", desc)
			}
			return nil
		},
	}
}

func newTUICmd(collectionPath *string, debug *bool) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Browse the collection in a terminal UI",
		RunE: func(_ *cobra.Command, _ []string) error {
			app, path, err := loadApp(*collectionPath, false, *debug)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()
			return bootstrap.RunTUI(app, path)
		},
	}
}
