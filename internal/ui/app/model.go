package app

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	extractiondto "iromo/internal/modules/extraction/dto"
	topicdto "iromo/internal/modules/topic/dto"
	"iromo/internal/ui/theme"
)

// ─── ports ───────────────────────────────────────────────────────────────────
// Each port is the minimal interface this view requires.

type topicPort interface {
	CreateTopic(ctx context.Context, input topicdto.CreateTopicInput) (topicdto.TopicOutput, error)
	RenameTopic(ctx context.Context, input topicdto.RenameTopicInput) error
	DeleteTopics(ctx context.Context, input topicdto.DeleteTopicsInput) error
	Hierarchy(ctx context.Context) ([]topicdto.TopicOutput, error)
	GetBody(ctx context.Context, topicID string) (string, error)
}

type extractionPort interface {
	ListForParent(ctx context.Context, parentTopicID string) ([]extractiondto.ExtractionOutput, error)
}

type historyPort interface {
	Undo(ctx context.Context) (string, error)
	Redo(ctx context.Context) (string, error)
	CanUndo() bool
	CanRedo() bool
}

// ─── async messages ───────────────────────────────────────────────────────────

type treeLoadedMsg struct {
	topics []topicdto.TopicOutput
	err    error
}

type bodyLoadedMsg struct {
	topicID     string
	body        string
	extractions []extractiondto.ExtractionOutput
	err         error
}

type actionDoneMsg struct {
	status string
	err    error
}

// ─── input modes ──────────────────────────────────────────────────────────────

type inputMode int

const (
	modeBrowse inputMode = iota
	modeCreate
	modeRename
)

// ─── model ───────────────────────────────────────────────────────────────────

type row struct {
	topic topicdto.TopicOutput
	depth int
}

// Model is the tree browser. The left pane lists the hierarchy, the right
// pane previews the selected topic's body and extractions. Every mutation
// goes through the usecase layer so it lands on the undo stack.
type Model struct {
	collectionPath string

	topics      topicPort
	extractions extractionPort
	history     historyPort

	rows   []row
	cursor int

	body        string
	bodyTopicID string
	bodyExtract []extractiondto.ExtractionOutput

	mode   inputMode
	input  string
	status string
	width  int
	height int
}

func NewModel(collectionPath string, topics topicPort, extractions extractionPort, history historyPort) Model {
	return Model{
		collectionPath: collectionPath,
		topics:         topics,
		extractions:    extractions,
		history:        history,
		status:         "ready",
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadTreeCmd()
}

// ─── commands ─────────────────────────────────────────────────────────────────

func (m Model) loadTreeCmd() tea.Cmd {
	return func() tea.Msg {
		topics, err := m.topics.Hierarchy(context.Background())
		return treeLoadedMsg{topics: topics, err: err}
	}
}

func (m Model) loadBodyCmd(topicID string) tea.Cmd {
	return func() tea.Msg {
		body, err := m.topics.GetBody(context.Background(), topicID)
		if err != nil {
			return bodyLoadedMsg{topicID: topicID, err: err}
		}
		ext, err := m.extractions.ListForParent(context.Background(), topicID)
		return bodyLoadedMsg{topicID: topicID, body: body, extractions: ext, err: err}
	}
}

// ─── update ───────────────────────────────────────────────────────────────────

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case treeLoadedMsg:
		if msg.err != nil {
			m.status = "load failed: " + msg.err.Error()
			return m, nil
		}
		m.rows = flatten(msg.topics)
		if m.cursor >= len(m.rows) {
			m.cursor = max(0, len(m.rows)-1)
		}
		if len(m.rows) == 0 {
			m.body = ""
			m.bodyTopicID = ""
			m.bodyExtract = nil
			return m, nil
		}
		return m, m.loadBodyCmd(m.rows[m.cursor].topic.ID)

	case bodyLoadedMsg:
		if msg.err != nil {
			m.status = "body load failed: " + msg.err.Error()
			return m, nil
		}
		m.body = msg.body
		m.bodyTopicID = msg.topicID
		m.bodyExtract = msg.extractions
		return m, nil

	case actionDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			return m, nil
		}
		m.status = msg.status
		return m, m.loadTreeCmd()

	case tea.KeyMsg:
		if m.mode != modeBrowse {
			return m.updateInput(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			return m, m.loadBodyCmd(m.rows[m.cursor].topic.ID)
		}

	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
			return m, m.loadBodyCmd(m.rows[m.cursor].topic.ID)
		}

	case "n":
		m.mode = modeCreate
		m.input = ""
		m.status = "new topic body (enter to create, esc to cancel)"

	case "r":
		if len(m.rows) == 0 {
			break
		}
		m.mode = modeRename
		m.input = m.rows[m.cursor].topic.Title
		m.status = "rename (enter to apply, esc to cancel)"

	case "d":
		if len(m.rows) == 0 {
			break
		}
		topicID := m.rows[m.cursor].topic.ID
		return m, func() tea.Msg {
			err := m.topics.DeleteTopics(context.Background(), topicdto.DeleteTopicsInput{TopicIDs: []string{topicID}})
			return actionDoneMsg{status: "deleted", err: err}
		}

	case "u":
		if !m.history.CanUndo() {
			m.status = "nothing to undo"
			break
		}
		return m, func() tea.Msg {
			desc, err := m.history.Undo(context.Background())
			return actionDoneMsg{status: "undid: " + desc, err: err}
		}

	case "ctrl+r":
		if !m.history.CanRedo() {
			m.status = "nothing to redo"
			break
		}
		return m, func() tea.Msg {
			desc, err := m.history.Redo(context.Background())
			return actionDoneMsg{status: "redid: " + desc, err: err}
		}
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.mode = modeBrowse
		m.input = ""
		m.status = "ready"
		return m, nil

	case "enter":
		mode, input := m.mode, m.input
		m.mode = modeBrowse
		m.input = ""
		switch mode {
		case modeCreate:
			var parentID *string
			if len(m.rows) > 0 {
				id := m.rows[m.cursor].topic.ID
				parentID = &id
			}
			return m, func() tea.Msg {
				out, err := m.topics.CreateTopic(context.Background(),
					topicdto.CreateTopicInput{Body: input, ParentID: parentID})
				if err != nil {
					return actionDoneMsg{err: err}
				}
				return actionDoneMsg{status: "created " + out.Title}
			}
		case modeRename:
			topicID := m.rows[m.cursor].topic.ID
			return m, func() tea.Msg {
				err := m.topics.RenameTopic(context.Background(),
					topicdto.RenameTopicInput{TopicID: topicID, NewTitle: input})
				return actionDoneMsg{status: "renamed", err: err}
			}
		}
		return m, nil

	case "backspace":
		if m.input != "" {
			runes := []rune(m.input)
			m.input = string(runes[:len(runes)-1])
		}
		return m, nil

	default:
		switch msg.Type {
		case tea.KeySpace:
			m.input += " "
		case tea.KeyRunes:
			m.input += string(msg.Runes)
		}
		return m, nil
	}
}

// ─── view ─────────────────────────────────────────────────────────────────────

func (m Model) View() string {
	var tree strings.Builder
	tree.WriteString(theme.Title.Render("topics") + "\n\n")
	if len(m.rows) == 0 {
		tree.WriteString(theme.Muted.Render("empty collection, press n to create a topic"))
	}
	for i, r := range m.rows {
		line := strings.Repeat("  ", r.depth) + r.topic.Title
		if i == m.cursor {
			line = theme.Selected.Render("> " + line)
		} else {
			line = "  " + line
		}
		tree.WriteString(line + "\n")
	}

	var detail strings.Builder
	detail.WriteString(theme.Title.Render("body") + "\n\n")
	detail.WriteString(m.body)
	if len(m.bodyExtract) > 0 {
		detail.WriteString("\n\n" + theme.Muted.Render("extractions:") + "\n")
		for _, e := range m.bodyExtract {
			detail.WriteString(theme.Muted.Render(fmt.Sprintf("  [%d, %d] -> %s", e.StartChar, e.EndChar, e.ChildTopicID)) + "\n")
		}
	}

	treeWidth := max(30, m.width/3)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		theme.PaneActive.Width(treeWidth).Render(tree.String()),
		theme.Pane.Width(max(20, m.width-treeWidth-8)).Render(detail.String()),
	)

	status := m.status
	if m.mode != modeBrowse {
		status = "> " + m.input
	}
	footer := theme.Muted.Render(m.collectionPath) + "  " + theme.Hot.Render(status) + "\n" +
		theme.Muted.Render("j/k move  n new  r rename  d delete  u undo  ctrl+r redo  q quit")

	return theme.App.Render(panes + "\n" + footer)
}

// flatten orders the hierarchy depth first so indentation follows parentage.
func flatten(topics []topicdto.TopicOutput) []row {
	children := make(map[string][]topicdto.TopicOutput)
	var roots []topicdto.TopicOutput
	for _, t := range topics {
		if t.ParentID == nil {
			roots = append(roots, t)
		} else {
			children[*t.ParentID] = append(children[*t.ParentID], t)
		}
	}

	var rows []row
	var walk func(t topicdto.TopicOutput, depth int)
	walk = func(t topicdto.TopicOutput, depth int) {
		rows = append(rows, row{topic: t, depth: depth})
		for _, c := range children[t.ID] {
			walk(c, depth+1)
		}
	}
	for _, t := range roots {
		walk(t, 0)
	}
	return rows
}
