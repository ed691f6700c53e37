package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/digraph/pkg/errors"
	"github.com/matzehuels/digraph/pkg/export"
	"github.com/matzehuels/digraph/pkg/geometry"
	"github.com/matzehuels/digraph/pkg/graph"
	"github.com/matzehuels/digraph/pkg/interaction"
	"github.com/matzehuels/digraph/pkg/owner"
	"github.com/matzehuels/digraph/pkg/store"
	"github.com/matzehuels/digraph/pkg/view"
)

// Cursor steps in viewport pixels.
const (
	cursorStep     = 10
	cursorFastStep = 50
	maxTableRows   = 12
)

var (
	editHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	editNormalStyle = lipgloss.NewStyle().Foreground(colorWhite)
	editDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
)

// editCommand creates the edit command, a terminal driver for one view.
func (c *CLI) editCommand() *cobra.Command {
	var key, preview string
	var watch bool

	cmd := &cobra.Command{
		Use:   "edit [document]",
		Short: "Edit a document in the terminal",
		Long: `Edit a document with a keyboard-driven pointer.

The cursor is a pointer in viewport pixels. Edits are saved after every
change, either to the document file or, with --key, to the configured store.

Keys:
  arrows, hjkl    move the cursor (shift for larger steps)
  enter, space    click (select)
  n               shift-click (new node on the canvas)
  g               grab or release (drag a node or pan)
  e               grab or release with shift (drag a new or existing edge)
  x, delete       delete the selection
  + - f           zoom in, zoom out, zoom to fit
  esc             cancel the current drag
  w               write the SVG preview
  q               quit`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && key == "" {
				return errors.New(errors.ErrCodeInvalidInput, "either a document or --key is required")
			}
			ctx := cmd.Context()

			cfg, vc, err := c.viewConfig()
			if err != nil {
				return err
			}

			var s store.Store
			path := ""
			if key == "" {
				path = args[0]
				s, key, err = fileStore(ctx, path)
			} else {
				s, err = c.openStore(ctx, cfg)
			}
			if err != nil {
				return err
			}
			defer s.Close()

			if preview == "" && path != "" {
				preview = outputPath(path, export.FormatSVG)
			}
			return c.runEdit(ctx, s, key, path, preview, watch, vc)
		},
	}

	cmd.Flags().StringVar(&key, "key", "", "edit the document stored under key instead of a file")
	cmd.Flags().StringVar(&preview, "preview", "", "SVG preview path (default: <document>.svg)")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload the document file when it changes on disk")
	return cmd
}

// fileStore opens a file store on the directory of path. The key is the
// file name.
func fileStore(ctx context.Context, path string) (store.Store, string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, "", err
	}
	s, err := store.Open(ctx, "file://"+filepath.ToSlash(filepath.Dir(abs)))
	if err != nil {
		return nil, "", err
	}
	return s, filepath.Base(abs), nil
}

func (c *CLI) runEdit(ctx context.Context, s store.Store, key, path, preview string, watch bool, vc view.Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Nothing logs while the alternate screen is up; saves show in the
	// status line.
	o, err := owner.Load(ctx, s, key, owner.WithCodec(graph.NewCodec(vc.NodeKey)))
	if err != nil {
		return err
	}

	m, err := newEditModel(ctx, o, vc, key, preview)
	if err != nil {
		return err
	}
	defer m.view.Close()

	if watch && path != "" {
		w, err := newDocWatcher(path, graph.NewCodec(vc.NodeKey), log.New(io.Discard))
		if err != nil {
			return err
		}
		go w.Run(ctx)
		m.reloads = w.Docs()
	}

	final, err := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen()).Run()
	if err != nil {
		return err
	}
	if fm, ok := final.(*editModel); ok {
		printSuccess("Edited %s", key)
		printStats(len(fm.owner.Document().Nodes), len(fm.owner.Document().Edges))
		if fm.previewWritten {
			printFile(preview)
		}
	}
	return nil
}

// =============================================================================
// editModel - Keyboard-driven view
// =============================================================================

type tickMsg time.Time

type reloadMsg struct{ doc graph.Document }

// editModel feeds synthetic pointer events to one view. The owner refreshes
// the view from Update, so all view access stays on the bubbletea goroutine.
type editModel struct {
	ctx     context.Context
	view    *view.View
	owner   *owner.Owner
	key     string
	preview string
	reloads <-chan graph.Document

	cursor   geometry.Point
	grabbing bool
	shifted  bool

	dirty          bool
	previewWritten bool
	savedVersion   int
	status         string
	width          int
}

func newEditModel(ctx context.Context, o *owner.Owner, vc view.Config, key, preview string) (*editModel, error) {
	v, err := view.New(vc, o.Callbacks())
	if err != nil {
		return nil, err
	}
	cfg := v.Config()
	m := &editModel{
		ctx:     ctx,
		view:    v,
		owner:   o,
		key:     key,
		preview: preview,
		cursor:  geometry.Point{X: cfg.Width / 2, Y: cfg.Height / 2},
	}
	o.Attach(v)
	o.OnChange(func(graph.Document) { m.dirty = true })
	m.savedVersion = o.Version()
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(view.FrameInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func waitForReload(ch <-chan graph.Document) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		doc, ok := <-ch
		if !ok {
			return nil
		}
		return reloadMsg{doc: doc}
	}
}

func (m *editModel) Init() tea.Cmd {
	return tea.Batch(tick(), waitForReload(m.reloads))
}

func (m *editModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case tickMsg:
		m.view.Tick(time.Time(msg))
		if v := m.owner.Version(); v != m.savedVersion {
			m.savedVersion = v
			m.status = fmt.Sprintf("saved %s (v%d)", m.key, v)
		}
		if m.dirty && m.preview != "" && m.view.Pending() == 0 {
			m.writePreview()
		}
		return m, tick()

	case reloadMsg:
		m.reload(msg.doc)
		return m, waitForReload(m.reloads)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *editModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		m.move(-cursorStep, 0)
	case "right", "l":
		m.move(cursorStep, 0)
	case "up", "k":
		m.move(0, -cursorStep)
	case "down", "j":
		m.move(0, cursorStep)
	case "shift+left", "H":
		m.move(-cursorFastStep, 0)
	case "shift+right", "L":
		m.move(cursorFastStep, 0)
	case "shift+up", "K":
		m.move(0, -cursorFastStep)
	case "shift+down", "J":
		m.move(0, cursorFastStep)
	case "enter", " ":
		m.click(false)
	case "n":
		m.click(true)
	case "g":
		m.grab(false)
	case "e":
		m.grab(true)
	case "x", "delete", "backspace":
		if !m.view.KeyDown("Delete") {
			m.status = "nothing to delete"
		}
	case "esc":
		m.view.KeyDown("Escape")
		m.grabbing = false
	case "+", "=", "-", "f":
		if !m.view.KeyDown(msg.String()) {
			m.status = "zoom limit reached"
		}
	case "w":
		m.writePreview()
	}
	return m, nil
}

func (m *editModel) event() interaction.Event {
	return interaction.Event{Position: m.cursor, Buttons: interaction.ButtonPrimary, Shift: m.shifted}
}

func (m *editModel) move(dx, dy float64) {
	m.cursor = m.cursor.Add(geometry.Point{X: dx, Y: dy})
	m.view.PointerMove(m.event())
}

func (m *editModel) click(shift bool) {
	m.shifted = shift
	m.view.PointerDown(m.event())
	m.view.PointerUp(m.event())
	m.shifted = false
}

func (m *editModel) grab(shift bool) {
	if m.grabbing {
		m.view.PointerUp(m.event())
		m.grabbing, m.shifted = false, false
		return
	}
	m.shifted = shift
	m.grabbing = true
	m.view.PointerDown(m.event())
}

// reload replaces the document with one changed on disk, unless it is the
// document this editor just saved.
func (m *editModel) reload(doc graph.Document) {
	codec := graph.NewCodec(m.view.Config().NodeKey)
	current, err := codec.Marshal(m.owner.Document(), graph.FormatJSON)
	if err != nil {
		return
	}
	incoming, err := codec.Marshal(doc, graph.FormatJSON)
	if err != nil {
		return
	}
	if store.Hash(current) == store.Hash(incoming) {
		return
	}
	if err := m.owner.Replace(m.ctx, doc); err != nil {
		m.status = "reload failed: " + errors.UserMessage(err)
		return
	}
	m.status = "reloaded from disk"
}

func (m *editModel) writePreview() {
	m.dirty = false
	if m.preview == "" {
		return
	}
	f, err := os.Create(m.preview)
	if err != nil {
		m.status = "preview failed: " + err.Error()
		return
	}
	defer f.Close()
	if err := m.view.WriteSVG(f); err != nil {
		m.status = "preview failed: " + err.Error()
		return
	}
	m.previewWritten = true
}

func (m *editModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("digraph") + " " + StyleHighlight.Render(m.key) + "\n\n")
	b.WriteString(m.nodeTable())
	b.WriteString("\n")

	doc := m.owner.Document()
	model := m.view.Transform().Invert(m.cursor)
	line := fmt.Sprintf("%s · cursor %s,%s · model %s,%s · zoom %d%%",
		statsLine(len(doc.Nodes), len(doc.Edges)),
		geometry.FormatNumber(m.cursor.X), geometry.FormatNumber(m.cursor.Y),
		geometry.FormatNumber(model.X), geometry.FormatNumber(model.Y),
		int(m.view.Transform().K*100+0.5))
	if n, ok := m.view.NodeAt(model); ok {
		line += " · over " + n.ID
	}
	if m.grabbing {
		line += " · " + styleSelected.Render("grabbing")
	}
	b.WriteString(editDimStyle.Render(line) + "\n")
	if m.status != "" {
		b.WriteString(styleIconInfo.Render(iconInfo) + " " + m.status + "\n")
	}
	b.WriteString(editDimStyle.Render("arrows move · enter select · n new node · g grab · e edge · x delete · +/-/f zoom · w preview · q quit"))
	return b.String()
}

func (m *editModel) nodeTable() string {
	sel := m.view.Selection()
	nodes := m.view.Index().Nodes()

	rows := make([][]string, 0, maxTableRows)
	for i, n := range nodes {
		if i == maxTableRows {
			break
		}
		marker := " "
		if sel.Node != nil && sel.Node.ID == n.ID {
			marker = "›"
		}
		title := n.Title
		if title == "" {
			title = "-"
		}
		rows = append(rows, []string{marker, n.ID, title, n.Type,
			geometry.FormatNumber(n.X), geometry.FormatNumber(n.Y)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Node", "Title", "Type", "X", "Y").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return editHeaderStyle
			}
			if row < len(rows) && rows[row][0] == "›" {
				return styleSelected
			}
			return editNormalStyle
		})

	out := t.Render()
	if more := len(nodes) - len(rows); more > 0 {
		out += "\n" + editDimStyle.Render(fmt.Sprintf("  … %d more", more))
	}
	if e := sel.Edge; e != nil {
		out += "\n" + StyleDim.Render("selected edge ") + StyleValue.Render(e.Source+" "+iconArrow+" "+e.Target)
	}
	return out + "\n"
}
