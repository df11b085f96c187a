package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/K1ngNothing/dungeon-generation/pkg/callbacks"
	"github.com/K1ngNothing/dungeon-generation/pkg/pipeline"
)

// historyRows is the number of iterations the watch view keeps on screen.
const historyRows = 10

var (
	watchHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	watchDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	watchGoodStyle   = lipgloss.NewStyle().Foreground(colorGreen)
	watchBadStyle    = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// WatchModel - live solver progress
// =============================================================================

type progressMsg callbacks.Progress

type doneMsg struct {
	result *pipeline.Result
	err    error
}

// WatchModel is the bubbletea model of `generate --watch`. It shows the most
// recent outer iterations of every solver pass.
type WatchModel struct {
	Title     string
	Tolerance float64
	History   []callbacks.Progress
	Result    *pipeline.Result
	Err       error
	Cancelled bool

	cancel context.CancelFunc
}

// NewWatchModel creates a watch view. cancel is called when the user quits.
func NewWatchModel(title string, tolerance float64, cancel context.CancelFunc) WatchModel {
	return WatchModel{Title: title, Tolerance: tolerance, cancel: cancel}
}

func (m WatchModel) Init() tea.Cmd {
	return nil
}

func (m WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.Cancelled = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
	case progressMsg:
		m.History = append(m.History, callbacks.Progress(msg))
		if len(m.History) > historyRows {
			m.History = m.History[len(m.History)-historyRows:]
		}
	case doneMsg:
		m.Result, m.Err = msg.result, msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m WatchModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(watchDimStyle.Render("q quit"))
	b.WriteString("\n\n")

	if len(m.History) == 0 {
		b.WriteString(watchDimStyle.Render("  waiting for the first iteration..."))
		b.WriteString("\n")
		return b.String()
	}

	rows := make([][]string, len(m.History))
	for i, p := range m.History {
		rows[i] = []string{
			fmt.Sprint(p.Run),
			fmt.Sprint(p.Iteration),
			fmt.Sprintf("%.1f", p.Corridors),
			fmt.Sprintf("%.4f", p.MaxOverlap),
			fmt.Sprintf("%.0f × %.0f", p.Width, p.Height),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Run", "Iter", "Corridors", "Overlap", "Extent").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return watchHeaderStyle
			}
			if col == 3 && row >= 0 && row < len(m.History) {
				if m.History[row].MaxOverlap <= m.Tolerance {
					return watchGoodStyle
				}
				return watchBadStyle
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	return b.String()
}

// watchExecute runs the pipeline behind a WatchModel.
func watchExecute(ctx context.Context, runner *pipeline.Runner, opts pipeline.Options) (*pipeline.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	title := fmt.Sprintf("Placing %d rooms (%s)", opts.Dungeon.TotalRooms(), opts.Dungeon.Kind)
	p := tea.NewProgram(NewWatchModel(title, opts.ConstraintTolerance, cancel), tea.WithContext(ctx))

	opts.Progress = func(pr callbacks.Progress) { p.Send(progressMsg(pr)) }
	go func() {
		result, err := runner.Execute(ctx, opts)
		p.Send(doneMsg{result: result, err: err})
	}()

	final, err := p.Run()
	if err != nil && ctx.Err() == nil {
		return nil, fmt.Errorf("watch view: %w", err)
	}
	m, ok := final.(WatchModel)
	if !ok || m.Cancelled {
		return nil, context.Canceled
	}
	return m.Result, m.Err
}
