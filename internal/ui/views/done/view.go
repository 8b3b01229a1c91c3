package done

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	celebrationdto "routinectl/internal/modules/celebration/dto"
	rundto "routinectl/internal/modules/run/dto"
	apperrors "routinectl/internal/platform/errors"
	"routinectl/internal/ui/nav"
	"routinectl/internal/ui/routes"
	"routinectl/internal/ui/theme"
)

type RunPort interface {
	Summary(ctx context.Context, historyID int64) (rundto.Summary, error)
	Discard(ctx context.Context, historyID int64) error
}

type CelebrationPort interface {
	Celebrate(ctx context.Context, input celebrationdto.CelebrateInput) (celebrationdto.CelebrateOutput, error)
}

type LoadedMsg struct {
	HistoryID int64
	Summary   rundto.Summary
	Banners   []celebrationdto.BannerOutput
	Err       error
}

type Model struct {
	runs             RunPort
	celebrate        CelebrationPort
	now              func() time.Time
	celebrateEnabled bool
	historyID        int64
	summary          rundto.Summary
	banners          []celebrationdto.BannerOutput
	loading          bool
	err              string
}

func New(runs RunPort, celebrate CelebrationPort, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	return Model{runs: runs, celebrate: celebrate, now: now}
}

func (m *Model) SetCelebration(enabled bool) { m.celebrateEnabled = enabled }

func (m *Model) Open(historyID int64) tea.Cmd {
	m.historyID = historyID
	m.summary = rundto.Summary{}
	m.banners = nil
	m.err = ""
	m.loading = true
	runs, celebrate, enabled, now := m.runs, m.celebrate, m.celebrateEnabled, m.now
	return func() tea.Msg {
		ctx := context.Background()
		summary, err := runs.Summary(ctx, historyID)
		if err != nil {
			return LoadedMsg{HistoryID: historyID, Err: err}
		}
		msg := LoadedMsg{HistoryID: historyID, Summary: summary}
		if !enabled || celebrate == nil {
			return msg
		}
		out, err := celebrate.Celebrate(ctx, celebrationdto.CelebrateInput{
			HistoryID:      historyID,
			Title:          summary.Title,
			Tasks:          summary.Tasks,
			ElapsedMinutes: elapsedMinutes(summary.StartedAt, now()),
		})
		if err == nil {
			msg.Banners = out.Banners
		}
		return msg
	}
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case LoadedMsg:
		if msg.HistoryID != m.historyID {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = apperrors.MessageOf(msg.Err)
			return m, nil
		}
		m.summary = msg.Summary
		m.banners = msg.Banners
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "esc":
			return m, tea.Batch(m.discardCmd(), nav.Go(routes.Routines))
		case "h":
			return m, tea.Batch(m.discardCmd(), nav.Go(routes.HistoryPath(m.historyID)))
		}
	}
	return m, nil
}

func (m Model) View() string {
	if m.loading {
		return theme.Muted.Render("wrapping up…")
	}
	var sb strings.Builder
	if m.err != "" {
		sb.WriteString(theme.Good.Render("Routine complete.") + "\n" + theme.Muted.Render(m.err) + "\n\n")
	} else {
		sb.WriteString(theme.Good.Render(m.summary.Title+" complete!") + "\n")
		sb.WriteString(theme.Muted.Render(fmt.Sprintf("%d tasks done", len(m.summary.Tasks))) + "\n\n")
		for _, task := range m.summary.Tasks {
			sb.WriteString("  ✓ " + task + "\n")
		}
		sb.WriteString("\n")
	}
	for _, banner := range m.banners {
		sb.WriteString(theme.PaneActive.Render(theme.Hot.Render(strings.Join(banner.Lines, "\n"))) + "\n")
	}
	sb.WriteString(theme.Muted.Render("enter: back to routines  h: view history"))
	return sb.String()
}

func (m Model) discardCmd() tea.Cmd {
	runs, id := m.runs, m.historyID
	return func() tea.Msg {
		if err := runs.Discard(context.Background(), id); err != nil {
			return nav.FlashMsg{Text: "could not clear run data: " + apperrors.MessageOf(err), Failure: true}
		}
		return nil
	}
}

func elapsedMinutes(started *time.Time, now time.Time) *int {
	if started == nil {
		return nil
	}
	minutes := max(int(now.Sub(*started)/time.Minute), 0)
	return &minutes
}
