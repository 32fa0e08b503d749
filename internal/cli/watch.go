package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matthetz/scrim/internal/httpapi"
)

// =============================================================================
// WatchModel - Live placement view
// =============================================================================

type placementsMsg httpapi.PlacementsResponse

type watchErrMsg struct{ err error }

type tickMsg time.Time

// watchModel is the bubbletea model polling a running engine for placements.
type watchModel struct {
	addr     string
	client   *http.Client
	interval time.Duration
	viewW    float64
	viewH    float64

	res *httpapi.PlacementsResponse
	err error
}

func newWatchModel(addr string, viewW, viewH float64, interval time.Duration) watchModel {
	return watchModel{
		addr:     strings.TrimRight(addr, "/"),
		client:   &http.Client{Timeout: 5 * time.Second},
		interval: interval,
		viewW:    viewW,
		viewH:    viewH,
	}
}

func (m watchModel) Init() tea.Cmd {
	return m.fetch
}

func (m watchModel) fetch() tea.Msg {
	url := fmt.Sprintf("%s/v1/placements?w=%g&h=%g", m.addr, m.viewW, m.viewH)
	resp, err := m.client.Get(url)
	if err != nil {
		return watchErrMsg{err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return watchErrMsg{err: fmt.Errorf("engine returned %s", resp.Status)}
	}
	var pr httpapi.PlacementsResponse
	if err := json.NewDecoder(resp.Body).Decode(&pr); err != nil {
		return watchErrMsg{err: err}
	}
	return placementsMsg(pr)
}

func (m watchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			return m, m.fetch
		}
	case tickMsg:
		return m, m.fetch
	case placementsMsg:
		pr := httpapi.PlacementsResponse(msg)
		m.res = &pr
		m.err = nil
		return m, m.tick()
	case watchErrMsg:
		m.err = msg.err
		return m, m.tick()
	}
	return m, nil
}

func (m watchModel) View() string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render("scrim placements") + " " +
		StyleDim.Render(fmt.Sprintf("%s @ %gx%g", m.addr, m.viewW, m.viewH)) + "\n\n")

	switch {
	case m.err != nil:
		b.WriteString(StyleWarning.Render(fmt.Sprintf("%s %v", iconWarning, m.err)) + "\n")
	case m.res == nil:
		b.WriteString(StyleDim.Render("connecting...") + "\n")
	default:
		vp := m.res.Viewport
		b.WriteString(StyleDim.Render(fmt.Sprintf("mode %s, scale %.3f, overflow x=%v y=%v",
			vp.Mode, vp.Scale, vp.OverflowX, vp.OverflowY)) + "\n\n")

		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(StyleDim).
			Headers("GROUP", "X", "Y", "W", "H", "ANCHOR", "JUSTIFY")
		for _, g := range m.res.Groups {
			t.Row(
				g.Producer+"/"+g.Group,
				fmt.Sprintf("%.1f", g.ScreenBounds.X),
				fmt.Sprintf("%.1f", g.ScreenBounds.Y),
				fmt.Sprintf("%.1f", g.ScreenBounds.W),
				fmt.Sprintf("%.1f", g.ScreenBounds.H),
				g.Anchor,
				g.Justify,
			)
		}
		b.WriteString(t.Render() + "\n")
		b.WriteString(StyleDim.Render(fmt.Sprintf("%d groups, %d items",
			len(m.res.Groups), len(m.res.Items))) + "\n")
	}

	b.WriteString("\n" + StyleDim.Render("r refresh · q quit") + "\n")
	return b.String()
}

// =============================================================================
// Command
// =============================================================================

// watchCommand creates the watch command for live placement viewing.
func (c *CLI) watchCommand() *cobra.Command {
	var (
		addr     string
		viewW    float64
		viewH    float64
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live terminal view of a running engine's placements",
		RunE: func(cmd *cobra.Command, args []string) error {
			m := newWatchModel(addr, viewW, viewH, interval)
			p := tea.NewProgram(m, tea.WithContext(cmd.Context()))
			_, err := p.Run()
			return err
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "http://localhost"+defaultListenAddr, "engine base URL")
	cmd.Flags().Float64VarP(&viewW, "width", "W", 1920, "viewport width in pixels")
	cmd.Flags().Float64VarP(&viewH, "height", "H", 1080, "viewport height in pixels")
	cmd.Flags().DurationVar(&interval, "interval", 500*time.Millisecond, "poll interval")

	return cmd
}
