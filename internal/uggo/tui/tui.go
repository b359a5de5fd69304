package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	runtimesvc "github.com/nguyenkhacvan/uggo-new/internal/uggo/runtime"
	"github.com/nguyenkhacvan/uggo-new/lcu"
	"github.com/nguyenkhacvan/uggo-new/persistence"
)

// Mode enumerates the primary panes.
type Mode int

const (
	ModeStatus Mode = iota
	ModePages
	ModeBackups
)

func (m Mode) String() string {
	switch m {
	case ModePages:
		return "pages"
	case ModeBackups:
		return "backups"
	default:
		return "status"
	}
}

const refreshInterval = 5 * time.Second

// Options configure the Bubble Tea program.
type Options struct {
	InitialMode Mode
}

// Run launches the Bubble Tea UI.
func Run(ctx context.Context, rt *runtimesvc.Runtime, opts Options) error {
	if opts.InitialMode > ModeBackups {
		opts.InitialMode = ModeStatus
	}
	m := newModel(ctx, rt, opts)
	program := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	_, err := program.Run()
	return err
}

type model struct {
	ctx     context.Context
	runtime *runtimesvc.Runtime
	mode    Mode

	width  int
	height int

	spinner  spinner.Model
	viewport viewport.Model
	busy     int
	helpOpen bool
	note     string
	err      error

	snapshot runtimesvc.StatusSnapshot
	pages    []lcu.RunePage
	backups  []persistence.PageBackup
	cursor   int
}

func newModel(ctx context.Context, rt *runtimesvc.Runtime, opts Options) model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = busyStyle
	m := model{
		ctx:      ctx,
		runtime:  rt,
		mode:     opts.InitialMode,
		spinner:  sp,
		viewport: viewport.New(76, 16),
		busy:     3,
	}
	m.refreshViewport()
	return m
}

func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		refreshStatusCmd(m.ctx, m.runtime),
		loadPagesCmd(m.ctx, m.runtime),
		loadBackupsCmd(m.ctx, m.runtime),
		tickerCmd(),
	)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = max(10, msg.Width-4)
		m.viewport.Height = max(3, msg.Height-8)
		m.refreshViewport()
		return m, nil
	case tea.KeyMsg:
		return m, m.handleKey(msg)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case statusMsg:
		m.done()
		m.snapshot = msg.snapshot
		m.refreshViewport()
		return m, nil
	case pagesMsg:
		m.done()
		if msg.err != nil {
			m.pages = nil
			if !errors.Is(msg.err, runtimesvc.ErrNoSession) {
				m.err = msg.err
			}
		} else {
			m.pages = msg.pages
		}
		m.clampCursor()
		m.refreshViewport()
		return m, nil
	case backupsMsg:
		m.done()
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.backups = msg.backups
		}
		m.clampCursor()
		m.refreshViewport()
		return m, nil
	case actionMsg:
		m.done()
		m.err = msg.err
		if msg.err == nil {
			m.note = msg.note
		}
		m.busy += 3
		return m, tea.Batch(
			refreshStatusCmd(m.ctx, m.runtime),
			loadPagesCmd(m.ctx, m.runtime),
			loadBackupsCmd(m.ctx, m.runtime),
		)
	case tickMsg:
		if m.busy > 0 {
			return m, tickerCmd()
		}
		m.busy++
		return m, tea.Batch(refreshStatusCmd(m.ctx, m.runtime), tickerCmd())
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
}

func (m *model) done() {
	if m.busy > 0 {
		m.busy--
	}
}

func (m *model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.Type == tea.KeyCtrlC {
		return tea.Quit
	}
	switch msg.String() {
	case "q":
		return tea.Quit
	case "?":
		m.helpOpen = !m.helpOpen
		return nil
	case "tab":
		m.mode = (m.mode + 1) % 3
		m.cursor = 0
		m.refreshViewport()
		return nil
	case "1":
		m.setMode(ModeStatus)
		return nil
	case "2":
		m.setMode(ModePages)
		return nil
	case "3":
		m.setMode(ModeBackups)
		return nil
	case "up", "k":
		m.moveCursor(-1)
		return nil
	case "down", "j":
		m.moveCursor(1)
		return nil
	case "r":
		m.err = nil
		m.busy += 3
		return tea.Batch(
			refreshVersionCmd(m.ctx, m.runtime),
			loadPagesCmd(m.ctx, m.runtime),
			loadBackupsCmd(m.ctx, m.runtime),
		)
	case "c":
		m.err = nil
		m.busy++
		return reconnectCmd(m.ctx, m.runtime)
	case "d":
		if page, ok := m.selectedPage(); ok {
			m.busy++
			return deletePageCmd(m.ctx, m.runtime, page)
		}
	case "e":
		if page, ok := m.selectedPage(); ok {
			m.busy++
			return exportPageCmd(m.ctx, m.runtime, page)
		}
	case "enter":
		if m.mode == ModeBackups && m.cursor < len(m.backups) {
			m.busy++
			return restoreBackupCmd(m.ctx, m.runtime, m.backups[m.cursor])
		}
	case "x":
		if m.mode == ModeBackups && m.cursor < len(m.backups) {
			m.busy++
			return deleteBackupCmd(m.ctx, m.runtime, m.backups[m.cursor])
		}
	}
	return nil
}

func (m *model) setMode(mode Mode) {
	if m.mode != mode {
		m.cursor = 0
	}
	m.mode = mode
	m.refreshViewport()
}

func (m *model) moveCursor(delta int) {
	m.cursor += delta
	m.clampCursor()
	m.refreshViewport()
}

func (m *model) clampCursor() {
	n := m.rows()
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m model) rows() int {
	switch m.mode {
	case ModePages:
		return len(m.pages)
	case ModeBackups:
		return len(m.backups)
	default:
		return 0
	}
}

func (m model) selectedPage() (lcu.RunePage, bool) {
	if m.mode != ModePages || m.cursor >= len(m.pages) {
		return lcu.RunePage{}, false
	}
	return m.pages[m.cursor], true
}

func (m *model) refreshViewport() {
	var body string
	switch m.mode {
	case ModePages:
		body = m.renderPages()
	case ModeBackups:
		body = m.renderBackups()
	default:
		body = m.renderStatus()
	}
	m.viewport.SetContent(body)
}

func (m model) View() string {
	parts := []string{
		m.renderHeader(),
		frameStyle.Render(m.viewport.View()),
	}
	if m.note != "" {
		parts = append(parts, connectedStyle.Render(m.note))
	}
	if m.err != nil {
		parts = append(parts, errorStyle.Render(m.err.Error()))
	}
	if m.helpOpen {
		parts = append(parts, helpStyle.Render("tab/1-3 switch pane · j/k move · r refresh · c reconnect · d delete page · e export page · enter restore backup · x delete backup · q quit"))
	} else {
		parts = append(parts, helpStyle.Render("? help"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m model) renderHeader() string {
	client := errorStyle.Render("● disconnected")
	if m.snapshot.Client.Connected {
		client = connectedStyle.Render("● connected")
		if s := m.snapshot.Client.Summoner; s != nil {
			client += " " + s.RiotID()
		}
	}
	left := fmt.Sprintf("%s | %s | patch %s",
		titleStyle.Render("uggo"),
		client,
		valueOrFallback(m.snapshot.Versions.Version, "?"),
	)
	right := m.mode.String()
	if m.busy > 0 {
		right = m.spinner.View() + " " + right
	}
	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}
	return statusStyle.Render(left + strings.Repeat(" ", padding) + right)
}

func (m model) renderStatus() string {
	snap := m.snapshot
	var b strings.Builder
	b.WriteString(sectionStyle.Render("League client"))
	b.WriteString("\n")
	if snap.Client.Connected {
		b.WriteString(fmt.Sprintf("Process: %s (pid %d)\n", snap.Client.Process, snap.Client.PID))
		b.WriteString(fmt.Sprintf("Endpoint: %s\n", snap.Client.BaseURL))
		if s := snap.Client.Summoner; s != nil {
			b.WriteString(fmt.Sprintf("Summoner: %s (level %d)\n", s.RiotID(), s.SummonerLevel))
		}
		b.WriteString(fmt.Sprintf("Rune pages: %d\n", snap.Client.PageCount))
		if cur := snap.Client.Current; cur != nil {
			b.WriteString(fmt.Sprintf("Current page: %s\n", cur.Name))
		}
	} else {
		b.WriteString(dimStyle.Render("not connected; start the League client and press c"))
		b.WriteString("\n")
	}
	if snap.Client.Error != "" {
		b.WriteString(errorStyle.Render(snap.Client.Error))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render("Data Dragon"))
	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("Endpoint: %s\n", snap.Versions.Endpoint))
	b.WriteString(fmt.Sprintf("Latest patch: %s\n", valueOrFallback(snap.Versions.Version, "unknown")))
	if snap.Versions.Error != "" {
		b.WriteString(errorStyle.Render(snap.Versions.Error))
		b.WriteString("\n")
	}
	if snap.Backups >= 0 {
		b.WriteString(fmt.Sprintf("\nStored backups: %d\n", snap.Backups))
	}
	if !snap.Timestamp.IsZero() {
		b.WriteString(dimStyle.Render("updated " + snap.Timestamp.Format(time.Kitchen)))
	}
	return b.String()
}

func (m model) renderPages() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Rune pages"))
	b.WriteString("\n")
	if len(m.pages) == 0 {
		b.WriteString(dimStyle.Render("no rune pages loaded"))
		return b.String()
	}
	for i, page := range m.pages {
		line := fmt.Sprintf("%-6d %-24s %d/%d  %d perks", page.ID, truncate(page.Name, 24), page.PrimaryStyleID, page.SubStyleID, len(page.SelectedPerkIDs))
		if page.Current {
			line = currentStyle.Render(line + "  (current)")
		}
		if !page.IsDeletable {
			line += dimStyle.Render("  locked")
		}
		b.WriteString(cursorPrefix(i == m.cursor, line))
		b.WriteString("\n")
	}
	return b.String()
}

func (m model) renderBackups() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Page backups"))
	b.WriteString("\n")
	if len(m.backups) == 0 {
		b.WriteString(dimStyle.Render("no backups stored"))
		return b.String()
	}
	for i, backup := range m.backups {
		line := fmt.Sprintf("%s  %-24s %-7s %s", backup.ID[:min(8, len(backup.ID))], truncate(backup.Page.Name, 24), backup.Reason, backup.CreatedAt.Local().Format("2006-01-02 15:04"))
		if backup.Summoner != "" {
			line += dimStyle.Render("  " + backup.Summoner)
		}
		b.WriteString(cursorPrefix(i == m.cursor, line))
		b.WriteString("\n")
	}
	return b.String()
}

func cursorPrefix(selected bool, line string) string {
	if selected {
		return selectedStyle.Render("› ") + line
	}
	return "  " + line
}

// --- Commands ---

type statusMsg struct{ snapshot runtimesvc.StatusSnapshot }
type pagesMsg struct {
	pages []lcu.RunePage
	err   error
}
type backupsMsg struct {
	backups []persistence.PageBackup
	err     error
}
type actionMsg struct {
	note string
	err  error
}
type tickMsg struct{}

func refreshStatusCmd(ctx context.Context, rt *runtimesvc.Runtime) tea.Cmd {
	return func() tea.Msg {
		return statusMsg{snapshot: rt.Status(ctx)}
	}
}

// refreshVersionCmd refetches the patch version before taking a snapshot.
// Periodic ticks use refreshStatusCmd and report the cached version.
func refreshVersionCmd(ctx context.Context, rt *runtimesvc.Runtime) tea.Cmd {
	return func() tea.Msg {
		_, _ = rt.RefreshVersion(ctx)
		return statusMsg{snapshot: rt.Status(ctx)}
	}
}

func loadPagesCmd(ctx context.Context, rt *runtimesvc.Runtime) tea.Cmd {
	return func() tea.Msg {
		pages, err := rt.RunePages(ctx)
		return pagesMsg{pages: pages, err: err}
	}
}

func loadBackupsCmd(ctx context.Context, rt *runtimesvc.Runtime) tea.Cmd {
	return func() tea.Msg {
		backups, err := rt.ListBackups(ctx)
		return backupsMsg{backups: backups, err: err}
	}
}

func reconnectCmd(ctx context.Context, rt *runtimesvc.Runtime) tea.Cmd {
	return func() tea.Msg {
		if err := rt.Connect(ctx); err != nil {
			return actionMsg{err: fmt.Errorf("reconnect: %w", err)}
		}
		info, _ := rt.SessionInfo()
		return actionMsg{note: fmt.Sprintf("connected to %s (pid %d)", info.Process, info.PID)}
	}
}

func deletePageCmd(ctx context.Context, rt *runtimesvc.Runtime, page lcu.RunePage) tea.Cmd {
	return func() tea.Msg {
		if err := rt.DeleteRunePage(ctx, page.ID); err != nil {
			return actionMsg{err: fmt.Errorf("delete %q: %w", page.Name, err)}
		}
		return actionMsg{note: fmt.Sprintf("deleted %q", page.Name)}
	}
}

func exportPageCmd(ctx context.Context, rt *runtimesvc.Runtime, page lcu.RunePage) tea.Cmd {
	return func() tea.Msg {
		backup, err := rt.ExportRunePage(ctx, page.ID)
		if err != nil {
			return actionMsg{err: fmt.Errorf("export %q: %w", page.Name, err)}
		}
		return actionMsg{note: fmt.Sprintf("saved %q as %s", page.Name, backup.ID)}
	}
}

func restoreBackupCmd(ctx context.Context, rt *runtimesvc.Runtime, backup persistence.PageBackup) tea.Cmd {
	return func() tea.Msg {
		page, err := rt.RestoreBackup(ctx, backup.ID)
		if err != nil {
			return actionMsg{err: fmt.Errorf("restore %s: %w", backup.ID, err)}
		}
		return actionMsg{note: fmt.Sprintf("restored %q as page %d", page.Name, page.ID)}
	}
}

func deleteBackupCmd(ctx context.Context, rt *runtimesvc.Runtime, backup persistence.PageBackup) tea.Cmd {
	return func() tea.Msg {
		if err := rt.DeleteBackup(ctx, backup.ID); err != nil {
			return actionMsg{err: fmt.Errorf("delete backup %s: %w", backup.ID, err)}
		}
		return actionMsg{note: fmt.Sprintf("deleted backup of %q", backup.Page.Name)}
	}
}

func tickerCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg { return tickMsg{} })
}

func valueOrFallback(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:1])
	}
	return string(r[:n-1]) + "…"
}
