// Package tui provides the interactive Bubble Tea dashboard for budgetdash.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/config"
	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/pipeline"
	"github.com/theirongolddev/budgetdash/internal/reconcile"
	"github.com/theirongolddev/budgetdash/internal/source"
	"github.com/theirongolddev/budgetdash/internal/store"
	"github.com/theirongolddev/budgetdash/internal/tui/components"
	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Options configures the dashboard.
type Options struct {
	DataDir     string
	SeedPath    string
	NoStore     bool
	DefaultUnit string
	Filter      pipeline.Filter
	Reconciler  *reconcile.Reconciler
	// SkipSetup suppresses the first-run form even without a config file.
	SkipSetup bool
}

// DataLoadedMsg is sent when the budget model has been loaded.
type DataLoadedMsg struct {
	Result   *pipeline.LoadResult
	Uploads  []store.Upload
	LoadTime time.Duration
	Err      error
}

// ProgressMsg reports upload decoding progress.
type ProgressMsg struct {
	Current int
	Total   int
}

// IngestDoneMsg is sent when uploads from the Uploads tab have been applied.
type IngestDoneMsg struct {
	Result  *pipeline.IngestResult
	Uploads []store.Upload
	Err     error
}

const (
	tabOverview = iota
	tabLedger
	tabSpend
	tabUploads
)

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	budget   model.Budget
	origin   pipeline.Origin
	snapshot store.Snapshot
	uploads  []store.Upload
	loaded   bool
	loadTime time.Duration
	loadErr  error

	// Pre-computed for current filter
	overview pipeline.Overview
	unitIDs  []string

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool
	notice    string

	filter       pipeline.Filter
	unitIdx      int
	ledgerCursor int
	unitPicked   bool

	upload uploadState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *setupValues
	needSetup bool

	// Loading — channel-based progress subscription
	spinner     spinner.Model
	progress    int
	progressMax int
	loadSub     chan tea.Msg
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180
	minContentHeight = 5
	historyLimit     = 50
)

// loadConfigOrDefault loads config, returning defaults on error so the TUI
// can always start.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		return config.DefaultConfig()
	}
	return cfg
}

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:      opts,
		filter:    opts.Filter,
		needSetup: !opts.SkipSetup && !config.Exists(),
		setupVals: &setupValues{},
		upload:    newUploadState(),
		spinner:   sp,
		loadSub:   make(chan tea.Msg, 1),
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts, a.loadSub),
		a.spinner.Tick,
	)
}

func (a *App) recompute() {
	a.overview = pipeline.BuildOverview(a.budget, a.filter)
	a.unitIDs = a.budget.UnitIDs()

	if !a.unitPicked && a.opts.DefaultUnit != "" {
		for i, id := range a.unitIDs {
			if id == a.opts.DefaultUnit {
				a.unitIdx = i
			}
		}
		a.unitPicked = true
	}
	a.unitIdx = clamp(a.unitIdx, 0, len(a.unitIDs)-1)

	_, u, _ := a.selectedUnit()
	a.ledgerCursor = clamp(a.ledgerCursor, 0, len(u.Months)-1)
}

func (a App) selectedUnit() (string, model.UnitBudget, bool) {
	if a.unitIdx < 0 || a.unitIdx >= len(a.unitIDs) {
		return "", model.UnitBudget{}, false
	}
	id := a.unitIDs[a.unitIdx]
	u, ok := a.budget.Unit(id)
	return id, u, ok
}

func (a *App) selectUnit(delta int) {
	if len(a.unitIDs) == 0 {
		return
	}
	a.unitIdx = (a.unitIdx + delta + len(a.unitIDs)) % len(a.unitIDs)
	a.ledgerCursor = 0
}

var groupCycle = []model.Group{"", model.GroupPeople, model.GroupPrograms}

// cycleGroup steps the overview filter through all, people and programs.
// Spend-type narrowing from the command line is dropped on the first step.
func (a *App) cycleGroup() {
	next := 0
	for i, g := range groupCycle {
		if g == a.filter.Group {
			next = (i + 1) % len(groupCycle)
		}
	}
	a.filter = pipeline.Filter{Group: groupCycle[next]}
	a.recompute()
}

func (a *App) moveCursor(delta int) {
	switch a.activeTab {
	case tabLedger:
		_, u, _ := a.selectedUnit()
		a.ledgerCursor = clamp(a.ledgerCursor+delta, 0, len(u.Months)-1)
	case tabSpend:
		a.selectUnit(delta)
	}
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || a.setupForm != nil || a.upload.editing {
			return a, nil
		}
		if msg.Action != tea.MouseActionPress {
			return a, nil
		}
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			a.moveCursor(-1)
		case tea.MouseButtonWheelDown:
			a.moveCursor(1)
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.loaded {
			return a, nil
		}

		// First-run setup wizard intercepts all keys
		if a.setupForm != nil {
			return a.updateSetupForm(msg)
		}
		if a.upload.editing {
			return a.updateUploadInput(msg)
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		switch key {
		case "?":
			a.showHelp = true
		case "q":
			return a, tea.Quit
		case "left", "shift+tab":
			a.activeTab = (a.activeTab + len(components.Tabs) - 1) % len(components.Tabs)
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		case "g":
			a.cycleGroup()
		case "[":
			a.selectUnit(-1)
		case "]":
			a.selectUnit(1)
		case "j", "down":
			a.moveCursor(1)
		case "k", "up":
			a.moveCursor(-1)
		case "r":
			if a.upload.ingesting {
				return a, nil
			}
			a.loaded = false
			a.notice = ""
			return a, tea.Batch(loadDataCmd(a.opts, a.loadSub), a.spinner.Tick)
		case "i", "enter":
			if a.activeTab == tabUploads && !a.upload.ingesting {
				return a, a.upload.focus()
			}
		case "f":
			if a.activeTab == tabUploads {
				a.upload.force = !a.upload.force
			}
		default:
			if len(msg.Runes) == 1 {
				if idx := components.TabIdxByKey(msg.Runes[0]); idx >= 0 {
					a.activeTab = idx
				}
			}
		}
		return a, nil

	case spinner.TickMsg:
		if !a.loaded || a.upload.ingesting {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil

	case ProgressMsg:
		a.progress = msg.Current
		a.progressMax = msg.Total
		return a, waitForLoadMsg(a.loadSub)

	case DataLoadedMsg:
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.progress, a.progressMax = 0, 0
		a.loadErr = msg.Err
		if msg.Err != nil {
			a.notice = "load failed: " + msg.Err.Error()
			return a, nil
		}
		a.budget = msg.Result.Budget
		a.origin = msg.Result.Origin
		a.snapshot = msg.Result.Snapshot
		a.uploads = msg.Uploads
		a.recompute()

		if a.needSetup && a.setupForm == nil {
			a.setupForm = newSetupForm(a.unitIDs, a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case IngestDoneMsg:
		a.upload.ingesting = false
		a.progress, a.progressMax = 0, 0
		a.upload.err = msg.Err
		if res := msg.Result; res != nil {
			a.upload.last = res
			a.budget = res.Budget
			if res.Snapshot != nil {
				a.snapshot = *res.Snapshot
				a.origin = pipeline.OriginStore
			}
			if msg.Uploads != nil {
				a.uploads = msg.Uploads
			}
			a.notice = ingestNotice(res)
			a.recompute()
		}
		if msg.Err != nil {
			a.notice = "upload failed: " + msg.Err.Error()
		}
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.setupForm != nil {
		return a.updateSetupForm(msg)
	}
	if a.upload.editing {
		var cmd tea.Cmd
		a.upload.input, cmd = a.upload.input.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		if err := a.saveSetupConfig(); err != nil {
			a.notice = "saving config: " + err.Error()
		} else {
			a.notice = "saved " + config.ConfigPath()
		}
		a.recompute()
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		return a, nil
	}
	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if !a.loaded {
		return a.viewLoading()
	}
	if a.setupForm != nil {
		return a.setupForm.View()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  budgetdash needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ budgetdash"))
	b.WriteString(subtitleStyle.Render(" · Team Budget Dashboard"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	if a.opts.NoStore {
		b.WriteString(subtitleStyle.Render(" Loading seed..."))
	} else {
		b.WriteString(subtitleStyle.Render(" Opening snapshot store..."))
	}

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.People).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n\n")

	sections := []struct {
		title    string
		bindings [][2]string
	}{
		{"Navigation", [][2]string{
			{"o l s u", "Jump to tab"},
			{"← →", "Previous / Next tab"},
			{"[ ]", "Previous / Next unit"},
			{"j k", "Move through ledger rows"},
		}},
		{"Actions", [][2]string{
			{"g", "Cycle group filter"},
			{"i", "Upload files (Uploads tab)"},
			{"f", "Toggle re-apply duplicates"},
			{"r", "Reload from store"},
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}
	for i, sec := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind[0])),
				descStyle.Render(bind[1]))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar plus a pill with the filter and selected unit
	pillStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accentStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	pill := pillStyle.Render(" ") + accentStyle.Render(a.budget.FinancialYear) +
		pillStyle.Render(" │ ") + accentStyle.Render(a.filter.Label())
	if id, u, ok := a.selectedUnit(); ok {
		pill += pillStyle.Render(" │ ") + accentStyle.Render(id) + pillStyle.Render(" "+u.TeamName)
	}
	pill += pillStyle.Render(" ")

	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).Render(pill)

	// 2. Status bar
	statusBar := components.RenderStatusBar(w, a.notice, a.dataInfo())

	// 3. Content zone height
	contentH := max(h-lipgloss.Height(header)-lipgloss.Height(statusBar), minContentHeight)

	// 4. Tab content
	var content string
	switch {
	case a.loadErr != nil:
		content = components.ContentCard("Error", a.loadErr.Error(), cw)
	case a.activeTab == tabOverview:
		content = a.renderOverviewTab(cw)
	case a.activeTab == tabLedger:
		content = a.renderLedgerTab(cw, contentH)
	case a.activeTab == tabSpend:
		content = a.renderSpendTab(cw)
	case a.activeTab == tabUploads:
		content = a.renderUploadsTab(cw, contentH)
	}

	// 5. Truncate + pad to exactly contentH lines, fill the background
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

// dataInfo describes where the model came from for the status bar.
func (a App) dataInfo() string {
	parts := []string{string(a.origin)}
	if a.snapshot.ID != "" {
		parts = append(parts, "snapshot "+shortID(a.snapshot.ID))
		parts = append(parts, cli.FormatAge(a.snapshot.CreatedAt))
	}
	if a.upload.ingesting {
		parts = append(parts, a.spinner.View()+" ingesting")
	}
	return strings.Join(parts, " · ")
}

func ingestNotice(res *pipeline.IngestResult) string {
	msg := fmt.Sprintf("%d file(s): %d rows applied, %d dropped",
		res.Ingested, res.Report.Applied, res.Report.Dropped())
	if res.Duplicates > 0 {
		msg += fmt.Sprintf(", %d duplicate(s) skipped", res.Duplicates)
	}
	if res.FileErrors > 0 {
		msg += fmt.Sprintf(", %d failed", res.FileErrors)
	}
	return msg
}

// ─── Commands ───────────────────────────────────────────────────

// loadDataCmd loads the model in a background goroutine and delivers a
// DataLoadedMsg through sub.
func loadDataCmd(opts Options, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			start := time.Now()
			msg := DataLoadedMsg{}

			var st *store.Store
			if !opts.NoStore {
				var err error
				st, err = store.Open(pipeline.StorePath(opts.DataDir))
				if err != nil {
					sub <- DataLoadedMsg{Err: err, LoadTime: time.Since(start)}
					return
				}
				defer func() { _ = st.Close() }()
			}

			msg.Result, msg.Err = pipeline.LoadBudget(st, opts.SeedPath)
			if msg.Err == nil && st != nil {
				msg.Uploads, msg.Err = st.ListUploads(historyLimit)
			}
			msg.LoadTime = time.Since(start)
			sub <- msg
		}()
		return <-sub
	}
}

// ingestCmd applies the files at paths to prior, streaming ProgressMsg
// updates and a final IngestDoneMsg through sub.
func ingestCmd(opts Options, prior model.Budget, paths []string, force bool, sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		go func() {
			files, err := source.DiscoverPaths(paths)
			if err != nil {
				sub <- IngestDoneMsg{Err: err}
				return
			}
			if len(files) == 0 {
				sub <- IngestDoneMsg{Err: fmt.Errorf("no csv, xlsx or json files in %s", strings.Join(paths, ", "))}
				return
			}

			var st *store.Store
			if !opts.NoStore {
				st, err = store.Open(pipeline.StorePath(opts.DataDir))
				if err != nil {
					sub <- IngestDoneMsg{Err: err}
					return
				}
				defer func() { _ = st.Close() }()
			}

			// Non-blocking send so decode workers aren't stalled.
			progressFn := func(current, total int) {
				select {
				case sub <- ProgressMsg{Current: current, Total: total}:
				default:
				}
			}

			res, err := pipeline.IngestFiles(prior, files, st, pipeline.IngestOptions{
				DefaultUnit: opts.DefaultUnit,
				Force:       force,
				Origin:      "tui",
				Reconciler:  opts.Reconciler,
			}, progressFn)
			if err != nil {
				sub <- IngestDoneMsg{Err: err}
				return
			}
			msg := IngestDoneMsg{Result: res}
			if st != nil {
				msg.Uploads, msg.Err = st.ListUploads(historyLimit)
			}
			sub <- msg
		}()
		return <-sub
	}
}

// waitForLoadMsg blocks until the next message arrives from a loader goroutine.
func waitForLoadMsg(sub chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-sub
	}
}

// ─── Helpers ────────────────────────────────────────────────────

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return min(max(v, lo), hi)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with the background
// color so gaps between cards are filled.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line, lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes follow the widths RenderTabBar uses.
func (a App) tabAtX(x int) int {
	pos := 1 // leading space
	for i := range components.Tabs {
		tabW := components.TabVisualWidth(i, a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW + components.TabGap
	}
	return -1
}
