package tui

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/theirongolddev/budgetdash/internal/model"
	"github.com/theirongolddev/budgetdash/internal/pipeline"
	"github.com/theirongolddev/budgetdash/internal/source"
	"github.com/theirongolddev/budgetdash/internal/tui/components"

	tea "github.com/charmbracelet/bubbletea"
)

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func loadedApp(t *testing.T, opts Options) App {
	t.Helper()
	opts.NoStore = true
	opts.SkipSetup = true
	b, err := source.DefaultSeed()
	if err != nil {
		t.Fatal(err)
	}
	var m tea.Model = NewApp(opts)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 140, Height: 45})
	m, _ = m.Update(DataLoadedMsg{Result: &pipeline.LoadResult{Budget: b, Origin: pipeline.OriginBuiltinSeed}})
	return m.(App)
}

func press(t *testing.T, a App, keys ...rune) App {
	t.Helper()
	var m tea.Model = a
	for _, k := range keys {
		m, _ = m.Update(keyPress(k))
	}
	return m.(App)
}

func TestTabAtXMatchesTabWidths(t *testing.T) {
	for active := range components.Tabs {
		a := App{activeTab: active}
		pos := 1
		for i := range components.Tabs {
			w := components.TabVisualWidth(i, active)
			if got := a.tabAtX(pos + w/2); got != i {
				t.Fatalf("active=%d x=%d -> tab=%d, want %d", active, pos+w/2, got, i)
			}
			pos += w + components.TabGap
		}
		if got := a.tabAtX(0); got != -1 {
			t.Fatalf("leading space -> tab=%d, want -1", got)
		}
	}
}

func TestDataLoadedSelectsDefaultUnit(t *testing.T) {
	a := loadedApp(t, Options{DefaultUnit: "4200"})
	if !a.loaded {
		t.Fatal("app not loaded")
	}
	id, _, ok := a.selectedUnit()
	if !ok || id != "4200" {
		t.Fatalf("selected unit = %q, want 4200", id)
	}
	if len(a.overview.Units) != 3 {
		t.Fatalf("overview units = %d, want 3", len(a.overview.Units))
	}
}

func TestKeyNavigation(t *testing.T) {
	a := loadedApp(t, Options{})

	a = press(t, a, 'l')
	if a.activeTab != tabLedger {
		t.Fatalf("activeTab = %d, want ledger", a.activeTab)
	}
	a = press(t, a, 'j', 'j', 'j', 'j', 'j', 'j')
	if a.ledgerCursor != 3 {
		t.Fatalf("ledgerCursor = %d, want 3 (clamped to 4 records)", a.ledgerCursor)
	}
	a = press(t, a, ']')
	if id, _, _ := a.selectedUnit(); id != "4200" || a.ledgerCursor != 0 {
		t.Fatalf("after ] unit=%q cursor=%d, want 4200/0", id, a.ledgerCursor)
	}
	a = press(t, a, '[', '[')
	if id, _, _ := a.selectedUnit(); id != "4300" {
		t.Fatalf("after [[ unit=%q, want wrap to 4300", id)
	}

	a = press(t, a, 'g')
	if a.filter.Group != model.GroupPeople {
		t.Fatalf("group = %q, want people", a.filter.Group)
	}
	a = press(t, a, 'g', 'g')
	if a.filter.Active() {
		t.Fatalf("filter = %+v, want cycled back to all", a.filter)
	}

	a = press(t, a, '?')
	if !a.showHelp {
		t.Fatal("help not shown")
	}
	a = press(t, a, 'x')
	if a.showHelp || a.activeTab != tabLedger {
		t.Fatal("any key should only dismiss help")
	}
}

func TestCycleGroupDropsSpendTypes(t *testing.T) {
	a := loadedApp(t, Options{Filter: pipeline.Filter{SpendTypes: []string{"Salaries"}}})
	if !a.filter.Active() {
		t.Fatal("initial filter should be active")
	}
	a = press(t, a, 'g')
	if a.filter.Group != model.GroupPeople || len(a.filter.SpendTypes) != 0 {
		t.Fatalf("filter = %+v", a.filter)
	}
}

func TestViewRendersEveryTab(t *testing.T) {
	a := loadedApp(t, Options{})
	want := []string{"Brand Marketing", "Records 1-4 of 4", "Salaries", "Upload"}
	for i, s := range want {
		a.activeTab = i
		view := a.View()
		if !strings.Contains(view, s) {
			t.Fatalf("tab %d view missing %q", i, s)
		}
		if got := strings.Count(view, "\n") + 1; got != 45 {
			t.Fatalf("tab %d view height = %d, want 45", i, got)
		}
	}
}

func TestViewTooNarrow(t *testing.T) {
	var m tea.Model = NewApp(Options{SkipSetup: true})
	m, _ = m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	if !strings.Contains(m.View(), "too narrow") {
		t.Fatal("narrow terminal should show a warning")
	}
}

func TestUploadPromptIngests(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "july.csv")
	if err := os.WriteFile(path, []byte("costcenter,date,actual\n4300,2025-07-10,1234\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	a := loadedApp(t, Options{})
	a = press(t, a, 'u', 'i')
	if !a.upload.editing {
		t.Fatal("input not focused")
	}
	a.upload.input.SetValue(path)

	m, cmd := tea.Model(a).Update(tea.KeyMsg{Type: tea.KeyEnter})
	a = m.(App)
	if !a.upload.ingesting || cmd == nil {
		t.Fatal("enter should start ingesting")
	}

	// Drive the ingest command directly; tea.Batch hides its messages.
	var msg tea.Msg = ingestCmd(a.opts, a.budget, []string{path}, false, a.loadSub)()
	for {
		m, _ = a.Update(msg)
		a = m.(App)
		if _, done := msg.(IngestDoneMsg); done {
			break
		}
		msg = <-a.loadSub
	}

	if a.upload.ingesting || a.upload.err != nil {
		t.Fatalf("ingesting=%v err=%v", a.upload.ingesting, a.upload.err)
	}
	months := a.budget.Units["4300"].Months
	if len(months) != 1 || months[0].Actual != 1234 {
		t.Fatalf("4300 months = %+v", months)
	}
	if !strings.Contains(a.notice, "1 rows applied") {
		t.Fatalf("notice = %q", a.notice)
	}
}

func TestIngestCmdReportsMissingFiles(t *testing.T) {
	sub := make(chan tea.Msg, 1)
	msg := ingestCmd(Options{NoStore: true}, model.Budget{}, []string{filepath.Join(t.TempDir(), "nope.csv")}, false, sub)()
	done, ok := msg.(IngestDoneMsg)
	if !ok || done.Err == nil {
		t.Fatalf("msg = %#v, want IngestDoneMsg with error", msg)
	}
}

func TestLoadDataCmdOpensStore(t *testing.T) {
	sub := make(chan tea.Msg, 1)
	msg := loadDataCmd(Options{DataDir: t.TempDir()}, sub)()
	loaded, ok := msg.(DataLoadedMsg)
	if !ok {
		t.Fatalf("msg = %#v, want DataLoadedMsg", msg)
	}
	if loaded.Err != nil {
		t.Fatal(loaded.Err)
	}
	if loaded.Result.Origin != pipeline.OriginBuiltinSeed {
		t.Fatalf("origin = %q, want builtin seed for an empty store", loaded.Result.Origin)
	}
	if len(loaded.Uploads) != 0 {
		t.Fatalf("uploads = %d, want 0", len(loaded.Uploads))
	}
}
