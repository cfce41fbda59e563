package tui

import (
	"fmt"
	"strings"

	"github.com/theirongolddev/budgetdash/internal/cli"
	"github.com/theirongolddev/budgetdash/internal/pipeline"
	"github.com/theirongolddev/budgetdash/internal/tui/components"
	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// uploadState is the Uploads tab: a path prompt plus the last result.
type uploadState struct {
	input     textinput.Model
	editing   bool
	ingesting bool
	force     bool
	last      *pipeline.IngestResult
	err       error
}

func newUploadState() uploadState {
	ti := textinput.New()
	ti.Placeholder = "path/to/actuals.xlsx (several paths or a folder work too)"
	ti.CharLimit = 1024
	ti.Width = 60
	ti.Prompt = "› "
	return uploadState{input: ti}
}

func (u *uploadState) focus() tea.Cmd {
	u.editing = true
	u.input.Focus()
	return u.input.Cursor.BlinkCmd()
}

func (a App) updateUploadInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		a.upload.editing = false
		a.upload.input.Blur()
		return a, nil
	case "enter":
		paths := strings.Fields(a.upload.input.Value())
		if len(paths) == 0 {
			return a, nil
		}
		a.upload.editing = false
		a.upload.input.Blur()
		a.upload.input.SetValue("")
		a.upload.ingesting = true
		a.upload.err = nil
		a.notice = "ingesting " + strings.Join(paths, ", ")
		return a, tea.Batch(
			ingestCmd(a.opts, a.budget, paths, a.upload.force, a.loadSub),
			a.spinner.Tick,
		)
	}

	var cmd tea.Cmd
	a.upload.input, cmd = a.upload.input.Update(msg)
	return a, cmd
}

func (a App) renderUploadsTab(cw, h int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dim := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	accent := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)

	var b strings.Builder

	// Prompt
	var prompt strings.Builder
	switch {
	case a.upload.ingesting:
		prompt.WriteString(accent.Render(a.spinner.View()) + muted.Render(" Reconciling uploads..."))
		if a.progressMax > 0 {
			prompt.WriteString("\n")
			prompt.WriteString(components.ProgressBar(float64(a.progress)/float64(a.progressMax), 30))
		}
	case a.upload.editing:
		prompt.WriteString(a.upload.input.View())
		prompt.WriteString("\n")
		prompt.WriteString(dim.Render("enter to ingest · esc to cancel"))
	default:
		prompt.WriteString(muted.Render("Press "))
		prompt.WriteString(accent.Render("i"))
		prompt.WriteString(muted.Render(" to upload CSV, XLSX or JSON files. "))
		force := "off"
		if a.upload.force {
			force = "on"
		}
		prompt.WriteString(muted.Render("Re-apply duplicates [f]: "))
		prompt.WriteString(accent.Render(force))
	}
	if a.opts.DefaultUnit != "" {
		prompt.WriteString("\n")
		prompt.WriteString(dim.Render("Rows without a costcenter go to unit " + a.opts.DefaultUnit))
	}
	if a.opts.NoStore {
		prompt.WriteString("\n")
		prompt.WriteString(dim.Render("Store disabled: uploads change this session only"))
	}
	b.WriteString(components.ContentCard("Upload", prompt.String(), cw))
	b.WriteString("\n")

	// Last result
	if res := a.upload.last; res != nil {
		b.WriteString(components.ContentCard("Last upload", a.renderIngestResult(res, cw), cw))
		b.WriteString("\n")
	}

	// History
	if a.opts.NoStore {
		return b.String()
	}
	inner := components.CardInnerWidth(cw)
	nameW := max(inner-10-6-6*8-18-6, 12)
	cols := []components.TableColumn{
		{Title: "When", Width: 16, Left: true},
		{Title: "File", Width: nameW, Left: true},
		{Title: "Format", Width: 6, Left: true},
		{Title: "From", Width: 6, Left: true},
		{Title: "Rows", Width: 6},
		{Title: "Applied", Width: 7},
		{Title: "Dropped", Width: 7},
		{Title: "Units", Width: 10, Left: true},
	}
	used := lipgloss.Height(b.String()) - 1
	visible := max(h-used-5, 1)
	n := min(len(a.uploads), visible)

	rows := make([][]string, 0, n)
	colors := make([][]lipgloss.Color, 0, n)
	for _, up := range a.uploads[:n] {
		rows = append(rows, []string{
			up.CreatedAt.Local().Format("2006-01-02 15:04"),
			up.Name,
			up.Format,
			up.Origin,
			cli.FormatNumber(int64(up.Rows)),
			cli.FormatNumber(int64(up.Applied)),
			cli.FormatNumber(int64(up.Dropped)),
			strings.Join(up.Units, ","),
		})
		var c []lipgloss.Color
		if up.Dropped > 0 {
			c = []lipgloss.Color{6: t.Warn}
		}
		colors = append(colors, c)
	}
	body := components.Table(cols, rows, colors, -1)
	if len(a.uploads) == 0 {
		body = dim.Render("No uploads recorded yet.")
	}
	b.WriteString(components.ContentCard(fmt.Sprintf("History (%d)", len(a.uploads)), body, cw))
	return b.String()
}

func (a App) renderIngestResult(res *pipeline.IngestResult, cw int) string {
	t := theme.Active
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	ok := lipgloss.NewStyle().Foreground(t.Under).Background(t.Surface)
	warn := lipgloss.NewStyle().Foreground(t.Warn).Background(t.Surface)
	bad := lipgloss.NewStyle().Foreground(t.Over).Background(t.Surface)

	r := res.Report
	var b strings.Builder
	b.WriteString(muted.Render(fmt.Sprintf("%d rows · %d applied (%d detail, %d actuals, %d spend) · units %s",
		r.Rows, r.Applied, r.DetailRows, r.ActualsRows, r.SpendRows, strings.Join(r.Units, ", "))))
	if r.Dropped() > 0 {
		b.WriteString("\n")
		b.WriteString(warn.Render(fmt.Sprintf("dropped: %d unknown unit, %d without unit, %d unusable",
			r.UnknownUnit, r.NoUnit, r.Unusable)))
	}
	for _, f := range res.Files {
		b.WriteString("\n")
		name := truncStr(f.Name, components.CardInnerWidth(cw)-20)
		switch {
		case f.Err != nil:
			b.WriteString(bad.Render("✗ " + name + ": " + f.Err.Error()))
		case f.Duplicate:
			b.WriteString(muted.Render("= " + name + " (already ingested)"))
		default:
			b.WriteString(ok.Render(fmt.Sprintf("✓ %s (%d applied)", name, f.Report.Applied)))
		}
	}
	return b.String()
}

func truncStr(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}
