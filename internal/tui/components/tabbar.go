package components

import (
	"strings"

	"github.com/theirongolddev/budgetdash/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// Tab represents a single tab in the tab bar.
type Tab struct {
	Name   string
	Key    rune
	KeyPos int // position of the shortcut letter in the name (-1 if not in name)
}

// Tabs defines all available tabs.
var Tabs = []Tab{
	{Name: "Overview", Key: 'o', KeyPos: 0},
	{Name: "Ledger", Key: 'l', KeyPos: 0},
	{Name: "Spend", Key: 's', KeyPos: 0},
	{Name: "Uploads", Key: 'u', KeyPos: 0},
}

// TabGap is the number of spaces between tabs.
const TabGap = 2

// TabVisualWidth is the rendered width of tab i. Inactive tabs show their
// shortcut in brackets.
func TabVisualWidth(i, activeIdx int) int {
	tab := Tabs[i]
	if i == activeIdx {
		return len(tab.Name)
	}
	if tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name) {
		return len(tab.Name) + 2
	}
	return len(tab.Name) + 3
}

// RenderTabBar renders the tab bar with the given active index.
func RenderTabBar(activeIdx int, width int) string {
	t := theme.Active

	bg := lipgloss.NewStyle().Background(t.Background)
	activeStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.SurfaceHover).Bold(true)
	inactiveStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)
	keyStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Background).Bold(true)
	dimKeyStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Background)

	parts := make([]string, 0, len(Tabs))
	for i, tab := range Tabs {
		switch {
		case i == activeIdx:
			parts = append(parts, activeStyle.Render(tab.Name))
		case tab.KeyPos >= 0 && tab.KeyPos < len(tab.Name):
			parts = append(parts, inactiveStyle.Render(tab.Name[:tab.KeyPos])+
				dimKeyStyle.Render("[")+keyStyle.Render(string(tab.Name[tab.KeyPos]))+dimKeyStyle.Render("]")+
				inactiveStyle.Render(tab.Name[tab.KeyPos+1:]))
		default:
			parts = append(parts, inactiveStyle.Render(tab.Name)+
				dimKeyStyle.Render("[")+keyStyle.Render(string(tab.Key))+dimKeyStyle.Render("]"))
		}
	}

	row := bg.Render(" ") + strings.Join(parts, bg.Render(strings.Repeat(" ", TabGap)))
	if pad := width - lipgloss.Width(row); pad > 0 {
		row += bg.Render(strings.Repeat(" ", pad))
	}
	return row
}

// TabIdxByKey returns the tab index for a given key press, or -1.
func TabIdxByKey(key rune) int {
	for i, tab := range Tabs {
		if tab.Key == key {
			return i
		}
	}
	return -1
}
