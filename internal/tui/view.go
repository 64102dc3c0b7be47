package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/weasel-sec/weasel/internal/types"
)

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "Initializing..."
	}

	if m.scanning {
		msg := fmt.Sprintf("%s  Rescanning...\n\nPlease wait", m.spinner.View())
		box := popupStyle.Width(55).Align(lipgloss.Center).Render(msg)
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}

	switch {
	case m.showHelp:
		return m.place(m.helpView(), 48)
	case m.showExportMenu:
		return m.place(m.exportView(), 44)
	case m.showScanHistory:
		return m.place(m.historyView(), 76)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		m.statsView(),
		tableBorderStyle.Width(m.width).Height(m.table.Height()).Render(m.table.View()),
		detailPaneBorderStyle.Width(m.width).Height(m.viewport.Height).Render(m.detailView()),
		m.bottomBar(),
	)
}

func (m Model) place(content string, width int) string {
	box := popupStyle.Width(width).Padding(1, 3).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

func (m Model) statsView() string {
	var content string
	if len(m.items) == 0 {
		content = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render("[OK] No issues detected")
	} else {
		counts := map[types.Severity]int{}
		idxs := m.displayIndices()
		for _, idx := range idxs {
			counts[m.findings[m.items[idx].finding].Severity]++
		}
		total := fmt.Sprintf("Total: %-4d", len(m.items))
		if m.visible != nil {
			total = fmt.Sprintf("Showing: %d/%d", len(idxs), len(m.items))
		}
		content = fmt.Sprintf("%s  |  %s %-4d  |  %s %-4d  |  %s %-4d  |  %s %-4d",
			total,
			sevHighStyle.Render("High:"), counts[types.SevHigh]+counts[types.SevCritical],
			sevMedStyle.Render("Med:"), counts[types.SevMedium],
			sevLowStyle.Render("Low:"), counts[types.SevLow],
			sevGasStyle.Render("Gas:"), counts[types.SevGas],
		)
		var parts []string
		if m.searchQuery != "" {
			parts = append(parts, fmt.Sprintf("search:'%s'", m.searchQuery))
		}
		if m.severityFilter != nil {
			parts = append(parts, "sev:"+severityText(*m.severityFilter))
		}
		if m.prefs.HideBaselined {
			parts = append(parts, "new only")
		}
		if len(parts) > 0 {
			content += fmt.Sprintf("  [FILTER: %s]", strings.Join(parts, ", "))
		}
		content += m.getSortIndicator()
		if len(m.selected) > 0 {
			content += fmt.Sprintf("  [%d selected]", len(m.selected))
		}
	}
	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 2).
		Foreground(lipgloss.Color("15")).
		Background(lipgloss.Color("237")).
		Render(content)
}

func (m Model) detailView() string {
	if len(m.table.Rows()) > 0 {
		return m.viewport.View()
	}
	msg := "No issues to review.\n\nPress 'r' to rescan\nPress '?' for help"
	if len(m.items) > 0 {
		msg = "No locations match filter.\n\nPress 'Esc' to clear filter"
	}
	return lipgloss.Place(m.width, m.viewport.Height, lipgloss.Center, lipgloss.Center, emptyTextStyle.Render(msg))
}

func (m Model) bottomBar() string {
	if m.searchMode {
		return lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("15")).
			Width(m.width).
			Padding(0, 1).
			Render(m.searchInput.View() + fmt.Sprintf(" (%d matches)", len(m.displayIndices())))
	}

	var timeInfo string
	if m.viewingCached {
		timeInfo = fmt.Sprintf("Cached: %s", m.lastScanTime.Format("Jan 2, 15:04"))
	} else if !m.lastScanTime.IsZero() {
		timeInfo = fmt.Sprintf("Scanned: %s ago", formatDuration(time.Since(m.lastScanTime)))
	}
	spacer := max(m.width-4-lipgloss.Width(m.statusMessage)-lipgloss.Width(timeInfo), 1)
	return statusStyle.
		Width(m.width).
		Padding(0, 2).
		Render(m.statusMessage + strings.Repeat(" ", spacer) + timeInfo)
}

func (m Model) helpView() string {
	title := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	section := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	row := func(key, desc string) string {
		k := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(key)
		d := lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Render(desc)
		return "  " + k + strings.Repeat(" ", max(12-len(key), 1)) + d
	}

	lines := []string{
		title.Render("Keyboard Shortcuts"),
		"",
		section.Render("Navigation"),
		row("j / k", "Move down / up"),
		row("J / K", "Scroll details"),
		row("Ctrl+d/u", "Half-page down / up"),
		row("g / G", "First / last row"),
		row("n / N", "Next / prev HIGH finding"),
		"",
		section.Render("Search & Filter"),
		row("/", "Search locations"),
		row("1-5", "Filter HIGH/MED/LOW/GAS/NC"),
		row("H", "Hide baselined"),
		row("s / S", "Sort / reverse sort"),
		row("Esc", "Clear filters"),
		"",
		section.Render("Actions"),
		row("Enter / o", "Open in $EDITOR"),
		row("b / U", "Baseline / unbaseline"),
		row("v / V / B", "Select / all / baseline selected"),
		row("i / I", "Ignore / unignore file"),
		row("y / Y", "Copy location / finding"),
		row("e", "Export (JSON/Markdown/SARIF)"),
		row("+ / -", "More / less context"),
		row("r", "Rescan"),
		"",
		section.Render("Grouping & History"),
		row("gf / gd", "Group by file / detector"),
		row("Tab", "Expand/collapse group"),
		row("a", "Scan history"),
		"",
		row("?", "Toggle help"),
		row("q", "Quit"),
		"",
		dimStyle.Italic(true).Render("Press any key to close"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) exportView() string {
	key := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("Export Findings"),
		"",
		fmt.Sprintf("  %s  JSON     (report envelope)", key.Render("1/j")),
		fmt.Sprintf("  %s  Markdown (audit write-up)", key.Render("2/m")),
		fmt.Sprintf("  %s  SARIF    (code scanning)", key.Render("3/s")),
		"",
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")).Italic(true).
			Render(fmt.Sprintf("Exporting %d locations", len(m.displayIndices()))),
		"",
		dimStyle.Italic(true).Render("Esc to cancel"),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func (m Model) historyView() string {
	if len(m.scanHistory) == 0 {
		return dimStyle.Render("No scan history found.\n\nRun scans to build audit history.")
	}
	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15")).Render("SCAN HISTORY"),
		"",
	}
	for i, scan := range m.scanHistory {
		if i == 10 {
			break
		}
		summary := fmt.Sprintf("%s - %d findings, %d locations (%d new, %d baselined)",
			scan.Timestamp.Format("Jan 2, 15:04:05"), scan.TotalFindings, scan.Instances, scan.NewInstances, scan.BaselinedCount)
		style := lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
		switch {
		case scan.TotalFindings == 0:
			style = style.Foreground(lipgloss.Color("10"))
		case scan.NewInstances > 0:
			style = style.Foreground(lipgloss.Color("11"))
		}
		if i == m.historySel {
			lines = append(lines, lipgloss.NewStyle().
				Foreground(lipgloss.Color("232")).
				Background(lipgloss.Color("208")).
				Bold(true).
				Render("  > "+summary))
		} else {
			lines = append(lines, style.Render("    "+summary))
		}
	}
	lines = append(lines, "", dimStyle.Italic(true).Render("d: delete | a: close"))
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}
