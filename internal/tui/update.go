package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/weasel-sec/weasel/internal/audit"
	"github.com/weasel-sec/weasel/internal/types"
)

type findingsMsg []types.Finding

type statusMsg string

func (m Model) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *Model) rescan() tea.Cmd {
	fn := m.rescanFunc
	return func() tea.Msg {
		if fn == nil {
			return statusMsg("Rescan not available")
		}
		findings, err := fn()
		if err != nil {
			return statusMsg(fmt.Sprintf("Scan error: %v", err))
		}
		return findingsMsg(findings)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)

	case findingsMsg:
		m.setFindings(msg)
		m.lastScanTime = time.Now()
		m.viewingCached = false
		m.scanning = false
		if len(m.items) == 0 {
			m.setStatus("Rescan complete - no issues found", 5*time.Second)
		} else {
			m.setStatus(fmt.Sprintf("Rescan complete - %d findings, %d locations", len(m.findings), len(m.items)), 5*time.Second)
		}

	case statusMsg:
		m.scanning = false
		m.setStatus(string(msg), 3*time.Second)

	case spinner.TickMsg:
		m.spinner, cmd = m.spinner.Update(msg)
		if m.statusTimeout != nil && time.Now().After(*m.statusTimeout) {
			m.statusTimeout = nil
			m.statusMessage = defaultStatus
		}
		return m, cmd
	}
	return m, nil
}

func (m *Model) resize(width, height int) {
	m.width = width
	m.height = height
	m.ready = true

	usable := m.width - 10
	sevWidth := 12
	detectorWidth := 28
	remaining := usable - sevWidth - detectorWidth
	locWidth := max(int(float64(remaining)*0.45), 25)
	snippetWidth := max(remaining-locWidth, 25)

	cols := m.table.Columns()
	cols[0].Width = sevWidth
	cols[1].Width = detectorWidth
	cols[2].Width = locWidth
	cols[3].Width = snippetWidth
	m.table.SetColumns(cols)

	statsHeaderHeight := 1
	available := m.height - lipgloss.Height(statusStyle.Render("")) - statsHeaderHeight
	tableHeight := int(float64(available) * 0.45)
	viewportHeight := max(available-tableHeight-detailPaneBorderStyle.GetVerticalFrameSize()-1, 1)

	m.table.SetWidth(m.width)
	m.table.SetHeight(tableHeight)
	if m.viewport.Height == 0 {
		m.viewport = viewport.New(m.width, viewportHeight)
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = viewportHeight
	}
	m.updateViewportContent()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	key := msg.String()

	if m.showHelp {
		m.showHelp = false
		return m, nil
	}

	if m.showScanHistory {
		switch key {
		case "q", "esc", "a":
			m.showScanHistory = false
			m.historySel = 0
		case "up", "k":
			if m.historySel > 0 {
				m.historySel--
			}
		case "down", "j":
			if m.historySel < len(m.scanHistory)-1 {
				m.historySel++
			}
		case "d", "x", "backspace", "delete":
			log := audit.NewAuditLog(m.root)
			if err := log.DeleteRecord(m.historySel); err == nil {
				if history, err := log.LoadHistory(); err == nil {
					m.scanHistory = history
					m.historySel = max(min(m.historySel, len(history)-1), 0)
				}
			}
		}
		return m, nil
	}

	if m.showExportMenu {
		m.showExportMenu = false
		switch key {
		case "1", "j":
			return m, m.exportFindings("json")
		case "2", "m":
			return m, m.exportFindings("markdown")
		case "3", "s":
			return m, m.exportFindings("sarif")
		}
		return m, nil
	}

	if m.searchMode {
		switch key {
		case "enter":
			m.searchQuery = m.searchInput.Value()
			m.searchMode = false
			m.searchInput.Blur()
			return m, nil
		case "esc":
			m.searchMode = false
			m.searchInput.Blur()
			m.searchInput.SetValue(m.searchQuery)
			m.applyFilters()
			return m, nil
		default:
			m.searchInput, cmd = m.searchInput.Update(msg)
			m.searchQuery = m.searchInput.Value()
			m.applyFilters()
			return m, cmd
		}
	}

	if m.pendingKey == "g" {
		m.pendingKey = ""
		switch key {
		case "f":
			m.setGroupMode(GroupByFile)
			if m.groupMode == GroupByFile {
				m.setStatus("Grouped by file (Tab to expand/collapse, gf to ungroup)", 3*time.Second)
			} else {
				m.setStatus("Grouping disabled", 3*time.Second)
			}
		case "d":
			m.setGroupMode(GroupByDetector)
			if m.groupMode == GroupByDetector {
				m.setStatus("Grouped by detector (Tab to expand/collapse, gd to ungroup)", 3*time.Second)
			} else {
				m.setStatus("Grouping disabled", 3*time.Second)
			}
		case "g":
			m.table.GotoTop()
			m.updateViewportContent()
		}
		return m, nil
	}

	empty := len(m.table.Rows()) == 0

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		_ = SavePrefs(m.prefs)
		return m, tea.Quit
	case "/":
		if len(m.items) > 0 {
			m.searchMode = true
			m.searchInput.SetValue(m.searchQuery)
			return m, tea.Batch(m.searchInput.Focus(), textinput.Blink)
		}
	case "1", "2", "3", "4", "5":
		sev := map[string]types.Severity{"1": types.SevHigh, "2": types.SevMedium, "3": types.SevLow, "4": types.SevGas, "5": types.SevNC}[key]
		m.setSeverityFilter(sev)
		m.setStatus(fmt.Sprintf("Showing %s severity only (Esc to clear)", severityText(sev)), 3*time.Second)
	case "esc":
		if m.searchQuery != "" || m.severityFilter != nil {
			m.clearFilters()
			m.setStatus("Filters cleared", 3*time.Second)
		}
	case "H":
		m.prefs.HideBaselined = !m.prefs.HideBaselined
		m.applyFilters()
		if m.prefs.HideBaselined {
			m.setStatus("Hiding baselined locations", 3*time.Second)
		} else {
			m.setStatus("Showing baselined locations", 3*time.Second)
		}
	case "n", "N":
		dir := 1
		if key == "N" {
			dir = -1
		}
		if m.jumpToNextSeverity(types.SevHigh, dir) {
			m.updateViewportContent()
		} else {
			m.setStatus("No more HIGH findings", 2*time.Second)
		}
	case "s":
		if len(m.items) > 0 {
			m.cycleSortColumn()
			if m.sortColumn == SortDefault {
				m.setStatus("Sort: default order", 3*time.Second)
			} else {
				m.setStatus(fmt.Sprintf("Sort by %s (S to reverse)", m.sortColumn), 3*time.Second)
			}
		}
	case "S":
		if m.sortColumn != SortDefault {
			m.toggleSortReverse()
			direction := "ascending"
			if m.sortReverse {
				direction = "descending"
			}
			m.setStatus(fmt.Sprintf("Sort by %s (%s)", m.sortColumn, direction), 3*time.Second)
		}
	case "v":
		if !empty {
			m.toggleSelection()
			if n := len(m.selected); n == 0 {
				m.setStatus("Selection cleared", 2*time.Second)
			} else {
				m.setStatus(fmt.Sprintf("%d selected (V: all, B: baseline)", n), 2*time.Second)
			}
		}
	case "V":
		if !empty {
			m.toggleSelectAll()
			if n := len(m.selected); n == 0 {
				m.setStatus("All deselected", 2*time.Second)
			} else {
				m.setStatus(fmt.Sprintf("All %d selected (B: baseline)", n), 2*time.Second)
			}
		}
	case "B":
		if len(m.selected) == 0 {
			m.setStatus("Nothing selected (press v to select)", 2*time.Second)
			return m, nil
		}
		return m, m.bulkBaseline()
	case "b":
		if !empty {
			return m, m.addToBaseline()
		}
	case "U":
		if !empty {
			return m, m.removeFromBaseline()
		}
	case "o", "enter":
		if !empty {
			return m, m.openEditor()
		}
	case "i":
		if !empty {
			return m, m.ignoreFile()
		}
	case "I":
		if !empty {
			return m, m.unignoreFile()
		}
	case "e":
		if len(m.displayIndices()) > 0 {
			m.showExportMenu = true
		}
	case "+", "=":
		m.expandContext()
		m.setStatus(fmt.Sprintf("Context: %d lines", m.contextLines*2+1), 2*time.Second)
	case "-", "_":
		m.contractContext()
		m.setStatus(fmt.Sprintf("Context: %d lines", m.contextLines*2+1), 2*time.Second)
	case "y":
		if !empty {
			return m, m.copyPathToClipboard()
		}
	case "Y":
		if !empty {
			return m, m.copyFindingToClipboard()
		}
	case "tab":
		m.toggleGroupExpansion()
	case "r":
		if m.rescanFunc == nil {
			m.setStatus("Rescan not available", 3*time.Second)
			return m, nil
		}
		if !m.scanning {
			m.scanning = true
			m.statusMessage = "Rescanning..."
			return m, tea.Batch(m.rescan(), m.spinner.Tick)
		}
	case "a":
		history, err := audit.NewAuditLog(m.root).LoadHistory()
		if err != nil {
			history = nil
		}
		m.scanHistory = history
		m.historySel = 0
		m.showScanHistory = true
	case "?", "h":
		m.showHelp = true
	case "J":
		m.viewport.LineDown(1)
	case "K":
		m.viewport.LineUp(1)
	case "down", "j", "up", "k":
		m.table, cmd = m.table.Update(msg)
		m.updateViewportContent()
		return m, cmd
	case "ctrl+d":
		m.table.MoveDown(max(m.table.Height()/2, 1))
		m.updateViewportContent()
	case "ctrl+u":
		m.table.MoveUp(max(m.table.Height()/2, 1))
		m.updateViewportContent()
	case "ctrl+f", "pgdown":
		m.table.MoveDown(m.table.Height())
		m.updateViewportContent()
	case "ctrl+b", "pgup":
		m.table.MoveUp(m.table.Height())
		m.updateViewportContent()
	case "g":
		m.pendingKey = "g"
	case "home":
		m.table.GotoTop()
		m.updateViewportContent()
	case "G", "end":
		m.table.GotoBottom()
		m.updateViewportContent()
	}
	return m, nil
}
