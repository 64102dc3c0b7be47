package tui

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"

	"github.com/weasel-sec/weasel/internal/audit"
	"github.com/weasel-sec/weasel/internal/report"
	"github.com/weasel-sec/weasel/internal/types"
)

var (
	tableBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	detailPaneBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	matchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	emptyTextStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15")).
			Align(lipgloss.Center)

	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("12")).
			Background(lipgloss.Color("235")).
			Padding(1, 4)

	sevHighStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	sevMedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	sevLowStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	sevGasStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

const defaultStatus = "q: quit | ?: help | j/k: navigate | o: open | r: rescan | b: baseline | y: copy"

// severityText returns plain text for severity (ANSI codes break table truncation).
func severityText(s types.Severity) string {
	switch s {
	case types.SevCritical:
		return "CRIT"
	case types.SevHigh:
		return "HIGH"
	case types.SevMedium:
		return "MED"
	case types.SevLow:
		return "LOW"
	case types.SevGas:
		return "GAS"
	default:
		return "NC"
	}
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd", int(d.Hours()/24))
	}
}

// item is one table row: a single location of a finding.
type item struct {
	finding int // index into Model.findings
	loc     types.Location
}

// groupRow is either a group header or an item in the grouped view.
type groupRow struct {
	isGroup bool
	key     string
	count   int
	item    int // index into Model.items when !isGroup
}

// Model represents the main state of the TUI application.
type Model struct {
	table       table.Model
	viewport    viewport.Model
	spinner     spinner.Model
	searchInput textinput.Model

	root         string // project root, used to resolve paths for context
	baselinePath string
	findings     []types.Finding
	items        []item
	visible      []int           // indices into items after filters (nil = all)
	baselinedSet map[string]bool // fingerprints of baselined locations
	prefs        Prefs

	quitting        bool
	ready           bool // terminal dimensions are known
	scanning        bool
	viewingCached   bool
	lastScanTime    time.Time
	height, width   int
	statusMessage   string
	statusTimeout   *time.Time
	rescanFunc      func() ([]types.Finding, error)
	showHelp        bool
	showExportMenu  bool
	showScanHistory bool
	scanHistory     []audit.ScanRecord
	historySel      int

	searchMode     bool
	searchQuery    string
	severityFilter *types.Severity

	sortColumn  string
	sortReverse bool

	selected map[int]bool // item indices

	contextLines int

	groupMode  string
	expanded   map[string]bool
	groupRows  []groupRow
	pendingKey string // for multi-key sequences like "gf", "gd"
}

const (
	SortDefault  = ""
	SortSeverity = "severity"
	SortPath     = "path"
	SortDetector = "detector"
)

const (
	GroupNone       = "none"
	GroupByFile     = "file"
	GroupByDetector = "detector"
)

// Options configures a Model beyond its findings.
type Options struct {
	Root         string
	BaselinePath string
	Baseline     report.Baseline
	Rescan       func() ([]types.Finding, error)
	// CachedAt marks the findings as loaded from an earlier scan.
	CachedAt time.Time
}

// NewModel initializes a new TUI model.
func NewModel(findings []types.Finding, opts Options) Model {
	columns := []table.Column{
		{Title: "Sev", Width: 8},
		{Title: "Detector", Width: 28},
		{Title: "Location", Width: 36},
		{Title: "Snippet", Width: 35},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Left)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)
	s.Cell = lipgloss.NewStyle().Padding(0, 1)
	t.SetStyles(s)

	// Line spinner avoids Braille characters that render poorly on some terminals
	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	ti := textinput.New()
	ti.Placeholder = "Search path, detector, or snippet..."
	ti.CharLimit = 100
	ti.Width = 50
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))

	root := opts.Root
	if root == "" {
		root = "."
	}
	baselinePath := opts.BaselinePath
	if baselinePath == "" {
		baselinePath = filepath.Join(root, "weasel.baseline.json")
	}
	prefs := LoadPrefs()

	m := Model{
		table:         t,
		spinner:       sp,
		searchInput:   ti,
		root:          root,
		baselinePath:  baselinePath,
		baselinedSet:  map[string]bool{},
		prefs:         prefs,
		rescanFunc:    opts.Rescan,
		lastScanTime:  time.Now(),
		selected:      map[int]bool{},
		contextLines:  prefs.ContextLines,
		groupMode:     GroupNone,
		expanded:      map[string]bool{},
		statusMessage: defaultStatus,
	}
	for k := range opts.Baseline.Items {
		m.baselinedSet[k] = true
	}
	if !opts.CachedAt.IsZero() {
		m.viewingCached = true
		m.lastScanTime = opts.CachedAt
	}
	m.setFindings(findings)

	if n := m.baselinedCount(); n > 0 {
		m.statusMessage = fmt.Sprintf("%d new, %d baselined | %s", len(m.items)-n, n, defaultStatus)
	}
	return m
}

// setFindings flattens findings into one row per location.
func (m *Model) setFindings(findings []types.Finding) {
	m.findings = findings
	m.items = m.items[:0]
	for i, f := range findings {
		for _, loc := range f.Locations {
			m.items = append(m.items, item{finding: i, loc: loc})
		}
	}
	m.selected = map[int]bool{}
	m.sortItems()
}

func (m *Model) isBaselined(it item) bool {
	return m.baselinedSet[report.Fingerprint(m.findings[it.finding].DetectorID, it.loc)]
}

func (m *Model) baselinedCount() int {
	n := 0
	for _, it := range m.items {
		if m.isBaselined(it) {
			n++
		}
	}
	return n
}

func (m *Model) applyFilters() {
	if m.searchQuery == "" && m.severityFilter == nil && !m.prefs.HideBaselined {
		m.visible = nil
		m.rebuildTableRows()
		return
	}

	query := strings.ToLower(m.searchQuery)
	visible := []int{}
	for i, it := range m.items {
		f := m.findings[it.finding]
		if m.severityFilter != nil && f.Severity != *m.severityFilter {
			continue
		}
		if m.prefs.HideBaselined && m.isBaselined(it) {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(it.loc.Path), query) &&
			!strings.Contains(strings.ToLower(f.DetectorID), query) &&
			!strings.Contains(strings.ToLower(f.Name), query) &&
			!strings.Contains(strings.ToLower(it.loc.Snippet), query) {
			continue
		}
		visible = append(visible, i)
	}
	m.visible = visible
	m.rebuildTableRows()
}

func (m *Model) clearFilters() {
	m.searchQuery = ""
	m.searchInput.SetValue("")
	m.severityFilter = nil
	m.applyFilters()
}

func (m *Model) setSeverityFilter(s types.Severity) {
	m.severityFilter = &s
	m.applyFilters()
}

// displayIndices returns the item indices currently shown, in order.
func (m *Model) displayIndices() []int {
	if m.visible != nil {
		return m.visible
	}
	all := make([]int, len(m.items))
	for i := range all {
		all[i] = i
	}
	return all
}

// displayFindings regroups the shown rows into findings, for export.
func (m *Model) displayFindings() []types.Finding {
	var out []types.Finding
	pos := map[int]int{}
	for _, idx := range m.displayIndices() {
		it := m.items[idx]
		p, ok := pos[it.finding]
		if !ok {
			f := m.findings[it.finding]
			f.Locations = nil
			p = len(out)
			pos[it.finding] = p
			out = append(out, f)
		}
		out[p].Locations = append(out[p].Locations, it.loc)
	}
	for i := range out {
		sort.SliceStable(out[i].Locations, func(a, b int) bool { return out[i].Locations[a].Less(out[i].Locations[b]) })
	}
	return out
}

func (m *Model) rowFor(idx int, prefix string) table.Row {
	it := m.items[idx]
	f := m.findings[it.finding]
	sev := severityText(f.Severity)
	if m.isBaselined(it) {
		sev = "(b) " + sev
	}
	if len(m.selected) > 0 {
		if m.selected[idx] {
			sev = "[x] " + sev
		} else {
			sev = "[ ] " + sev
		}
	}
	return table.Row{
		prefix + sev,
		f.DetectorID,
		fmt.Sprintf("%s:%d", it.loc.Path, it.loc.Line),
		firstLine(it.loc.Snippet),
	}
}

func (m *Model) rebuildTableRows() {
	var rows []table.Row
	if m.groupMode != GroupNone {
		m.buildGroupRows()
		rows = make([]table.Row, len(m.groupRows))
		for i, g := range m.groupRows {
			if g.isGroup {
				icon := "+"
				if m.expanded[g.key] {
					icon = "-"
				}
				rows[i] = table.Row{icon, "", fmt.Sprintf("%s [%d]", g.key, g.count), ""}
			} else {
				rows[i] = m.rowFor(g.item, "  ")
			}
		}
	} else {
		idxs := m.displayIndices()
		rows = make([]table.Row, len(idxs))
		for i, idx := range idxs {
			rows[i] = m.rowFor(idx, "")
		}
	}
	m.table.SetRows(rows)
	if m.table.Cursor() >= len(rows) {
		m.table.SetCursor(0)
	}
	m.updateViewportContent()
}

func severityRank(s types.Severity) int {
	return int(types.SevCritical - s)
}

func (m *Model) cycleSortColumn() {
	switch m.sortColumn {
	case SortDefault:
		m.sortColumn = SortSeverity
	case SortSeverity:
		m.sortColumn = SortPath
	case SortPath:
		m.sortColumn = SortDetector
	default:
		m.sortColumn = SortDefault
	}
	m.sortReverse = false
	m.sortItems()
}

func (m *Model) toggleSortReverse() {
	m.sortReverse = !m.sortReverse
	m.sortItems()
}

// sortItems orders rows and re-applies filters. The default order is the
// scan order: severity, detector, then location.
func (m *Model) sortItems() {
	selected := make([]item, 0, len(m.selected))
	for idx := range m.selected {
		selected = append(selected, m.items[idx])
	}

	less := func(a, b item) bool {
		fa, fb := m.findings[a.finding], m.findings[b.finding]
		switch m.sortColumn {
		case SortPath:
			if a.loc.Path != b.loc.Path {
				return strings.ToLower(a.loc.Path) < strings.ToLower(b.loc.Path)
			}
			return a.loc.Less(b.loc)
		case SortDetector:
			return fa.DetectorID < fb.DetectorID
		case SortSeverity:
			return severityRank(fa.Severity) < severityRank(fb.Severity)
		default:
			if a.finding != b.finding {
				return a.finding < b.finding
			}
			return a.loc.Less(b.loc)
		}
	}
	sort.SliceStable(m.items, func(i, j int) bool {
		if m.sortReverse {
			return less(m.items[j], m.items[i])
		}
		return less(m.items[i], m.items[j])
	})

	if len(selected) > 0 {
		m.selected = map[int]bool{}
		for i, it := range m.items {
			for _, s := range selected {
				if it == s {
					m.selected[i] = true
				}
			}
		}
	}
	m.applyFilters()
}

func (m *Model) getSortIndicator() string {
	if m.sortColumn == SortDefault {
		return ""
	}
	arrow := "^"
	if m.sortReverse {
		arrow = "v"
	}
	return fmt.Sprintf(" [%s %s]", m.sortColumn, arrow)
}

// jumpToNextSeverity moves to the next row with the given severity
// (direction: 1=forward, -1=backward).
func (m *Model) jumpToNextSeverity(severity types.Severity, direction int) bool {
	if m.groupMode != GroupNone {
		return false
	}
	idxs := m.displayIndices()
	n := len(idxs)
	if n == 0 {
		return false
	}
	current := m.table.Cursor()
	for i := 1; i <= n; i++ {
		pos := ((current+direction*i)%n + n) % n
		if m.findings[m.items[idxs[pos]].finding].Severity == severity {
			m.table.SetCursor(pos)
			return true
		}
	}
	return false
}

func (m *Model) setGroupMode(mode string) {
	m.expanded = map[string]bool{}
	if m.groupMode == mode {
		m.groupMode = GroupNone
		m.groupRows = nil
	} else {
		m.groupMode = mode
		m.buildGroupRows()
		for _, g := range m.groupRows {
			m.expanded[g.key] = true
		}
	}
	m.rebuildTableRows()
}

func (m *Model) groupKey(idx int) string {
	it := m.items[idx]
	if m.groupMode == GroupByFile {
		return it.loc.Path
	}
	return m.findings[it.finding].DetectorID
}

func (m *Model) buildGroupRows() {
	m.groupRows = nil
	if m.groupMode == GroupNone {
		return
	}
	members := map[string][]int{}
	var order []string
	for _, idx := range m.displayIndices() {
		k := m.groupKey(idx)
		if _, ok := members[k]; !ok {
			order = append(order, k)
		}
		members[k] = append(members[k], idx)
	}
	for _, k := range order {
		m.groupRows = append(m.groupRows, groupRow{isGroup: true, key: k, count: len(members[k])})
		if m.expanded[k] {
			for _, idx := range members[k] {
				m.groupRows = append(m.groupRows, groupRow{key: k, item: idx})
			}
		}
	}
}

func (m *Model) toggleGroupExpansion() {
	idx := m.table.Cursor()
	if m.groupMode == GroupNone || idx < 0 || idx >= len(m.groupRows) {
		return
	}
	key := m.groupRows[idx].key
	m.expanded[key] = !m.expanded[key]
	m.rebuildTableRows()
}

// selectedIndex returns the item index under the cursor, or -1 on a group
// header or an empty table.
func (m *Model) selectedIndex() int {
	cur := m.table.Cursor()
	if m.groupMode != GroupNone {
		if cur < 0 || cur >= len(m.groupRows) || m.groupRows[cur].isGroup {
			return -1
		}
		return m.groupRows[cur].item
	}
	idxs := m.displayIndices()
	if cur < 0 || cur >= len(idxs) {
		return -1
	}
	return idxs[cur]
}

func (m *Model) toggleSelection() {
	idx := m.selectedIndex()
	if idx < 0 {
		return
	}
	if m.selected[idx] {
		delete(m.selected, idx)
	} else {
		m.selected[idx] = true
	}
	m.rebuildTableRows()
}

func (m *Model) toggleSelectAll() {
	idxs := m.displayIndices()
	all := len(idxs) > 0
	for _, idx := range idxs {
		if !m.selected[idx] {
			all = false
			break
		}
	}
	m.selected = map[int]bool{}
	if !all {
		for _, idx := range idxs {
			m.selected[idx] = true
		}
	}
	m.rebuildTableRows()
}

func (m *Model) expandContext() {
	m.contextLines = min(m.contextLines+2, maxContext)
	m.prefs.ContextLines = m.contextLines
	m.updateViewportContent()
}

func (m *Model) contractContext() {
	m.contextLines = max(m.contextLines-2, minContext)
	m.prefs.ContextLines = m.contextLines
	m.updateViewportContent()
}

// resolve maps a root-relative finding path to a filesystem path.
func (m *Model) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(m.root, filepath.FromSlash(p))
}

func readFileContext(path string, targetLine int, contextLines int) ([]string, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()

	startLine := max(targetLine-contextLines, 1)
	endLine := targetLine + contextLines

	var lines []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	n := 0
	for scanner.Scan() {
		n++
		if n < startLine {
			continue
		}
		if n > endLine {
			break
		}
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	if len(lines) == 0 {
		return nil, 0, fmt.Errorf("line %d out of range", targetLine)
	}
	return lines, startLine, nil
}

func lexerFor(filename string) chroma.Lexer {
	lexer := lexers.Match(filename)
	if lexer == nil && strings.EqualFold(filepath.Ext(filename), ".sol") {
		lexer = lexers.Get("solidity")
	}
	return lexer
}

func highlightCode(code string, filename string) string {
	lexer := lexerFor(filename)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return buf.String()
}

func highlightLine(line string, filename string) string {
	lexer := lexerFor(filename)
	if lexer == nil {
		return line // No highlighting for unknown file types
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return line
	}

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimRight(s[:i], "\r") + " …"
	}
	return s
}

func (m *Model) updateViewportContent() {
	if !m.ready {
		return
	}
	cur := m.table.Cursor()
	if m.groupMode != GroupNone && cur >= 0 && cur < len(m.groupRows) && m.groupRows[cur].isGroup {
		g := m.groupRows[cur]
		var b strings.Builder
		fmt.Fprintf(&b, "%s\n\n", titleStyle.Render("Group Summary"))
		fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Group:"), g.key)
		fmt.Fprintf(&b, "%s %d\n", keyStyle.Render("Locations:"), g.count)
		hint := "Press Tab to expand this group"
		if m.expanded[g.key] {
			hint = "Press Tab to collapse this group"
		}
		fmt.Fprintf(&b, "\n%s\n", dimStyle.Render(hint))
		m.viewport.SetContent(b.String())
		return
	}
	idx := m.selectedIndex()
	if idx < 0 {
		m.viewport.SetContent("")
		return
	}
	m.viewport.SetContent(m.detailContent(m.items[idx]))
}

func (m *Model) detailContent(it item) string {
	f := m.findings[it.finding]
	loc := it.loc
	wrap := lipgloss.NewStyle().Width(max(m.width-4, 20))

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n\n", titleStyle.Render(f.Name))
	if m.isBaselined(it) {
		b.WriteString(dimStyle.Italic(true).Render("BASELINED: This location is known/accepted. Press 'U' to remove from baseline."))
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Detector:"), f.DetectorID)
	fmt.Fprintf(&b, "%s %s\n", keyStyle.Render("Severity:"), f.Severity.Title())
	fmt.Fprintf(&b, "%s %s:%d:%d\n", keyStyle.Render("Location:"), loc.Path, loc.Line, loc.Column)
	fmt.Fprintf(&b, "%s %d\n", keyStyle.Render("Instances:"), len(f.Locations))
	if f.GasSavings > 0 {
		fmt.Fprintf(&b, "%s ~%d gas\n", keyStyle.Render("Gas savings:"), f.GasSavings)
	}
	fmt.Fprintf(&b, "\n%s\n", wrap.Render(f.Description))

	contextHint := fmt.Sprintf(" (+/- to expand/contract, showing %d lines)", m.contextLines*2+1)
	fmt.Fprintf(&b, "\n%s%s\n", keyStyle.Render("Context:"), dimStyle.Render(contextHint))

	lines, startLine, err := readFileContext(m.resolve(loc.Path), loc.Line, m.contextLines)
	if err == nil {
		lineNumStyle := dimStyle
		currentLineStyle := lipgloss.NewStyle().Background(lipgloss.Color("236"))
		endLine := max(loc.EndLine, loc.Line)
		for i, line := range lines {
			n := startLine + i
			prefix := lineNumStyle.Render(fmt.Sprintf("%4d ", n))
			hl := highlightLine(line, loc.Path)
			if n >= loc.Line && n <= endLine {
				if loc.Snippet != "" && !strings.Contains(loc.Snippet, "\n") {
					hl = strings.ReplaceAll(hl, loc.Snippet, matchStyle.Render(loc.Snippet))
				}
				b.WriteString(prefix + currentLineStyle.Render(hl) + "\n")
			} else {
				b.WriteString(prefix + hl + "\n")
			}
		}
	} else {
		b.WriteString(highlightCode(loc.Snippet, loc.Path))
		b.WriteString("\n")
	}

	if f.Example != "" {
		fmt.Fprintf(&b, "\n%s\n%s\n", keyStyle.Render("Recommendation:"), highlightCode(f.Example, loc.Path))
	}
	return b.String()
}

func (m *Model) setStatus(msg string, d time.Duration) {
	timeout := time.Now().Add(d)
	m.statusTimeout = &timeout
	m.statusMessage = msg
}
