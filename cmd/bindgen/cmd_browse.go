package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse declared functions in an interactive table",
	RunE: func(cmd *cobra.Command, args []string) error {
		mods, err := loadModules(cmd.Context(), cfg, flagTemplateDirs, flagFiles)
		if err != nil {
			return err
		}
		p := tea.NewProgram(newBrowseModel(allFunctions(mods)), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

type browseState int

const (
	browseList browseState = iota
	browseFilter
	browseDetail
)

var (
	styleBase = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			Padding(0, 1)

	styleHelp = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Padding(0, 1)

	styleDetail = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Padding(1, 3).
			MarginLeft(2)
)

type browseModel struct {
	table   table.Model
	filter  textinput.Model
	all     []funcRef
	visible []funcRef
	state   browseState
}

func newBrowseModel(refs []funcRef) browseModel {
	columns := []table.Column{
		{Title: "MODULE", Width: 26},
		{Title: "FUNCTION", Width: 32},
		{Title: "BINDING", Width: 14},
		{Title: "RETURNS", Width: 18},
		{Title: "PARAMS", Width: 6},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(18),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true).
		Foreground(lipgloss.Color("99"))
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	in := textinput.New()
	in.Prompt = "/ "
	in.Placeholder = "filter by module or function"

	m := browseModel{table: t, filter: in, all: refs}
	m.applyFilter()
	return m
}

func toBrowseRows(refs []funcRef) []table.Row {
	rows := make([]table.Row, len(refs))
	for i, r := range refs {
		binding := r.fn.Binding.String()
		if r.fn.Optional {
			binding += "?"
		}
		rows[i] = table.Row{r.mod.Name, r.fn.Name, binding, r.fn.Return.String(), fmt.Sprintf("%d", len(r.fn.Params))}
	}
	return rows
}

// applyFilter keeps the functions whose qualified name contains the filter
// text, case-insensitively.
func (m *browseModel) applyFilter() {
	q := strings.ToLower(m.filter.Value())
	m.visible = m.visible[:0]
	for _, r := range m.all {
		if q == "" || strings.Contains(strings.ToLower(r.String()), q) {
			m.visible = append(m.visible, r)
		}
	}
	m.table.SetRows(toBrowseRows(m.visible))
	m.table.SetCursor(0)
}

func (m browseModel) selected() (funcRef, bool) {
	idx := m.table.Cursor()
	if idx < 0 || idx >= len(m.visible) {
		return funcRef{}, false
	}
	return m.visible[idx], true
}

func (m browseModel) Init() tea.Cmd {
	return nil
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case browseFilter:
		return m.updateFilter(msg)
	case browseDetail:
		return m.updateDetail(msg)
	}
	return m.updateList(msg)
}

func (m browseModel) updateList(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "/":
			m.state = browseFilter
			m.table.Blur()
			return m, m.filter.Focus()
		case "enter":
			if _, ok := m.selected(); ok {
				m.state = browseDetail
			}
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m browseModel) updateFilter(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "esc":
			m.filter.SetValue("")
			m.applyFilter()
			fallthrough
		case "enter":
			m.state = browseList
			m.filter.Blur()
			m.table.Focus()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m browseModel) updateDetail(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc", "enter":
			m.state = browseList
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	title := styleTitle.Render(fmt.Sprintf("%s  %d/%d functions", strings.ToUpper(appName), len(m.visible), len(m.all)))
	tableView := styleBase.Render(m.table.View())

	switch m.state {
	case browseFilter:
		return title + "\n" + tableView + "\n" + m.filter.View()
	case browseDetail:
		r, _ := m.selected()
		var b strings.Builder
		describeFunction(&b, r)
		help := styleHelp.Render("esc  back    q  quit")
		return title + "\n" + styleDetail.Render(strings.TrimRight(b.String(), "\n")) + "\n" + help
	}
	help := styleHelp.Render("↑/↓  navigate    enter  details    /  filter    q  quit")
	if f := m.filter.Value(); f != "" {
		help = styleHelp.Render("filter: "+f) + "\n" + help
	}
	return title + "\n" + tableView + "\n" + help
}

