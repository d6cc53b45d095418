// Package tui provides interactive terminal UI components.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lepinkainen/bookiebuddy/internal/catalog"
	"github.com/lepinkainen/bookiebuddy/internal/errors"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// SelectionAction represents the user's action in the selection UI.
type SelectionAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone SelectionAction = iota
	// ActionSelected indicates the user selected an item.
	ActionSelected
	// ActionSkipped indicates the user skipped the selection.
	ActionSkipped
	// ActionStopped indicates the user stopped processing entirely.
	ActionStopped
)

// SelectionResult holds the result of a TUI selection.
type SelectionResult struct {
	Action    SelectionAction
	Selection *catalog.Volume
}

type volumeItem struct {
	catalog.Volume
}

func (i volumeItem) Title() string {
	return catalog.Label(i.Volume)
}

func (i volumeItem) FilterValue() string {
	return i.VolumeInfo.Title
}

func (i volumeItem) Description() string {
	return catalog.Summary(i.Volume)
}

// palette for result cards; the highlighted card gets the accent border
var (
	accent = lipgloss.Color("214")
	muted  = lipgloss.Color("245")

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(lipgloss.Color("238")).
			PaddingLeft(1)
	activeCardStyle = cardStyle.Copy().BorderForeground(accent)

	shelfStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("110")).Bold(true)
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Bold(true)
	authorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("180")).Italic(true)
	metaStyle   = lipgloss.NewStyle().Foreground(muted).Faint(true)
	blurbStyle  = lipgloss.NewStyle().Foreground(muted)

	headerStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).MarginBottom(1)
	keyStyle    = lipgloss.NewStyle().Foreground(accent)
	helpStyle   = lipgloss.NewStyle().Foreground(muted).MarginTop(1)
)

type cardDelegate struct{}

func (cardDelegate) Height() int                         { return 5 }
func (cardDelegate) Spacing() int                        { return 1 }
func (cardDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (cardDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	v, ok := item.(volumeItem)
	if !ok {
		return
	}

	info := v.VolumeInfo
	shelf := "UNCATEGORIZED"
	if len(info.Categories) > 0 {
		shelf = strings.ToUpper(info.Categories[0])
	}
	by := "Unknown author"
	if len(info.Authors) > 0 {
		by = strings.Join(info.Authors, ", ")
	}
	width := m.Width() - 4

	card := cardStyle
	if idx == m.Index() {
		card = activeCardStyle
	}
	_, _ = fmt.Fprint(w, card.Render(strings.Join([]string{
		shelfStyle.Render("[" + shelf + "]"),
		titleStyle.Render(strings.ToUpper(info.Title)),
		authorStyle.Render(by),
		metaStyle.Render(formatMetadata(v.Volume, width)),
		blurbStyle.Render(truncate(catalog.Summary(v.Volume), width)),
	}, "\n")))
}

type model struct {
	list   list.Model
	query  string
	result SelectionResult
}

func newModel(query string, items []volumeItem) *model {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}

	l := list.New(listItems, cardDelegate{}, defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{
		list:   l,
		query:  query,
		result: SelectionResult{Action: ActionNone},
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(volumeItem); ok {
				v := selected.Volume
				m.result = SelectionResult{Action: ActionSelected, Selection: &v}
				return m, tea.Quit
			}
		case "s", "esc":
			m.result = SelectionResult{Action: ActionSkipped}
			return m, tea.Quit
		case "ctrl+c", "q":
			m.result = SelectionResult{Action: ActionStopped}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	keys := []string{
		keyStyle.Render("enter") + " pick",
		keyStyle.Render("s") + " skip",
		keyStyle.Render("q") + " stop",
	}
	return headerStyle.Render("Google Books results for: "+m.query) + "\n" +
		m.list.View() + "\n" +
		helpStyle.Render(strings.Join(keys, "  "))
}

// SelectVolume lets the user pick one of the catalog results for query.
// Without a terminal (interactive=false) the first result is chosen.
// Stopping returns a SelectionStoppedError alongside the ActionStopped result.
func SelectVolume(query string, volumes []catalog.Volume, interactive bool) (SelectionResult, error) {
	if len(volumes) == 0 {
		return SelectionResult{Action: ActionSkipped}, nil
	}

	if !interactive {
		v := volumes[0]
		return SelectionResult{Action: ActionSelected, Selection: &v}, nil
	}

	items := make([]volumeItem, len(volumes))
	for i, v := range volumes {
		items[i] = volumeItem{Volume: v}
	}

	finalModel, err := runProgram(newModel(query, items))
	if err != nil {
		return SelectionResult{}, err
	}

	typed, ok := finalModel.(*model)
	if !ok {
		return SelectionResult{}, fmt.Errorf("unexpected program result")
	}
	if typed.result.Action == ActionStopped {
		return typed.result, errors.NewSelectionStoppedError(query)
	}
	return typed.result, nil
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

// formatMetadata joins the publication year, page count and volume id
func formatMetadata(v catalog.Volume, availableWidth int) string {
	var parts []string

	if len(v.VolumeInfo.PublishedDate) >= 4 {
		parts = append(parts, v.VolumeInfo.PublishedDate[:4])
	}
	if v.VolumeInfo.PageCount > 0 {
		parts = append(parts, fmt.Sprintf("%d pages", v.VolumeInfo.PageCount))
	}
	if v.ID != "" {
		parts = append(parts, v.ID)
	}

	if len(parts) == 0 {
		return "No metadata available"
	}

	metadata := strings.Join(parts, " | ")
	if availableWidth > 0 && len(metadata) > availableWidth {
		metadata = truncate(metadata, availableWidth)
	}
	return metadata
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
