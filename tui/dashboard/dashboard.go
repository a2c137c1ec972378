// Package dashboard implements the interactive todo list TUI. It is a pure
// consumer of the session and todos stores: every mutation goes through a
// store operation and the view re-reads store snapshots on change.
package dashboard

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskwell/core/pkg/models"
	"github.com/taskwell/core/pkg/notify"
	"github.com/taskwell/core/pkg/session"
	"github.com/taskwell/core/pkg/todos"
	"github.com/taskwell/core/tui/theme"
)

const (
	boxChecked   = "✔"
	boxUnchecked = "☐"
)

// listItem adapts a models.Todo to bubbles/list.Item.
type listItem struct {
	todo models.Todo
}

func (i listItem) Title() string       { return i.todo.Title }
func (i listItem) Description() string { return i.todo.Description }
func (i listItem) FilterValue() string { return i.todo.Title }

// itemDelegate renders a todo on a single line.
type itemDelegate struct {
	th *theme.Theme
}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, ok := item.(listItem)
	if !ok {
		return
	}

	box := d.th.Muted.Render(boxUnchecked)
	text := it.todo.Title
	if it.todo.Complete {
		box = d.th.Success.Render(boxChecked)
		text = d.th.Done.Render(text)
	}
	prio := d.th.Muted.Render(fmt.Sprintf("P%d", it.todo.Priority))

	prefix := "  "
	if index == m.Index() {
		prefix = d.th.Accent.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s %s\n", prefix, box, prio, text)
}

// storeChangedMsg arrives whenever a store or the notification queue
// publishes a change.
type storeChangedMsg struct{}

// opDoneMsg arrives when an async store operation finishes.
type opDoneMsg struct{}

// Model is the bubbletea model for the dashboard.
type Model struct {
	session  *session.Store
	todos    *todos.Store
	notifier *notify.Queue
	th       *theme.Theme

	list list.Model
	ti   textinput.Model

	adding  bool
	editing bool
	editID  int

	// changes fans external store updates into the event loop. Buffered so
	// callbacks never block a store operation.
	changes chan struct{}

	width  int
	height int
}

// New builds the dashboard model and subscribes it to store changes.
func New(sess *session.Store, td *todos.Store, nq *notify.Queue) *Model {
	th := theme.DefaultTheme

	l := list.New(nil, itemDelegate{th: th}, 0, 0)
	l.Title = "Tasks"
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("task", "tasks")
	l.FilterInput.Prompt = "/ "

	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind := key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	toggleBind := key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteBind := key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	refreshBind := key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
	extra := func() []key.Binding {
		return []key.Binding{addBind, editBind, toggleBind, deleteBind, refreshBind}
	}
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 100

	m := &Model{
		session:  sess,
		todos:    td,
		notifier: nq,
		th:       th,
		list:     l,
		ti:       ti,
		changes:  make(chan struct{}, 16),
	}

	notifyChange := func() {
		select {
		case m.changes <- struct{}{}:
		default:
		}
	}
	td.Subscribe(notifyChange)
	nq.Subscribe(notifyChange)

	return m
}

// Run starts the dashboard program and blocks until the user quits.
func Run(sess *session.Store, td *todos.Store, nq *notify.Queue) error {
	p := tea.NewProgram(New(sess, td, nq), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), m.waitForChange())
}

// waitForChange blocks on the change channel so external store updates
// (background reconciles, expiring notifications) re-render the view.
func (m *Model) waitForChange() tea.Cmd {
	return func() tea.Msg {
		<-m.changes
		return storeChangedMsg{}
	}
}

func (m *Model) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		_ = m.todos.FetchAll(context.Background())
		return opDoneMsg{}
	}
}

func (m *Model) selected() (models.Todo, bool) {
	item, ok := m.list.SelectedItem().(listItem)
	if !ok {
		return models.Todo{}, false
	}
	return item.todo, true
}

func (m *Model) syncItems() {
	items := m.todos.Items()
	li := make([]list.Item, 0, len(items))
	for _, t := range items {
		li = append(li, listItem{todo: t})
	}
	m.list.SetItems(li)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(msg.Width-2, msg.Height-6)
		return m, nil

	case storeChangedMsg:
		m.syncItems()
		return m, m.waitForChange()

	case opDoneMsg:
		m.syncItems()
		return m, nil

	case tea.KeyMsg:
		if m.adding || m.editing {
			return m.updateInput(msg)
		}
		return m.updateList(msg)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		title := strings.TrimSpace(m.ti.Value())
		m.ti.SetValue("")
		m.ti.Blur()

		if m.adding {
			m.adding = false
			if len(title) < 3 {
				return m, nil
			}
			draft := models.CreateTodoRequest{Title: title, Description: title, Priority: 3}
			return m, func() tea.Msg {
				m.todos.Create(context.Background(), draft)
				return opDoneMsg{}
			}
		}

		m.editing = false
		id := m.editID
		if len(title) < 3 {
			return m, nil
		}
		todo, ok := m.findByID(id)
		if !ok {
			return m, nil
		}
		patch := models.UpdateRequestFromTodo(todo)
		patch.Title = title
		return m, func() tea.Msg {
			m.todos.Update(context.Background(), id, patch)
			return opDoneMsg{}
		}

	case "esc":
		m.adding = false
		m.editing = false
		m.ti.SetValue("")
		m.ti.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Keystrokes belong to the filter prompt while it is open.
	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ":
		todo, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			m.todos.ToggleComplete(context.Background(), todo)
			return opDoneMsg{}
		}

	case "d":
		todo, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			m.todos.Delete(context.Background(), todo.ID)
			return opDoneMsg{}
		}

	case "a":
		m.adding = true
		m.ti.Placeholder = "New task title..."
		m.ti.Focus()
		return m, nil

	case "e":
		todo, ok := m.selected()
		if !ok {
			return m, nil
		}
		m.editing = true
		m.editID = todo.ID
		m.ti.Placeholder = "Edit task title..."
		m.ti.SetValue(todo.Title)
		m.ti.CursorEnd()
		m.ti.Focus()
		return m, nil

	case "r":
		return m, m.fetchCmd()
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) findByID(id int) (models.Todo, bool) {
	for _, t := range m.todos.Items() {
		if t.ID == id {
			return t, true
		}
	}
	return models.Todo{}, false
}

func (m *Model) View() string {
	var b strings.Builder

	if user := m.session.User(); user != nil {
		b.WriteString(m.th.Muted.Render("Logged in as "+user.Username) + "\n")
	}

	b.WriteString(m.list.View())

	if m.adding || m.editing {
		title := "Add task"
		if m.editing {
			title = "Edit task"
		}
		b.WriteString("\n" + m.th.Box.Render(title+"\n"+m.ti.View()))
	}

	if footer := m.renderNotifications(); footer != "" {
		b.WriteString("\n" + footer)
	}

	if m.todos.LoadStatus() == todos.StatusFailed {
		b.WriteString("\n" + m.th.Error.Render(m.todos.LastError()))
	}

	return b.String()
}

// renderNotifications stacks the visible queue entries, newest last.
func (m *Model) renderNotifications() string {
	entries := m.notifier.Notifications()
	if len(entries) == 0 {
		return ""
	}
	lines := make([]string, 0, len(entries))
	for _, n := range entries {
		lines = append(lines, theme.RenderStatus(string(n.Severity), n.Message))
	}
	return strings.Join(lines, "\n")
}
