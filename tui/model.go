// Package tui renders the task board as a three column terminal UI. Column
// focus and cursor movement stay local; moving a card across columns goes
// through the board controller, which pushes the status change to the server
// and rolls the move back if that fails.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"taskboard/board"
	"taskboard/domain"
)

const commitTimeout = 30 * time.Second

type mode int

const (
	modeBoard mode = iota
	modeForm
)

type tasksLoadedMsg struct{ err error }

type commitDoneMsg struct{ err error }

type Model struct {
	ctrl *board.Controller

	mode    mode
	form    form
	focus   int   // focused column, index into domain.StatusOrder
	cursors []int // cursor per column

	width  int
	height int

	status string // transient message shown in the footer
	isErr  bool
}

func NewModel(ctrl *board.Controller) Model {
	return Model{
		ctrl:    ctrl,
		cursors: make([]int, len(domain.StatusOrder)),
	}
}

func (m Model) Init() tea.Cmd {
	return loadCmd(m.ctrl)
}

func loadCmd(ctrl *board.Controller) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		return tasksLoadedMsg{err: ctrl.Load(ctx)}
	}
}

func commitCmd(commit board.Commit) tea.Cmd {
	if commit == nil {
		return nil
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), commitTimeout)
		defer cancel()
		return commitDoneMsg{err: commit(ctx)}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tasksLoadedMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.isErr = true
			return m, nil
		}
		m.status = ""
		m.isErr = false
		m.clampCursors()
		return m, nil
	case commitDoneMsg:
		if msg.err != nil {
			m.status = msg.err.Error()
			m.isErr = true
		} else {
			m.status = ""
			m.isErr = false
		}
		m.clampCursors()
		return m, nil
	}

	if m.mode == modeForm {
		return m.updateForm(msg)
	}
	return m.updateBoard(msg)
}

func (m Model) updateBoard(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	cols := m.ctrl.Columns()
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "left", "h":
		if m.focus > 0 {
			m.focus--
		}
	case "right", "l":
		if m.focus < len(cols)-1 {
			m.focus++
		}
	case "up", "k":
		if m.cursors[m.focus] > 0 {
			m.cursors[m.focus]--
		}
	case "down", "j":
		if m.cursors[m.focus] < len(cols[m.focus].Tasks)-1 {
			m.cursors[m.focus]++
		}
	case "K", "shift+up":
		return m.reorder(-1)
	case "J", "shift+down":
		return m.reorder(1)
	case "H", "shift+left", "[":
		return m.moveAcross(-1)
	case "L", "shift+right", "]":
		return m.moveAcross(1)
	case "a":
		m.mode = modeForm
		m.form = newForm(domain.Task{Status: cols[m.focus].ID}, false)
		return m, m.form.focusCmd()
	case "e":
		if task, ok := m.taskUnderCursor(cols); ok {
			m.mode = modeForm
			m.form = newForm(task, true)
			return m, m.form.focusCmd()
		}
	case "d":
		if task, ok := m.taskUnderCursor(cols); ok {
			commit, err := m.ctrl.DeleteTask(task.ID)
			if err != nil {
				return m.fail(err)
			}
			m.clampCursors()
			return m, commitCmd(commit)
		}
	case "r":
		return m, loadCmd(m.ctrl)
	}
	return m, nil
}

// reorder moves the card under the cursor up or down within its column. This
// is a local rearrangement; nothing is sent to the server.
func (m Model) reorder(delta int) (tea.Model, tea.Cmd) {
	cols := m.ctrl.Columns()
	col := cols[m.focus]
	idx := m.cursors[m.focus]
	if idx < 0 || idx >= len(col.Tasks) {
		return m, nil
	}
	target := idx + delta
	if target < 0 || target >= len(col.Tasks) {
		return m, nil
	}
	_, err := m.ctrl.DragEnd(board.Drag{
		TaskID:      col.Tasks[idx].ID,
		Source:      board.Position{Column: col.ID, Index: idx},
		Destination: &board.Position{Column: col.ID, Index: target},
	})
	if err != nil {
		return m.fail(err)
	}
	m.cursors[m.focus] = target
	return m, nil
}

// moveAcross drops the card under the cursor into the adjacent column at the
// cursor's row there, committing the status change to the server.
func (m Model) moveAcross(delta int) (tea.Model, tea.Cmd) {
	cols := m.ctrl.Columns()
	dst := m.focus + delta
	if dst < 0 || dst >= len(cols) {
		return m, nil
	}
	col := cols[m.focus]
	idx := m.cursors[m.focus]
	if idx < 0 || idx >= len(col.Tasks) {
		return m, nil
	}
	destIdx := m.cursors[dst]
	commit, err := m.ctrl.DragEnd(board.Drag{
		TaskID:      col.Tasks[idx].ID,
		Source:      board.Position{Column: col.ID, Index: idx},
		Destination: &board.Position{Column: cols[dst].ID, Index: destIdx},
	})
	if err != nil {
		return m.fail(err)
	}
	m.focus = dst
	m.clampCursors()
	return m, commitCmd(commit)
}

func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	m.status = err.Error()
	m.isErr = true
	return m, nil
}

func (m Model) taskUnderCursor(cols []board.Column) (domain.Task, bool) {
	col := cols[m.focus]
	idx := m.cursors[m.focus]
	if idx < 0 || idx >= len(col.Tasks) {
		return domain.Task{}, false
	}
	return col.Tasks[idx], true
}

func (m *Model) clampCursors() {
	cols := m.ctrl.Columns()
	for i := range m.cursors {
		if n := len(cols[i].Tasks); m.cursors[i] >= n {
			m.cursors[i] = n - 1
		}
		if m.cursors[i] < 0 {
			m.cursors[i] = 0
		}
	}
}

func (m Model) View() string {
	if m.mode == modeForm {
		return m.form.view(m.width)
	}

	cols := m.ctrl.Columns()
	colWidth := 30
	if m.width > 0 {
		colWidth = m.width/len(cols) - 4
		if colWidth < 20 {
			colWidth = 20
		}
	}

	rendered := make([]string, 0, len(cols))
	for i, col := range cols {
		rendered = append(rendered, m.renderColumn(col, i, colWidth))
	}
	boardView := lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
	return boardView + "\n" + m.footer()
}

func (m Model) renderColumn(col board.Column, index, width int) string {
	header := titleStyle.Render(col.Label) + mutedStyle.Render(fmt.Sprintf("  (%d)", len(col.Tasks)))
	lines := header + "\n"
	if len(col.Tasks) == 0 {
		lines += mutedStyle.Render("no tasks")
	}
	for i, task := range col.Tasks {
		card := task.Title
		if task.HasFile() {
			card += " " + attachStyle.Render("🖇")
		}
		style := cardStyle
		if index == m.focus && i == m.cursors[index] {
			style = selectedCardStyle
		}
		lines += style.Width(width - 4).Render(card)
		if i < len(col.Tasks)-1 {
			lines += "\n"
		}
	}

	style := columnStyle
	if index == m.focus {
		style = focusedColumnStyle
	}
	return style.Width(width).Render(lines)
}

func (m Model) footer() string {
	help := helpStyle.Render("h/l move  j/k select  J/K reorder  H/L change status  a add  e edit  d delete  r refresh  q quit")
	if m.ctrl.Pending() {
		return pendingStyle.Render("saving...") + "\n" + help
	}
	if m.status != "" {
		style := mutedStyle
		if m.isErr {
			style = errorStyle
		}
		return style.Render(m.status) + "\n" + help
	}
	return help
}
