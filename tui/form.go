package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskboard/board"
	"taskboard/domain"
)

const (
	fieldTitle = iota
	fieldDescription
	fieldAttachment
	fieldCount
)

// form is the inline add/edit dialog. Attachment takes a local path to
// upload; leaving it empty on edit keeps the existing file reference.
type form struct {
	inputs  [fieldCount]textinput.Model
	focused int
	editing bool
	task    domain.Task // original record when editing
	errMsg  string
}

func newForm(task domain.Task, editing bool) form {
	f := form{editing: editing, task: task}

	title := textinput.New()
	title.Prompt = "> "
	title.Placeholder = "Task title..."
	title.CharLimit = 200
	title.SetValue(task.Title)

	desc := textinput.New()
	desc.Prompt = "> "
	desc.Placeholder = "Description..."
	desc.CharLimit = 2000
	desc.SetValue(task.Description)

	attach := textinput.New()
	attach.Prompt = "> "
	attach.Placeholder = "Path to a file to attach (optional)..."

	f.inputs[fieldTitle] = title
	f.inputs[fieldDescription] = desc
	f.inputs[fieldAttachment] = attach
	return f
}

func (f *form) focusCmd() tea.Cmd {
	return f.inputs[f.focused].Focus()
}

func (f *form) draft() board.Draft {
	draft := board.Draft{
		Title:       strings.TrimSpace(f.inputs[fieldTitle].Value()),
		Description: strings.TrimSpace(f.inputs[fieldDescription].Value()),
		Status:      f.task.Status,
		AttachPath:  strings.TrimSpace(f.inputs[fieldAttachment].Value()),
	}
	if f.editing && draft.AttachPath == "" {
		draft.FileRef = f.task.FilePath
	}
	return draft
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if ok {
		switch key.String() {
		case "esc":
			m.mode = modeBoard
			return m, nil
		case "tab", "down":
			return m.cycleFormFocus(1)
		case "shift+tab", "up":
			return m.cycleFormFocus(-1)
		case "enter":
			return m.submitForm()
		}
	}
	var cmd tea.Cmd
	m.form.inputs[m.form.focused], cmd = m.form.inputs[m.form.focused].Update(msg)
	return m, cmd
}

func (m Model) cycleFormFocus(delta int) (tea.Model, tea.Cmd) {
	m.form.inputs[m.form.focused].Blur()
	m.form.focused = (m.form.focused + delta + fieldCount) % fieldCount
	return m, m.form.focusCmd()
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	draft := m.form.draft()
	if draft.Title == "" {
		m.form.errMsg = "Title cannot be empty"
		return m, nil
	}
	if draft.Description == "" {
		m.form.errMsg = "Description cannot be empty"
		return m, nil
	}
	if draft.AttachPath != "" && !domain.AllowedExtension(draft.AttachPath) {
		m.form.errMsg = "A file with this file extension is not supported"
		return m, nil
	}

	var commit board.Commit
	var err error
	if m.form.editing {
		commit, err = m.ctrl.UpdateTask(m.task().ID, draft)
	} else {
		commit, err = m.ctrl.CreateTask(draft)
	}
	if err != nil {
		m.form.errMsg = err.Error()
		return m, nil
	}
	m.mode = modeBoard
	return m, commitCmd(commit)
}

func (m Model) task() domain.Task { return m.form.task }

func (f form) view(width int) string {
	title := "New task"
	if f.editing {
		title = "Edit task"
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	labels := [fieldCount]string{"Title", "Description", "Attachment"}
	for i, input := range f.inputs {
		b.WriteString(mutedStyle.Render(labels[i]))
		b.WriteString("\n")
		b.WriteString(input.View())
		b.WriteString("\n")
	}
	if f.editing && f.task.HasFile() {
		b.WriteString(attachStyle.Render("current: " + f.task.FileName))
		b.WriteString("\n")
	}
	if f.errMsg != "" {
		b.WriteString(errorStyle.Render(f.errMsg))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("tab next field  enter save  esc cancel"))

	box := formBoxStyle
	if width > 4 {
		box = box.Width(width - 4)
	}
	return box.Render(b.String())
}
