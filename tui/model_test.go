package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"taskboard/board"
	"taskboard/domain"
)

type mockService struct {
	tasks       []domain.Task
	updateErr   error
	updateCalls int
	deleteCalls int
}

func (m *mockService) List(context.Context) ([]domain.Task, error) {
	return append([]domain.Task(nil), m.tasks...), nil
}

func (m *mockService) Create(_ context.Context, draft board.Draft) (domain.Task, error) {
	return domain.Task{ID: "new", Title: draft.Title, Description: draft.Description, Status: draft.Status}, nil
}

func (m *mockService) Update(_ context.Context, id string, draft board.Draft) (domain.Task, error) {
	m.updateCalls++
	if m.updateErr != nil {
		return domain.Task{}, m.updateErr
	}
	return domain.Task{ID: id, Title: draft.Title, Description: draft.Description, Status: draft.Status}, nil
}

func (m *mockService) Delete(context.Context, string) error {
	m.deleteCalls++
	return nil
}

func boardTasks() []domain.Task {
	mk := func(i int, status domain.Status) domain.Task {
		return domain.Task{
			ID:          fmt.Sprintf("task-%d", i),
			Title:       fmt.Sprintf("Task %d", i),
			Description: "d",
			Status:      status,
		}
	}
	return []domain.Task{
		mk(1, domain.StatusToDo),
		mk(2, domain.StatusToDo),
		mk(3, domain.StatusInProgress),
	}
}

func newTestModel(t *testing.T, svc *mockService) Model {
	t.Helper()
	ctrl := board.New(svc)
	if err := ctrl.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return NewModel(ctrl)
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	var next tea.Model = m
	for _, k := range keys {
		msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		}
		next, cmd = next.Update(msg)
	}
	return next.(Model), cmd
}

func TestCursorNavigation(t *testing.T) {
	m := newTestModel(t, &mockService{tasks: boardTasks()})

	m, _ = press(t, m, "j")
	if m.cursors[0] != 1 {
		t.Fatalf("expected cursor 1, got %d", m.cursors[0])
	}
	m, _ = press(t, m, "j")
	if m.cursors[0] != 1 {
		t.Fatalf("cursor should clamp at the last card, got %d", m.cursors[0])
	}
	m, _ = press(t, m, "k", "k")
	if m.cursors[0] != 0 {
		t.Fatalf("expected cursor 0, got %d", m.cursors[0])
	}

	m, _ = press(t, m, "l")
	if m.focus != 1 {
		t.Fatalf("expected focus on second column, got %d", m.focus)
	}
	m, _ = press(t, m, "l", "l")
	if m.focus != 2 {
		t.Fatalf("focus should clamp at the last column, got %d", m.focus)
	}
	m, _ = press(t, m, "h", "h", "h")
	if m.focus != 0 {
		t.Fatalf("expected focus on first column, got %d", m.focus)
	}
}

func TestReorderStaysLocal(t *testing.T) {
	svc := &mockService{tasks: boardTasks()}
	m := newTestModel(t, svc)

	m, cmd := press(t, m, "J")
	if cmd != nil {
		t.Fatal("reorder should not produce a command")
	}
	col := m.ctrl.Columns()[0]
	if col.Tasks[0].ID != "task-2" || col.Tasks[1].ID != "task-1" {
		t.Fatalf("unexpected order: %s %s", col.Tasks[0].ID, col.Tasks[1].ID)
	}
	if m.cursors[0] != 1 {
		t.Fatalf("cursor should follow the card, got %d", m.cursors[0])
	}
	if svc.updateCalls != 0 {
		t.Fatalf("reorder must not hit the server, got %d calls", svc.updateCalls)
	}
}

func TestMoveAcrossCommits(t *testing.T) {
	svc := &mockService{tasks: boardTasks()}
	m := newTestModel(t, svc)

	m, cmd := press(t, m, "L")
	if cmd == nil {
		t.Fatal("cross-column move must produce a commit command")
	}
	if m.focus != 1 {
		t.Fatalf("focus should follow the card, got %d", m.focus)
	}
	cols := m.ctrl.Columns()
	if len(cols[0].Tasks) != 1 || len(cols[1].Tasks) != 2 {
		t.Fatalf("move not applied optimistically: %d/%d", len(cols[0].Tasks), len(cols[1].Tasks))
	}
	if svc.updateCalls != 0 {
		t.Fatal("server call should wait for the command to run")
	}

	msg := cmd()
	done, ok := msg.(commitDoneMsg)
	if !ok {
		t.Fatalf("expected commitDoneMsg, got %T", msg)
	}
	if done.err != nil {
		t.Fatalf("commit failed: %v", done.err)
	}
	if svc.updateCalls != 1 {
		t.Fatalf("expected one update call, got %d", svc.updateCalls)
	}
}

func TestMoveAcrossRollsBackOnError(t *testing.T) {
	svc := &mockService{tasks: boardTasks(), updateErr: errors.New("offline")}
	m := newTestModel(t, svc)

	m, cmd := press(t, m, "L")
	msg := cmd()
	next, _ := m.Update(msg)
	m = next.(Model)

	if !m.isErr || m.status == "" {
		t.Fatal("expected an error in the footer")
	}
	cols := m.ctrl.Columns()
	if len(cols[0].Tasks) != 2 || len(cols[1].Tasks) != 1 {
		t.Fatalf("board not rolled back: %d/%d", len(cols[0].Tasks), len(cols[1].Tasks))
	}
}

func TestDeleteIsOptimistic(t *testing.T) {
	svc := &mockService{tasks: boardTasks()}
	m := newTestModel(t, svc)

	m, cmd := press(t, m, "d")
	if cmd == nil {
		t.Fatal("delete must produce a commit command")
	}
	if got := len(m.ctrl.Columns()[0].Tasks); got != 1 {
		t.Fatalf("expected optimistic removal, column has %d tasks", got)
	}
	if msg := cmd(); msg.(commitDoneMsg).err != nil {
		t.Fatalf("commit failed: %v", msg.(commitDoneMsg).err)
	}
	if svc.deleteCalls != 1 {
		t.Fatalf("expected one delete call, got %d", svc.deleteCalls)
	}
}

func TestFormOpenAndCancel(t *testing.T) {
	m := newTestModel(t, &mockService{tasks: boardTasks()})

	m, _ = press(t, m, "a")
	if m.mode != modeForm {
		t.Fatal("expected form mode")
	}
	if m.form.editing {
		t.Fatal("add form should not be in edit mode")
	}
	if m.form.task.Status != domain.StatusToDo {
		t.Fatalf("new task should target the focused column, got %q", m.form.task.Status)
	}

	m, _ = press(t, m, "esc")
	if m.mode != modeBoard {
		t.Fatal("esc should return to the board")
	}
}

func TestFormRejectsEmptyTitle(t *testing.T) {
	m := newTestModel(t, &mockService{tasks: boardTasks()})

	m, _ = press(t, m, "a")
	m, cmd := press(t, m, "enter")
	if cmd != nil {
		t.Fatal("invalid form must not submit")
	}
	if m.form.errMsg != "Title cannot be empty" {
		t.Fatalf("unexpected error %q", m.form.errMsg)
	}
	if m.mode != modeForm {
		t.Fatal("form should stay open")
	}
}

func TestFormSubmitCreates(t *testing.T) {
	svc := &mockService{tasks: boardTasks()}
	m := newTestModel(t, svc)

	m, _ = press(t, m, "a")
	m.form.inputs[fieldTitle].SetValue("Ship it")
	m.form.inputs[fieldDescription].SetValue("Tomorrow")

	m, cmd := press(t, m, "enter")
	if cmd == nil {
		t.Fatal("valid form must submit")
	}
	if m.mode != modeBoard {
		t.Fatal("submit should close the form")
	}
	if msg := cmd(); msg.(commitDoneMsg).err != nil {
		t.Fatalf("commit failed: %v", msg.(commitDoneMsg).err)
	}
	col := m.ctrl.Columns()[0]
	if col.Tasks[0].ID != "new" || col.Tasks[0].Title != "Ship it" {
		t.Fatalf("created task not prepended: %+v", col.Tasks[0])
	}
}

func TestEditFormKeepsFileReference(t *testing.T) {
	tasks := boardTasks()
	tasks[0].FilePath = "uploads/x.pdf"
	tasks[0].FileName = "x.pdf"
	m := newTestModel(t, &mockService{tasks: tasks})

	m, _ = press(t, m, "e")
	if !m.form.editing {
		t.Fatal("expected edit form")
	}
	draft := m.form.draft()
	if draft.FileRef != "uploads/x.pdf" {
		t.Fatalf("edit draft must carry the existing file reference, got %q", draft.FileRef)
	}
	if draft.Title != "Task 1" {
		t.Fatalf("edit form not prefilled: %q", draft.Title)
	}
}

func TestViewShowsColumns(t *testing.T) {
	m := newTestModel(t, &mockService{tasks: boardTasks()})
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	out := m.View()
	for _, st := range domain.StatusOrder {
		if !strings.Contains(out, st.Label()) {
			t.Fatalf("view missing column %q", st.Label())
		}
	}
	if !strings.Contains(out, "Task 1") {
		t.Fatal("view missing task title")
	}
}
