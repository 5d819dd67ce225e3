package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"taskboard/domain"
)

// ErrBusy is returned by mutating intents while a previous mutation is still
// in flight. Callers should surface it and retry once the pending commit
// settles.
var ErrBusy = errors.New("board: another request is in flight")

// Draft carries the user-entered fields of a create or update intent.
type Draft struct {
	Title       string
	Description string
	Status      domain.Status
	// FileRef is the already-stored attachment path resubmitted alongside
	// a status-only update. The server treats it as an opaque text field.
	FileRef string
	// AttachPath points at a local file to upload. Empty means no new file.
	AttachPath string
}

// TaskService is the remote API surface the controller drives. Every call
// is a network round trip.
type TaskService interface {
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, draft Draft) (domain.Task, error)
	Update(ctx context.Context, id string, draft Draft) (domain.Task, error)
	Delete(ctx context.Context, id string) error
}

// Commit settles a previously applied optimistic intent against the server.
// On success it folds the server's authoritative record into the board; on
// failure it restores the state captured when the intent was accepted and
// returns the error.
type Commit func(ctx context.Context) error

// Position addresses a slot inside a column.
type Position struct {
	Column domain.Status
	Index  int
}

// Drag describes a completed drag gesture. A nil Destination means the drop
// landed outside any column.
type Drag struct {
	TaskID      string
	Source      Position
	Destination *Position
}

type snapshot struct {
	tasks   []domain.Task
	columns Columns
}

// Controller owns the board state: the fetched task list, its per-column
// projection, the current selection and the single in-flight mutation flag.
// All methods are safe for concurrent use.
type Controller struct {
	mu       sync.Mutex
	svc      TaskService
	tasks    []domain.Task
	columns  Columns
	selected string
	pending  bool
}

func New(svc TaskService) *Controller {
	if svc == nil {
		panic("board: nil TaskService")
	}
	return &Controller{svc: svc, columns: project(nil)}
}

// Load replaces the board state with a fresh fetch from the server.
func (c *Controller) Load(ctx context.Context) error {
	tasks, err := c.svc.List(ctx)
	if err != nil {
		return fmt.Errorf("could not load tasks: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tasks = tasks
	c.columns = project(tasks)
	return nil
}

// Tasks returns a copy of the full task list in fetch order.
func (c *Controller) Tasks() []domain.Task {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Task(nil), c.tasks...)
}

// Columns returns the board columns in display order. The slices are copies
// and safe to retain across mutations.
func (c *Controller) Columns() []Column {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Column, 0, len(domain.StatusOrder))
	for _, st := range domain.StatusOrder {
		col := c.columns[st]
		out = append(out, Column{
			ID:    col.ID,
			Label: col.Label,
			Tasks: append([]domain.Task(nil), col.Tasks...),
		})
	}
	return out
}

// Pending reports whether a mutation is awaiting its commit.
func (c *Controller) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending
}

// Select marks the task with the given id as selected, reporting whether it
// exists on the board.
func (c *Controller) Select(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.findTaskLocked(id); !ok {
		return false
	}
	c.selected = id
	return true
}

// Selected returns the currently selected task, if any.
func (c *Controller) Selected() (domain.Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.selected == "" {
		return domain.Task{}, false
	}
	i, ok := c.findTaskLocked(c.selected)
	if !ok {
		return domain.Task{}, false
	}
	return c.tasks[i], true
}

func (c *Controller) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = ""
}

// DragEnd applies a completed drag gesture. Drops outside any column and
// drops back onto the starting slot are no-ops. A move within one column
// reorders locally and returns a nil Commit, since column membership did not
// change. A move across columns rewrites the task's status optimistically and
// returns a Commit that pushes exactly one update to the server, rolling the
// board back if it fails.
func (c *Controller) DragEnd(d Drag) (Commit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if d.Destination == nil {
		return nil, nil
	}
	dest := *d.Destination
	if dest.Column == d.Source.Column && dest.Index == d.Source.Index {
		return nil, nil
	}
	if c.pending {
		return nil, ErrBusy
	}

	src, ok := c.columns[d.Source.Column]
	if !ok {
		return nil, fmt.Errorf("unknown source column %q", d.Source.Column)
	}
	if d.Source.Index < 0 || d.Source.Index >= len(src.Tasks) {
		return nil, fmt.Errorf("source index %d out of range for column %q", d.Source.Index, d.Source.Column)
	}
	moved := src.Tasks[d.Source.Index]
	if d.TaskID != "" && moved.ID != d.TaskID {
		return nil, fmt.Errorf("task %s is not at %s[%d]", d.TaskID, d.Source.Column, d.Source.Index)
	}

	if dest.Column == d.Source.Column {
		src.Tasks = removeAt(src.Tasks, d.Source.Index)
		src.Tasks = insertClamped(src.Tasks, dest.Index, moved)
		return nil, nil
	}

	dst, ok := c.columns[dest.Column]
	if !ok {
		return nil, fmt.Errorf("unknown destination column %q", dest.Column)
	}

	prev := c.snapshotLocked()
	src.Tasks = removeAt(src.Tasks, d.Source.Index)
	moved.Status = dest.Column
	dst.Tasks = insertClamped(dst.Tasks, dest.Index, moved)
	if i, ok := c.findTaskLocked(moved.ID); ok {
		c.tasks[i].Status = dest.Column
	}
	c.pending = true

	draft := Draft{
		Title:       moved.Title,
		Description: moved.Description,
		Status:      dest.Column,
		FileRef:     moved.FilePath,
	}
	return c.commit(prev, func(ctx context.Context) (domain.Task, bool, error) {
		updated, err := c.svc.Update(ctx, moved.ID, draft)
		return updated, true, err
	}), nil
}

// CreateTask returns a Commit that creates the task on the server and, on
// success, prepends the new record to the board.
func (c *Controller) CreateTask(draft Draft) (Commit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return nil, ErrBusy
	}
	c.pending = true
	return func(ctx context.Context) error {
		task, err := c.svc.Create(ctx, draft)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.pending = false
		if err != nil {
			return err
		}
		c.tasks = append([]domain.Task{task}, c.tasks...)
		c.columns = project(c.tasks)
		return nil
	}, nil
}

// UpdateTask returns a Commit that updates an existing task on the server
// and folds the returned record into the board.
func (c *Controller) UpdateTask(id string, draft Draft) (Commit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return nil, ErrBusy
	}
	prev := c.snapshotLocked()
	c.pending = true
	return c.commit(prev, func(ctx context.Context) (domain.Task, bool, error) {
		updated, err := c.svc.Update(ctx, id, draft)
		return updated, true, err
	}), nil
}

// DeleteTask removes the task from the board immediately and returns a
// Commit that deletes it on the server, restoring the board if that fails.
func (c *Controller) DeleteTask(id string) (Commit, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending {
		return nil, ErrBusy
	}
	i, ok := c.findTaskLocked(id)
	if !ok {
		return nil, fmt.Errorf("task %s not found", id)
	}
	prev := c.snapshotLocked()
	status := c.tasks[i].Status
	c.tasks = removeAt(c.tasks, i)
	if col, ok := c.columns[status]; ok {
		for j, t := range col.Tasks {
			if t.ID == id {
				col.Tasks = removeAt(col.Tasks, j)
				break
			}
		}
	}
	if c.selected == id {
		c.selected = ""
	}
	c.pending = true
	return c.commit(prev, func(ctx context.Context) (domain.Task, bool, error) {
		return domain.Task{}, false, c.svc.Delete(ctx, id)
	}), nil
}

// commit wraps a server call into the shared settle logic: clear pending,
// restore the snapshot on failure, otherwise fold the returned record in.
func (c *Controller) commit(prev snapshot, call func(ctx context.Context) (domain.Task, bool, error)) Commit {
	return func(ctx context.Context) error {
		updated, fold, err := call(ctx)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.pending = false
		if err != nil {
			c.restoreLocked(prev)
			return err
		}
		if fold {
			c.replaceTaskLocked(updated)
		}
		return nil
	}
}

func (c *Controller) snapshotLocked() snapshot {
	return snapshot{
		tasks:   append([]domain.Task(nil), c.tasks...),
		columns: c.columns.clone(),
	}
}

func (c *Controller) restoreLocked(prev snapshot) {
	c.tasks = prev.tasks
	c.columns = prev.columns
}

func (c *Controller) findTaskLocked(id string) (int, bool) {
	for i, t := range c.tasks {
		if t.ID == id {
			return i, true
		}
	}
	return 0, false
}

// replaceTaskLocked folds a server record into the board, keeping the task's
// slot when its status is unchanged and reprojecting when it moved.
func (c *Controller) replaceTaskLocked(updated domain.Task) {
	i, ok := c.findTaskLocked(updated.ID)
	if !ok {
		return
	}
	moved := c.tasks[i].Status != updated.Status
	c.tasks[i] = updated
	if moved {
		c.columns = project(c.tasks)
		return
	}
	if col, ok := c.columns[updated.Status]; ok {
		for j, t := range col.Tasks {
			if t.ID == updated.ID {
				col.Tasks[j] = updated
				break
			}
		}
	}
}
