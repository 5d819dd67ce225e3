package board

import "taskboard/domain"

// Column is one ordered status bucket of the board.
type Column struct {
	ID    domain.Status
	Label string
	Tasks []domain.Task
}

// Columns maps each status to its column. The key set is always exactly
// domain.StatusOrder; the partition is derived from the enumeration, not
// hard-coded per status.
type Columns map[domain.Status]*Column

// project partitions tasks into the fixed columns, preserving input order
// within each bucket.
func project(tasks []domain.Task) Columns {
	cols := make(Columns, len(domain.StatusOrder))
	for _, st := range domain.StatusOrder {
		cols[st] = &Column{ID: st, Label: st.Label()}
	}
	for _, t := range tasks {
		if col, ok := cols[t.Status]; ok {
			col.Tasks = append(col.Tasks, t)
		}
	}
	return cols
}

func (c Columns) clone() Columns {
	out := make(Columns, len(c))
	for st, col := range c {
		copied := &Column{ID: col.ID, Label: col.Label}
		copied.Tasks = append([]domain.Task(nil), col.Tasks...)
		out[st] = copied
	}
	return out
}

// insertClamped inserts task at index, clamping past-the-end indexes to an
// append. Standard ordered-list splice semantics.
func insertClamped(list []domain.Task, index int, task domain.Task) []domain.Task {
	if index < 0 {
		index = 0
	}
	if index > len(list) {
		index = len(list)
	}
	list = append(list, domain.Task{})
	copy(list[index+1:], list[index:])
	list[index] = task
	return list
}

func removeAt(list []domain.Task, index int) []domain.Task {
	return append(list[:index:index], list[index+1:]...)
}
