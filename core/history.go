package core

import (
	"maps"

	"pkt.systems/pdfsuite/schema"
)

// snapshot is the undoable part of a session.
type snapshot struct {
	order     []int
	rotations map[int]int
}

func (s snapshot) clone() snapshot {
	return snapshot{
		order:     append([]int(nil), s.order...),
		rotations: maps.Clone(s.rotations),
	}
}

// history holds bounded undo/redo stacks of full snapshots.
type history struct {
	undo []snapshot
	redo []snapshot
	max  int
}

func newHistory(max int) *history {
	if max <= 0 {
		max = schema.DefaultHistoryDepth
	}
	return &history{max: max}
}

// Record pushes the pre-operation state and invalidates the redo stack.
func (h *history) Record(prev snapshot) {
	h.push(&h.undo, prev)
	h.redo = nil
}

// Undo swaps current for the newest undo entry.
func (h *history) Undo(current snapshot) (snapshot, bool) {
	return h.swap(&h.undo, &h.redo, current)
}

// Redo swaps current for the newest redo entry.
func (h *history) Redo(current snapshot) (snapshot, bool) {
	return h.swap(&h.redo, &h.undo, current)
}

func (h *history) swap(from, to *[]snapshot, current snapshot) (snapshot, bool) {
	if len(*from) == 0 {
		return snapshot{}, false
	}
	last := len(*from) - 1
	restored := (*from)[last]
	(*from)[last] = snapshot{}
	*from = (*from)[:last]
	h.push(to, current)
	return restored, true
}

func (h *history) push(stack *[]snapshot, entry snapshot) {
	*stack = append(*stack, entry)
	if len(*stack) > h.max {
		*stack = append([]snapshot(nil), (*stack)[len(*stack)-h.max:]...)
	}
}

func (h *history) CanUndo() bool { return len(h.undo) > 0 }

func (h *history) CanRedo() bool { return len(h.redo) > 0 }
