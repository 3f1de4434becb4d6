package vm

import "github.com/kunitoki/etch-sub002/internal/compiler"

// Heap is the VM's reference heap (spec §4.6, §9 "Heap for references").
// Cells live from first allocation to program exit — spec §3's Lifecycle
// note says exactly that, and the built-in surface (spec §6) has no
// explicit free/release operation — so Heap never reclaims a slot. The
// generation field is carried anyway, per spec §9's suggested generational-
// index design, so Deref only ever needs one bounds-plus-generation check
// regardless of how cells are managed; in this implementation the
// generation simply never changes after Alloc.
type Heap struct {
	cells []compiler.Value
}

func NewHeap() *Heap { return &Heap{} }

// Alloc stores v in a fresh cell and returns a Ref value pointing at it.
func (h *Heap) Alloc(v compiler.Value) compiler.Value {
	h.cells = append(h.cells, v)
	return compiler.VRef(int64(len(h.cells)-1), 1)
}

// Get dereferences id/gen, reporting ok=false for an out-of-range or
// generation-mismatched reference (the "deref a released cell" case spec
// §9 requires to be a reportable error, not UB).
func (h *Heap) Get(id, gen int64) (compiler.Value, bool) {
	if id < 0 || int(id) >= len(h.cells) || gen != 1 {
		return compiler.Value{}, false
	}
	return h.cells[id], true
}

// Set overwrites the value behind a live reference, reporting false for an
// out-of-range or generation-mismatched one. No opcode or builtin calls it.
func (h *Heap) Set(id, gen int64, v compiler.Value) bool {
	if id < 0 || int(id) >= len(h.cells) || gen != 1 {
		return false
	}
	h.cells[id] = v
	return true
}
