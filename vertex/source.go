package vertex

import "fmt"

// Source maps global vertex indices to content keys and back.
//
// Implementations are format adapters over an immutable buffer. Key must be
// deterministic, Index must be the exact inverse of Key, and neither may have
// side effects. Passing an index >= Len() or a key that was not produced by
// the same Source is a contract violation.
type Source interface {
	// Key returns the key of vertex i.
	Key(i uint32) Key

	// Index returns the global index of the vertex referenced by k.
	Index(k Key) uint32

	// Len returns the number of vertices.
	Len() uint32
}

// ContractError describes a violated Source or Key contract. It is raised
// with panic, never returned: it indicates a defect, not bad input.
type ContractError struct {
	Op     string
	Detail string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("vertex: contract violation in %s: %s", e.Op, e.Detail)
}

// CheckIndex panics with a *ContractError if idx is not a valid index of src.
func CheckIndex(src Source, idx uint32) uint32 {
	if n := src.Len(); idx >= n {
		panic(&ContractError{Op: "Index", Detail: fmt.Sprintf("index %d out of range [0, %d)", idx, n)})
	}
	return idx
}
