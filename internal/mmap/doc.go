// Package mmap maps STL and mesh files read-only into memory, so the
// loader can build key views directly over the page cache instead of
// copying the input onto the heap.
//
//	m, err := mmap.Open("part.stl")
//	if err != nil { ... }
//	defer m.Close()
//
//	_ = m.Sequential()
//	data := m.Bytes()
//
// Unix uses mmap(2) and madvise(2); Windows uses MapViewOfFile and
// ignores the read-ahead hint. Bytes must not be used after Close.
package mmap
