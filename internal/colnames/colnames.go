// Package colnames holds the ordered column-name table shared by every
// chunk and row a reader produces.
package colnames

// Table is an ordered column-name list plus a name-to-index map. It is
// built once, after header detection, and shared read-only thereafter.
type Table struct {
	Names []string
	index map[string]int
}

// New builds a Table from an ordered name list.
func New(names []string) *Table {
	idx := make(map[string]int, len(names))
	for i, n := range names {
		idx[n] = i
	}
	return &Table{Names: names, index: idx}
}

// IndexOf returns the column index for name, or -1 if it is not present.
func (t *Table) IndexOf(name string) int {
	if t == nil {
		return -1
	}
	if i, ok := t.index[name]; ok {
		return i
	}
	return -1
}

// Len returns the number of columns.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Names)
}
