package formula

// Table interns parsed formulas by canonical expression so that cells
// holding the same formula share one immutable tree. entries are reference
// counted and dropped when the last holder releases them.
type Table struct {
	index     map[string]*Formula // canonical expression -> formula
	refCounts map[string]int      // canonical expression -> holders
}

// NewTable creates an empty formula table
func NewTable() *Table {
	return &Table{
		index:     make(map[string]*Formula),
		refCounts: make(map[string]int),
	}
}

// Intern returns the shared formula equal to f, registering f if no such
// formula exists yet. each call must be paired with a Release.
func (t *Table) Intern(f *Formula) *Formula {
	key := f.Expression()
	if existing, ok := t.index[key]; ok {
		t.refCounts[key]++
		return existing
	}
	t.index[key] = f
	t.refCounts[key] = 1
	return f
}

// Release drops one reference to f. it reports whether the formula was
// removed from the table.
func (t *Table) Release(f *Formula) bool {
	if f == nil {
		return false
	}
	key := f.Expression()
	count, ok := t.refCounts[key]
	if !ok {
		return false
	}
	if count > 1 {
		t.refCounts[key] = count - 1
		return false
	}
	delete(t.index, key)
	delete(t.refCounts, key)
	return true
}

// Count returns the number of distinct formulas held
func (t *Table) Count() int {
	return len(t.index)
}

// References returns how many holders share the formula with the given
// canonical expression
func (t *Table) References(expression string) int {
	return t.refCounts[expression]
}
