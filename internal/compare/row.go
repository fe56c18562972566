package compare

// Field is a single named value of a Row.
type Field struct {
	Name  string
	Value Value
}

// Row is a flattened prediction record: an insertion-ordered mapping from
// field name to value. Rows are immutable once built by Flatten.
type Row struct {
	names  []string
	values map[string]Value
}

func newRow() Row {
	return Row{values: make(map[string]Value)}
}

func (r *Row) set(name string, v Value) {
	if _, ok := r.values[name]; !ok {
		r.names = append(r.names, name)
	}
	r.values[name] = v
}

// Get returns the value stored under name.
func (r Row) Get(name string) (Value, bool) {
	v, ok := r.values[name]
	return v, ok
}

// Has reports whether name is present.
func (r Row) Has(name string) bool {
	_, ok := r.values[name]
	return ok
}

// Len returns the number of fields.
func (r Row) Len() int { return len(r.names) }

// Names returns the field names in insertion order.
func (r Row) Names() []string {
	return append([]string(nil), r.names...)
}

// Fields returns the fields in insertion order.
func (r Row) Fields() []Field {
	out := make([]Field, len(r.names))
	for i, n := range r.names {
		out[i] = Field{Name: n, Value: r.values[n]}
	}
	return out
}
