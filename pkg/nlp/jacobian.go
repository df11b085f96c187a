package nlp

// Entry is one non-zero of a sparse row.
type Entry struct {
	Col int
	Val float64
}

// Row is a sparse gradient row. The zero value is an empty row.
type Row struct {
	entries []Entry
}

// Reset empties the row, keeping its storage.
func (r *Row) Reset() { r.entries = r.entries[:0] }

// Add appends a non-zero at column col.
func (r *Row) Add(col int, val float64) {
	r.entries = append(r.entries, Entry{Col: col, Val: val})
}

// Entries returns the row's non-zeros in insertion order.
func (r *Row) Entries() []Entry { return r.entries }

// Len returns the number of stored entries.
func (r *Row) Len() int { return len(r.entries) }

// Scatter adds scale times the row into dense.
func (r *Row) Scatter(scale float64, dense []float64) {
	for _, e := range r.entries {
		dense[e.Col] += scale * e.Val
	}
}

// Jacobian is a sparse constraint Jacobian stored by rows.
type Jacobian struct {
	rows []Row
	cols int
}

// NewJacobian allocates an empty m×n Jacobian.
func NewJacobian(m, n int) *Jacobian {
	return &Jacobian{rows: make([]Row, m), cols: n}
}

// Rows returns the number of rows.
func (j *Jacobian) Rows() int { return len(j.rows) }

// Cols returns the number of columns.
func (j *Jacobian) Cols() int { return j.cols }

// Row returns row i for reading or writing.
func (j *Jacobian) Row(i int) *Row { return &j.rows[i] }

// SetRow replaces row i with a copy of src.
func (j *Jacobian) SetRow(i int, src *Row) {
	dst := &j.rows[i]
	dst.entries = append(dst.entries[:0], src.entries...)
}

// Reset empties every row.
func (j *Jacobian) Reset() {
	for i := range j.rows {
		j.rows[i].Reset()
	}
}

// MulTransAdd computes dst += Jᵀw.
func (j *Jacobian) MulTransAdd(w, dst []float64) {
	for i := range j.rows {
		if w[i] == 0 {
			continue
		}
		j.rows[i].Scatter(w[i], dst)
	}
}

// NonZeros returns the number of stored entries.
func (j *Jacobian) NonZeros() int {
	n := 0
	for i := range j.rows {
		n += j.rows[i].Len()
	}
	return n
}
