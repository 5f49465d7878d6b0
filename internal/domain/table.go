package domain

import "time"

// RawTable is the in-memory tabular structure produced by a source adapter:
// labeled columns, ordered rows, plus fetch provenance. Downstream stages
// must not mutate it in place — the normalizer works on a copy.
type RawTable struct {
	Source    Source
	Columns   []string
	Rows      [][]string
	FetchedAt time.Time
	Params    map[string]string

	// ErrorNote annotates a degraded fetch: the adapter recovered a
	// transport or parse failure by returning an empty table tagged with
	// the failure message. Empty when the fetch succeeded.
	ErrorNote string
}

// IsEmpty reports whether the table carries no rows.
func (t *RawTable) IsEmpty() bool {
	return len(t.Rows) == 0
}

// ColumnIndex returns the index of the named column, or -1.
func (t *RawTable) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the table.
func (t *RawTable) Clone() *RawTable {
	out := &RawTable{
		Source:    t.Source,
		Columns:   append([]string(nil), t.Columns...),
		Rows:      make([][]string, len(t.Rows)),
		FetchedAt: t.FetchedAt,
		ErrorNote: t.ErrorNote,
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	if t.Params != nil {
		out.Params = make(map[string]string, len(t.Params))
		for k, v := range t.Params {
			out.Params[k] = v
		}
	}
	return out
}

// EmptyTable builds an annotated empty table for a failed fetch.
func EmptyTable(source Source, params map[string]string, note string) *RawTable {
	return &RawTable{
		Source:    source,
		Columns:   []string{},
		Rows:      [][]string{},
		FetchedAt: time.Now().UTC(),
		Params:    params,
		ErrorNote: note,
	}
}
