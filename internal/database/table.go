package database

// Table binds a CRUD service to a data table: the table name, its
// primary key column, the columns a caller may read or write, and the
// entity label used in response messages.
type Table struct {
	Name       string
	PrimaryKey string
	// Columns is the allowed-column set. Empty means all columns.
	Columns []string
	// Entity is the human label, e.g. "Todo" in "Todo created successfully".
	Entity string
	// AutoID assigns a UUID primary key on insert when the payload
	// omits one. Leave false for serial keys.
	AutoID bool
}

// WithDefaults fills the zero fields of a binding.
func (t Table) WithDefaults() Table {
	if t.PrimaryKey == "" {
		t.PrimaryKey = "id"
	}
	if t.Entity == "" {
		t.Entity = t.Name
	}
	return t
}

// Allows reports whether the column is writable under the binding.
// An empty allowlist allows every column.
func (t Table) Allows(column string) bool {
	if len(t.Columns) == 0 {
		return true
	}
	if column == t.PrimaryKey {
		return true
	}
	for _, c := range t.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// Record is a single row keyed by column name.
type Record map[string]any
