package models

import "strings"

// ColumnInfo describes a single column of a datasource table.
type ColumnInfo struct {
	Name         string `json:"name"`
	DataType     string `json:"data_type"`
	IsNullable   bool   `json:"is_nullable"`
	IsPrimaryKey bool   `json:"is_primary_key"`
}

// TableInfo describes a datasource table with its columns in ordinal order.
type TableInfo struct {
	Name    string       `json:"name"`
	Entity  string       `json:"entity,omitempty"` // singular entity name, e.g. "sale" for table "sales"
	Columns []ColumnInfo `json:"columns"`
}

// SchemaDescription is the full table/column inventory of a datasource,
// fetched once per pipeline run and immutable afterwards.
type SchemaDescription struct {
	Tables []TableInfo `json:"tables"`
}

// IsEmpty reports whether the schema contains no tables.
func (s *SchemaDescription) IsEmpty() bool {
	return s == nil || len(s.Tables) == 0
}

// Table returns the table with the given name (case-insensitive match on
// exact name), or nil if the schema does not contain it.
func (s *SchemaDescription) Table(name string) *TableInfo {
	if s == nil {
		return nil
	}
	for i := range s.Tables {
		if strings.EqualFold(s.Tables[i].Name, name) {
			return &s.Tables[i]
		}
	}
	return nil
}

// ColumnNames returns the ordered column names of a table, or nil if the
// table is unknown.
func (s *SchemaDescription) ColumnNames(table string) []string {
	t := s.Table(table)
	if t == nil {
		return nil
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
