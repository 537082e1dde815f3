package core

import "strings"

type (
	// Formatter converts header and rows to bytes
	Formatter interface {
		Format(header Header, rows []Row) ([]byte, error)
	}
)

type (
	// Row and Header are attributes of ResultStream iterator
	Row    []any
	Header []string

	// ResultStream is a result from executed query and has a form of an iterator
	ResultStream interface {
		Header() Header
		Next() (Row, error)
		HasNext() bool
		Close()
	}
)

// Column is a single column of a table as reported by the catalog.
type Column struct {
	// Name to be displayed
	Name string
	// Type is the database type name, verbatim
	Type string
}

// Schema is the ordered list of columns of a table. Order follows the catalog.
type Schema []Column

// Names returns column names in catalog order.
func (s Schema) Names() []string {
	names := make([]string, len(s))
	for i, c := range s {
		names[i] = c.Name
	}
	return names
}

// Lookup returns the column with the given name. An exact match wins over one
// that differs only in case.
func (s Schema) Lookup(name string) (Column, bool) {
	for _, c := range s {
		if c.Name == name {
			return c, true
		}
	}
	for _, c := range s {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return Column{}, false
}
