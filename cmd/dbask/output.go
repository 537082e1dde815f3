package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/dbask/dbask/ask"
	"github.com/dbask/dbask/core/format"
)

const (
	formatText  = "text"
	formatJSON  = "json"
	formatTable = "table"
	formatCSV   = "csv"
)

func validFormat(f string) bool {
	switch f {
	case formatText, formatJSON, formatTable, formatCSV:
		return true
	}
	return false
}

type jsonOutcome struct {
	SQL        string          `json:"sql"`
	Answer     string          `json:"answer"`
	Conclusion string          `json:"conclusion,omitempty"`
	Rows       json.RawMessage `json:"rows"`
}

func writeOutcome(w io.Writer, f string, out *ask.Outcome) error {
	switch f {
	case formatJSON:
		rows, err := out.Rows.Format(format.NewJSON(), 0, -1)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(jsonOutcome{
			SQL:        out.SQL.String(),
			Answer:     out.Answer,
			Conclusion: out.Conclusion,
			Rows:       rows,
		})
	case formatCSV:
		rows, err := out.Rows.Format(format.NewCSV(), 0, -1)
		if err != nil {
			return err
		}
		_, err = w.Write(rows)
		return err
	case formatTable:
		rendered, err := out.Rows.Format(format.NewTable(), 0, -1)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n\n%s\n\n%s\n", out.SQL.String(), rendered, out.Text())
		return err
	default:
		_, err := fmt.Fprintln(w, out.Text())
		return err
	}
}
