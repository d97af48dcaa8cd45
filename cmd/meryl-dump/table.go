package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// table writes tab separated rows, aligned when aligned is set.
type table struct {
	w  io.Writer
	tw *tabwriter.Writer
}

func newTable(w io.Writer, aligned bool) *table {
	t := &table{w: w}
	if aligned {
		t.tw = tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		t.w = t.tw
	}
	return t
}

func (t *table) Row(cols ...any) error {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = fmt.Sprint(c)
	}
	line := strings.Join(parts, "\t")
	if t.tw != nil {
		// tabwriter aligns cells terminated by a tab.
		line += "\t"
	}
	_, err := io.WriteString(t.w, line+"\n")
	return err
}

func (t *table) Flush() error {
	if t.tw == nil {
		return nil
	}
	return t.tw.Flush()
}
