package main

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/INLOpen/meryl/mer"
)

// entry accumulates every occurrence of one mer across the inputs.
type entry struct {
	mer       mer.Mer
	count     uint64
	positions []uint32
}

// listing collects mers read from text inputs of the form
//
//	SEQUENCE [COUNT [POS,POS,...]]
//
// Blank lines and lines starting with '#' are skipped. A missing count
// is 1. Repeated mers have their counts summed and positions appended.
type listing struct {
	merSize   uint32
	canonical bool
	entries   map[mer.Mer]*entry
	lines     uint64
}

func newListing(merSize uint32, canonical bool) *listing {
	return &listing{merSize: merSize, canonical: canonical, entries: make(map[mer.Mer]*entry)}
}

func (l *listing) read(r io.Reader, name string) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		if err := l.add(sc.Text()); err != nil {
			return fmt.Errorf("%s:%d: %w", name, lineNo, err)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func (l *listing) add(line string) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}
	fields := strings.Fields(line)
	if len(fields) > 3 {
		return fmt.Errorf("expected at most 3 fields, got %d", len(fields))
	}
	if uint32(len(fields[0])) != l.merSize {
		return fmt.Errorf("mer %q has %d bases, want %d", fields[0], len(fields[0]), l.merSize)
	}
	m, err := mer.Parse(fields[0])
	if err != nil {
		return err
	}
	if l.canonical {
		m = m.Canonical(l.merSize)
	}

	count := uint64(1)
	if len(fields) > 1 {
		if count, err = strconv.ParseUint(fields[1], 10, 64); err != nil {
			return fmt.Errorf("bad count %q: %w", fields[1], err)
		}
		if count == 0 {
			return fmt.Errorf("count must be at least 1")
		}
	}

	var positions []uint32
	if len(fields) > 2 {
		for _, p := range strings.Split(fields[2], ",") {
			v, err := strconv.ParseUint(p, 10, 32)
			if err != nil {
				return fmt.Errorf("bad position %q: %w", p, err)
			}
			positions = append(positions, uint32(v))
		}
	}

	l.lines++
	e, ok := l.entries[m]
	if !ok {
		l.entries[m] = &entry{mer: m, count: count, positions: positions}
		return nil
	}
	if e.count > ^uint64(0)-count {
		return fmt.Errorf("count for %s overflows", fields[0])
	}
	e.count += count
	e.positions = append(e.positions, positions...)
	return nil
}

// sorted returns the entries in increasing mer order.
func (l *listing) sorted() []*entry {
	out := make([]*entry, 0, len(l.entries))
	for _, e := range l.entries {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b *entry) int {
		switch {
		case a.mer < b.mer:
			return -1
		case a.mer > b.mer:
			return 1
		}
		return 0
	})
	return out
}
