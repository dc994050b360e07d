// Package profile counts retired instructions. A Table is safe for use from
// several goroutines; the machine records into it while the CLI may read it.
package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/oisee/gbcore/pkg/inst"
)

// Entry is the execution count of one instruction.
type Entry struct {
	Text   string `json:"text"`
	Opcode string `json:"opcode"` // hex opcode bytes, e.g. "cb 7c"
	Count  uint64 `json:"count"`
	Cycles uint64 `json:"cycles"` // machine cycles spent, summed
}

// Table accumulates entries keyed by spec.
type Table struct {
	mu      sync.Mutex
	entries map[inst.Spec]*Entry
	total   uint64
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{entries: make(map[inst.Spec]*Entry)}
}

// Record adds one retirement of s that took cycles machine cycles. Its
// signature matches cpu.CPU.OnRetire.
func (t *Table) Record(s inst.Spec, cycles int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[s]
	if !ok {
		e = &Entry{Text: inst.Text(s), Opcode: fmt.Sprintf("% x", inst.Encode(s))}
		t.entries[s] = e
	}
	e.Count++
	e.Cycles += uint64(cycles)
	t.total++
}

// Entries returns a copy of all entries, most executed first. Ties are broken
// by cycles, then by text.
func (t *Table) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	result := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		if result[i].Cycles != result[j].Cycles {
			return result[i].Cycles > result[j].Cycles
		}
		return result[i].Text < result[j].Text
	})
	return result
}

// Len returns the number of distinct instructions seen.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Total returns the number of retirements recorded.
func (t *Table) Total() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.total
}

// WriteJSON writes entries as an indented JSON array.
func WriteJSON(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(entries); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	return nil
}

// ReadJSON reads entries written by WriteJSON.
func ReadJSON(r io.Reader) ([]Entry, error) {
	var entries []Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	return entries, nil
}
