package register

import (
	"crypto/sha256"
	"sync"
)

// Grid is the fully expanded monthly register. It is rebuilt wholesale on
// every payload change and never modified afterwards.
type Grid struct {
	Days    []Day
	Slots   []Slot
	Columns []Column
	DaySpan map[string]int
	Rows    []Row
	DayInfo map[string]DayInfo
	Legend  map[string]string
	Summary map[string]any
}

// Build runs the four stages in order: normalize days and slots, expand
// columns, tally day spans, materialize rows.
func Build(p *Payload) *Grid {
	if p == nil {
		p = &Payload{}
	}
	days := NormalizeDays(p.Days)
	slots := NormalizeSlots(p.Slots)
	columns := ExpandColumns(days, slots, p.Classes)

	return &Grid{
		Days:    days,
		Slots:   slots,
		Columns: columns,
		DaySpan: DaySpans(columns),
		Rows:    BuildRows(p.Apprentices, columns, p.DayInfo, p.Legend),
		DayInfo: p.DayInfo,
		Legend:  p.Legend,
		Summary: p.Summary,
	}
}

// SlotLabel returns the label of the slot with the given code.
func (g *Grid) SlotLabel(code string) string {
	for _, s := range g.Slots {
		if s.Code == code {
			return s.Label
		}
	}
	return code
}

// LegendLabel prefers the server's legend override for code.
func (g *Grid) LegendLabel(code string) string {
	if l := g.Legend[code]; l != "" {
		return l
	}
	return StatusLabel(code)
}

// Builder memoizes the last grid by a digest of the raw payload bytes.
type Builder struct {
	mu     sync.Mutex
	digest [sha256.Size]byte
	grid   *Grid
}

func NewBuilder() *Builder {
	return &Builder{}
}

// Build decodes and expands raw, or returns the cached grid when raw is
// unchanged since the previous call.
func (b *Builder) Build(raw []byte) (*Grid, error) {
	sum := sha256.Sum256(raw)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.grid != nil && sum == b.digest {
		return b.grid, nil
	}

	p, err := DecodePayload(raw)
	if err != nil {
		return nil, err
	}

	b.grid = Build(p)
	b.digest = sum
	return b.grid, nil
}

// Reset drops the cached grid.
func (b *Builder) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.grid = nil
}
