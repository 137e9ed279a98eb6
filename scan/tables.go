package scan

import (
	"math"
	"sort"
	"strings"

	"github.com/pdfgrid/pdfgrid/model"
)

// Table regrouping defaults; all empirically tuned and adjustable through
// TablesConfig / the regrouping functions.
const (
	// DefaultWordGap is the horizontal spacing (points) above which a
	// word break inside a text line splits the row into separate cells.
	DefaultWordGap = 10.0
	// DefaultRowGap is the vertical spacing (points) under which two
	// collected rows are regrouped into one.
	DefaultRowGap = 5.0
	// DefaultWrapGap is the vertical spacing (points) under which a
	// single-cell row is folded into the first column of the row above.
	DefaultWrapGap = 16.0
)

// CellKey locates one table cell by its rounded horizontal extent.
type CellKey struct {
	X0 int
	X1 int
}

// TableData accumulates text fragments keyed by vertical position then by
// cell extent while a page is being collected.
type TableData map[float64]map[CellKey]string

// Row is one regrouped table row: its representative Y coordinate and the
// text of each cell.
type Row struct {
	Y     float64
	Cells map[CellKey]string
}

// CollectEndFunc receives the collected page data once the end-of-page step
// arrives: the state just before the sentinel, the shared sink and the raw
// TableData. The returned state, when non-empty, becomes the current state;
// a non-nil error aborts the page.
type CollectEndFunc func(state State, sink Sink, data TableData) (State, error)

// TablesConfig parameterizes CollectTables.
type TablesConfig struct {
	// TriggerStates are the states from which the collector watches for
	// the trigger text.
	TriggerStates []State
	// TriggerPrefix opens a collection when a node's lowercased text
	// starts with it while the state is one of TriggerStates.
	TriggerPrefix string
	// OnCollectEnd is invoked at each end of page while collecting.
	OnCollectEnd CollectEndFunc
	// WordGap overrides DefaultWordGap when positive.
	WordGap float64
}

// CollectTables returns a processor collecting every text line not consumed
// by a downstream stage into a TableData accumulator, indexed by geometry.
// This recovers tables whose nodes appear at arbitrary places in the
// decoded tree, which is unfortunately usual. Collection starts when, in
// one of the trigger states, a node's text starts with the trigger prefix;
// it ends at the end-of-page step (and may resume on a later page).
//
// The raw TableData is typically simplified with RegroupLines and
// RegroupWrappedHeaders before consumption.
func CollectTables(cfg TablesConfig) Processor {
	states := make(map[State]bool, len(cfg.TriggerStates))
	for _, st := range cfg.TriggerStates {
		states[st] = true
	}
	if cfg.WordGap <= 0 {
		cfg.WordGap = DefaultWordGap
	}
	return func(upstream StepSource, sink Sink) StepSource {
		return &tableSource{up: upstream, sink: sink, cfg: cfg, states: states}
	}
}

type tableSource struct {
	up     StepSource
	sink   Sink
	cfg    TablesConfig
	states map[State]bool

	data    TableData
	last    Step
	prev    State // most recent non-sentinel state
	started bool
	final   State
}

func (s *tableSource) Next(reply Reply) (Step, bool, error) {
	if !s.started {
		s.started = true
		return s.pull(Reply{})
	}

	if reply.Recurse == RecurseNo {
		// node was consumed by a downstream stage, don't collect it
		return s.pull(reply)
	}

	state := reply.State
	if state != EndOfPage {
		s.prev = state
	}

	if s.data == nil && s.states[state] && s.last.Node != nil &&
		strings.HasPrefix(model.LowerText(s.last.Node), s.cfg.TriggerPrefix) {
		s.data = TableData{}
	}

	if s.data != nil {
		if state == EndOfPage {
			// all the page's table nodes have been collected now
			next, err := s.cfg.OnCollectEnd(s.prev, s.sink, s.data)
			if err != nil {
				return Step{}, false, err
			}
			if next != "" {
				state = next
			}
			s.data = nil
		} else if s.last.Node != nil && s.last.Node.Kind() == model.KindTextLine {
			line, ok := s.last.Node.(*model.Container)
			if !ok {
				return Step{}, false, &model.UnexpectedNodeError{Node: s.last.Node, Op: "collect tables"}
			}
			if err := s.saveLine(line); err != nil {
				return Step{}, false, err
			}
		}
	}

	return s.pull(Reply{Recurse: reply.Recurse, State: state})
}

func (s *tableSource) Final() State { return s.final }

func (s *tableSource) pull(reply Reply) (Step, bool, error) {
	step, ok, err := s.up.Next(reply)
	if err != nil || !ok {
		s.final = s.up.Final()
		return Step{}, false, err
	}
	s.last = step
	return step, true, nil
}

// saveLine indexes one text line's cells by their bounding geometry, so the
// table structure can be recovered later. A word break whose surrounding
// glyphs are further apart than WordGap starts a new cell.
func (s *tableSource) saveLine(line *model.Container) error {
	type cell struct {
		x0, x1 float64
		text   strings.Builder
	}

	kids := line.Children()
	var cells []*cell
	var last model.Node
	for i, kid := range kids {
		switch t := kid.(type) {
		case *model.Char:
			if len(cells) == 0 {
				cells = append(cells, &cell{x0: t.Box.X0, x1: t.Box.X1})
			}
			cur := cells[len(cells)-1]
			cur.x1 = t.Box.X1
			cur.text.WriteString(t.LowerText())
		case *model.Anno:
			switch t.Text {
			case " ":
				if len(cells) == 0 {
					// leading word break, nothing to attach it to
					break
				}
				if i+1 < len(kids) && kids[i+1].Bounds().X1-last.Bounds().X1 > s.cfg.WordGap {
					cells = append(cells, &cell{x0: last.Bounds().X1, x1: last.Bounds().X1})
				} else {
					cells[len(cells)-1].text.WriteString(" ")
				}
			case "\n":
				// end of line marker
			default:
				return &model.UnexpectedNodeError{Node: kid, Op: "collect tables"}
			}
		default:
			return &model.UnexpectedNodeError{Node: kid, Op: "collect tables"}
		}
		last = kid
	}
	if len(cells) == 0 {
		return nil
	}

	y := line.Bounds().Y0
	row := s.data[y]
	if row == nil {
		row = map[CellKey]string{}
		s.data[y] = row
	}
	for _, c := range cells {
		key := CellKey{X0: int(math.Round(c.x0)), X1: int(math.Round(c.x1))}
		row[key] = c.text.String()
	}
	return nil
}

// RegroupLines merges TableData buckets whose Y coordinates differ by less
// than rowGap into single rows and returns them top to bottom. This is
// usually the first step of table data post-processing, since cells of one
// visual row rarely share an exact baseline. A non-positive rowGap selects
// DefaultRowGap.
func RegroupLines(data TableData, rowGap float64) []Row {
	if rowGap <= 0 {
		rowGap = DefaultRowGap
	}
	ys := make([]float64, 0, len(data))
	for y := range data {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(ys)))

	var rows []Row
	var stacked *Row
	for _, y := range ys {
		switch {
		case stacked == nil:
			stacked = &Row{Y: y, Cells: copyCells(data[y])}
		case stacked.Y-y > rowGap:
			rows = append(rows, *stacked)
			stacked = &Row{Y: y, Cells: copyCells(data[y])}
		default:
			for key, text := range data[y] {
				stacked.Cells[key] = text
			}
		}
	}
	if stacked != nil {
		rows = append(rows, *stacked)
	}
	return rows
}

// RegroupWrappedHeaders folds rows detected as the line-wrapped remainder
// of the previous row's first column back into that column: a row holding a
// single cell, left-aligned with the previous row's first column and closer
// than wrapGap below it, is concatenated (space separated) instead of being
// emitted. Texts in skipTokens are never folded. A non-positive wrapGap
// selects DefaultWrapGap.
func RegroupWrappedHeaders(rows []Row, skipTokens map[string]bool, wrapGap float64) []Row {
	if wrapGap <= 0 {
		wrapGap = DefaultWrapGap
	}
	var out []Row
	var stacked *Row
	for _, row := range rows {
		if stacked == nil {
			r := row
			stacked = &r
			continue
		}
		if len(row.Cells) == 1 {
			key, text := singleCell(row.Cells)
			first := minCellKey(stacked.Cells)
			if !skipTokens[text] && key.X0 == first.X0 && stacked.Y-row.Y < wrapGap {
				stacked.Cells[first] += " " + text
				continue
			}
		}
		out = append(out, *stacked)
		r := row
		stacked = &r
	}
	if stacked != nil {
		out = append(out, *stacked)
	}
	return out
}

// Columns projects each row onto the ordered list of its cell texts, for
// straightforward tabular consumption.
func Columns(rows []Row) [][]string {
	out := make([][]string, 0, len(rows))
	for _, row := range rows {
		keys := sortedCellKeys(row.Cells)
		texts := make([]string, 0, len(keys))
		for _, key := range keys {
			texts = append(texts, row.Cells[key])
		}
		out = append(out, texts)
	}
	return out
}

func copyCells(cells map[CellKey]string) map[CellKey]string {
	out := make(map[CellKey]string, len(cells))
	for key, text := range cells {
		out[key] = text
	}
	return out
}

func singleCell(cells map[CellKey]string) (CellKey, string) {
	for key, text := range cells {
		return key, text
	}
	return CellKey{}, ""
}

func minCellKey(cells map[CellKey]string) CellKey {
	var min CellKey
	first := true
	for key := range cells {
		if first || key.Less(min) {
			min = key
			first = false
		}
	}
	return min
}

func sortedCellKeys(cells map[CellKey]string) []CellKey {
	keys := make([]CellKey, 0, len(cells))
	for key := range cells {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// Less orders cell keys left to right, then by right edge.
func (k CellKey) Less(other CellKey) bool {
	if k.X0 != other.X0 {
		return k.X0 < other.X0
	}
	return k.X1 < other.X1
}
