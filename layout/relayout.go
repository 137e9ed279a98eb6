// Package layout reconstructs the visual structure of a decoded page from
// its flat, arbitrarily ordered set of glyphs.
//
// Relayout clusters glyphs into text blocks, blocks into lines and lines
// into column groups, using only geometry and font continuity. It runs
// directly on the glyph tree and is independent of the scan processor
// chain.
package layout

import (
	"math"
	"sort"
	"strings"

	"github.com/pdfgrid/pdfgrid/model"
)

// Clustering defaults. All of these were tuned empirically against real
// documents; override them through Config when they do not fit.
const (
	// DefaultWidthFactor scales a glyph's width to give the maximum
	// spacing under which it still merges into the preceding block.
	DefaultWidthFactor = 1.4
	// DefaultSizeDiffFactor scales the larger of two font sizes to give
	// the maximum font size difference allowed for merging two lines.
	DefaultSizeDiffFactor = 0.15
	// DefaultMinYDiff floors the allowed baseline offset when merging
	// lines, so identical font sizes don't collapse the tolerance to 0.
	DefaultMinYDiff = 1.1
	// DefaultBoldYFactor widens the allowed baseline offset when exactly
	// one of two fonts is a bold variant.
	DefaultBoldYFactor = 1.5
	// DefaultGroupGapFactor scales a line's font size to give the
	// vertical gap above which a new column group starts.
	DefaultGroupGapFactor = 2.0
)

// Config controls Relayout. The zero value selects all defaults.
type Config struct {
	// SkipKinds are node kinds not recursed into during glyph
	// collection. When nil, figures, images, curves, rectangles and
	// line segments are skipped.
	SkipKinds []model.Kind

	// SkipText drops any reconstructed line bucket whose text exactly
	// matches an entry, before line merging and grouping decisions are
	// finalized. Useful to blank out margin boilerplate cluttering the
	// desired text.
	SkipText map[string]bool

	// Filter drops individual glyphs (margin decorations, watermark
	// font sizes) when it returns false. Nil keeps every glyph.
	Filter func(model.Glyph) bool

	// MergeText decides block merging; nil selects
	// DefaultTextMerger(DefaultWidthFactor).
	MergeText model.MergeFunc

	// GroupLine decides line merging; nil selects DefaultLineGrouper
	// with the default tolerances.
	GroupLine model.GroupFunc

	// GroupGapFactor overrides DefaultGroupGapFactor when positive.
	GroupGapFactor float64
}

// DefaultSkipKinds returns the node kinds skipped during glyph collection
// when Config.SkipKinds is nil.
func DefaultSkipKinds() []model.Kind {
	return []model.Kind{
		model.KindCurve, model.KindFigure, model.KindImage,
		model.KindLine, model.KindRect,
	}
}

// DefaultTextMerger returns a MergeFunc accepting a glyph into a block when
// the spacing between them does not exceed widthFactor times the glyph's
// width.
func DefaultTextMerger(widthFactor float64) model.MergeFunc {
	return func(block *model.TextBlock, g model.Glyph) bool {
		return g.Box.X0-block.X1 <= g.Box.Width()*widthFactor
	}
}

// DefaultLineGrouper returns a GroupFunc merging two lines when their font
// sizes are compatible and their baseline offset is below a tolerance
// derived from the size difference, widened by boldYFactor when exactly one
// of the fonts is a bold variant and floored at minYDiff.
func DefaultLineGrouper(sizeDiffFactor, minYDiff, boldYFactor float64) model.GroupFunc {
	return func(cur, latest model.LineInfo) bool {
		allowedDiff := math.Max(latest.Size, cur.Size) * sizeDiffFactor
		diff := math.Abs(latest.Size - cur.Size)

		allowedYDiff := diff
		if isBoldFont(cur.Font) != isBoldFont(latest.Font) {
			allowedYDiff = diff * boldYFactor
		}
		allowedYDiff = math.Max(allowedYDiff, minYDiff)

		return diff < allowedDiff && latest.Y0-cur.Y0 < allowedYDiff
	}
}

func isBoldFont(name string) bool {
	return strings.HasSuffix(name, "-bold")
}

// lineKey identifies one raw line bucket during collection.
type lineKey struct {
	y0   float64
	font string
	size float64
}

// bucket indexes a line's glyphs by their left edge, in arrival order.
type bucket map[float64][]model.Glyph

// Relayout rebuilds the logical layout of the glyphs under root and returns
// the resulting column groups ordered by their topmost line, top to bottom.
//
// Glyphs are bucketed by (baseline, font, size), merged left to right into
// blocks, buckets within tolerance are merged into single lines, and lines
// are clustered into column groups by leading-edge alignment and vertical
// spacing. The result is independent of the tree's internal node order.
func Relayout(root model.Node, cfg Config) ([]*model.LinesGroup, error) {
	skip := make(map[model.Kind]bool)
	kinds := cfg.SkipKinds
	if kinds == nil {
		kinds = DefaultSkipKinds()
	}
	for _, k := range kinds {
		skip[k] = true
	}
	merge := cfg.MergeText
	if merge == nil {
		merge = DefaultTextMerger(DefaultWidthFactor)
	}
	group := cfg.GroupLine
	if group == nil {
		group = DefaultLineGrouper(DefaultSizeDiffFactor, DefaultMinYDiff, DefaultBoldYFactor)
	}
	gapFactor := cfg.GroupGapFactor
	if gapFactor <= 0 {
		gapFactor = DefaultGroupGapFactor
	}

	index, err := collectGlyphs(root, skip, cfg.Filter)
	if err != nil {
		return nil, err
	}

	mergeLineBuckets(index, cfg.SkipText, group)

	lines := buildLines(index, merge)

	return groupLines(lines, gapFactor), nil
}

// collectGlyphs walks the filtered tree and buckets every retained glyph by
// (baseline, lowercased font name, font size).
func collectGlyphs(root model.Node, skip map[model.Kind]bool, filter func(model.Glyph) bool) (map[lineKey]bucket, error) {
	index := map[lineKey]bucket{}
	latestIsAnno := false

	var walk func(n model.Node) error
	walk = func(n model.Node) error {
		if skip[n.Kind()] {
			return nil
		}
		switch t := n.(type) {
		case *model.Container:
			for _, kid := range t.Children() {
				if err := walk(kid); err != nil {
					return err
				}
			}
		case *model.Anno:
			latestIsAnno = true
		case *model.Char:
			g := model.Glyph{
				Text:      t.Text,
				Box:       t.Box,
				Font:      t.Font,
				Size:      t.Size,
				WordBreak: latestIsAnno,
			}
			latestIsAnno = false
			if filter != nil && !filter(g) {
				return nil
			}
			key := lineKey{y0: t.Box.Y0, font: strings.ToLower(t.Font), size: t.Size}
			b := index[key]
			if b == nil {
				b = bucket{}
				index[key] = b
			}
			b[g.Box.X0] = append(b[g.Box.X0], g)
		default:
			return &model.UnexpectedNodeError{Node: n, Op: "relayout"}
		}
		return nil
	}

	// a page whose whole content is wrapped in a single figure we would
	// otherwise skip: unwrap it and collect the figure's children
	roots := []model.Node{root}
	if parent, ok := root.(model.Parent); ok && skip[model.KindFigure] {
		kids := parent.Children()
		if len(kids) == 1 && kids[0].Kind() == model.KindFigure {
			if figure, ok := kids[0].(model.Parent); ok {
				roots = figure.Children()
			}
		}
	}
	for _, n := range roots {
		if err := walk(n); err != nil {
			return nil, err
		}
	}
	return index, nil
}

// mergeLineBuckets regroups buckets that are out of sync because of
// differing font sizes (bold vs standard variants, typically), scanning top
// to bottom and merging each bucket into its accepted predecessor. Buckets
// whose text matches skipText are dropped before any decision.
func mergeLineBuckets(index map[lineKey]bucket, skipText map[string]bool, group model.GroupFunc) {
	var latest lineKey
	haveLatest := false
	for _, key := range sortedKeysDesc(index) {
		b := index[key]
		if skipText != nil && skipText[bucketText(b)] {
			delete(index, key)
			continue
		}

		if haveLatest {
			cur := model.LineInfo{Y0: key.y0, Font: key.font, Size: key.size}
			prev := model.LineInfo{Y0: latest.y0, Font: latest.font, Size: latest.size}
			if group(cur, prev) {
				for x, glyphs := range index[latest] {
					b[x] = glyphs
				}
				delete(index, latest)
			}
		}
		latest = key
		haveLatest = true
	}
}

// buildLines turns the final buckets into Lines, top to bottom, appending
// glyphs in left-to-right order.
func buildLines(index map[lineKey]bucket, merge model.MergeFunc) []*model.Line {
	lines := make([]*model.Line, 0, len(index))
	for _, key := range sortedKeysDesc(index) {
		line := model.NewLine(key.font, key.size, key.y0)
		b := index[key]
		for _, x := range sortedXs(b) {
			for _, g := range b[x] {
				line.Append(g, merge)
			}
		}
		lines = append(lines, line)
	}
	return lines
}

// groupLines clusters lines into column groups and returns all groups
// ordered by their topmost line, top to bottom.
func groupLines(lines []*model.Line, gapFactor float64) []*model.LinesGroup {
	index := map[float64][]*model.LinesGroup{}
	var keyOrder []float64
	var prev *model.LinesGroup
	for _, line := range lines {
		g := lineGroup(line, index, &keyOrder, prev, gapFactor)
		g.Append(line)
		prev = g
	}

	var groups []*model.LinesGroup
	for _, x := range keyOrder {
		groups = append(groups, index[x]...)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Lines[0].Y0 > groups[j].Lines[0].Y0
	})
	return groups
}

// lineGroup selects the group a line belongs to, given the groups indexed
// by their leading x coordinate and the group the line just above was added
// to.
func lineGroup(line *model.Line, index map[float64][]*model.LinesGroup, keyOrder *[]float64, prev *model.LinesGroup, gapFactor float64) *model.LinesGroup {
	start := line.Blocks[0].X0

	if prev != nil {
		// continue the previous group when the line starts at some
		// column of that group's last line, padding skipped columns
		// with blank blocks
		for idx, block := range prev.Last().Blocks {
			if block.X0 == start {
				for ; idx > 0; idx-- {
					line.InsertBlank()
				}
				return prev
			}
		}
	}

	groups, ok := index[start]
	if !ok {
		g := &model.LinesGroup{}
		index[start] = []*model.LinesGroup{g}
		*keyOrder = append(*keyOrder, start)
		return g
	}

	g := groups[len(groups)-1]
	switch {
	case g.Last().Y0-line.Y0 > line.Size*gapFactor:
		// too much vertical spacing since the group's last line
		g = &model.LinesGroup{}
		index[start] = append(groups, g)
	case prev != nil && overlapsPrevious(prev.Last(), line):
		// the previous line overlaps this one horizontally, so the
		// column continuation is ambiguous
		g = &model.LinesGroup{}
		index[start] = append(groups, g)
	}
	return g
}

// overlapsPrevious reports whether the previous group's last line spans the
// same horizontal range as line.
func overlapsPrevious(prevLast, line *model.Line) bool {
	return prevLast.Blocks[len(prevLast.Blocks)-1].X1 > line.Blocks[0].X0 &&
		prevLast.Blocks[0].X0 < line.Blocks[len(line.Blocks)-1].X1
}

// bucketText reconstructs a bucket's text for skip-text matching, inserting
// a word break before glyphs flagged as preceded by one (except at the very
// start).
func bucketText(b bucket) string {
	var sb strings.Builder
	for i, x := range sortedXs(b) {
		for _, g := range b[x] {
			if i > 0 && g.WordBreak {
				sb.WriteString(" ")
			}
			sb.WriteString(g.Text)
		}
	}
	return sb.String()
}

// sortedKeysDesc orders bucket keys by baseline descending (top of page
// first), breaking ties on font name then size.
func sortedKeysDesc(index map[lineKey]bucket) []lineKey {
	keys := make([]lineKey, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.y0 != b.y0 {
			return a.y0 > b.y0
		}
		if a.font != b.font {
			return a.font > b.font
		}
		return a.size > b.size
	})
	return keys
}

func sortedXs(b bucket) []float64 {
	xs := make([]float64, 0, len(b))
	for x := range b {
		xs = append(xs, x)
	}
	sort.Float64s(xs)
	return xs
}
