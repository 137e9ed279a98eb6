package model

// Glyph is the unit of layout reconstruction: one character extracted from
// the tree together with its geometry, font metadata and a flag telling
// whether it was immediately preceded by a word-break annotation (which
// controls leading-space insertion when the glyph is merged into a block).
type Glyph struct {
	Text      string
	Box       BBox
	Font      string
	Size      float64
	WordBreak bool
}

// MergeFunc decides whether the next glyph may be merged into an existing
// text block.
type MergeFunc func(block *TextBlock, g Glyph) bool

// GroupFunc decides whether a line may be merged into the line just above
// it. latest is always the higher of the two lines (latest.Y0 >= cur.Y0).
type GroupFunc func(cur, latest LineInfo) bool

// LineInfo holds the line attributes needed for line grouping decisions.
type LineInfo struct {
	Y0   float64
	Font string
	Size float64
}

// TextBlock is a contiguous run of glyphs merged left to right into one
// text fragment. X1 is non-decreasing as glyphs are appended and X0 never
// moves once the block exists; LatestX0 tracks the left edge of the most
// recently appended glyph.
type TextBlock struct {
	Text     string
	X0       float64
	X1       float64
	LatestX0 float64
}

// Append extends the block to the right with already-formatted text.
func (b *TextBlock) Append(text string, x0, x1 float64) {
	b.Text += text
	b.X1 = x1
	b.LatestX0 = x0
}

// Line is an ordered sequence of text blocks sharing one baseline and font
// cluster. Blocks are kept sorted by their left edge; a parallel sorted
// slice of right edges locates the insertion point for each new glyph.
type Line struct {
	Font string
	Size float64
	Y0   float64

	// Blocks are the line's text blocks, ordered left to right.
	Blocks []*TextBlock

	// rightEdges[i] is the right edge of Blocks[i], kept sorted.
	rightEdges []float64
}

// NewLine creates an empty line for the given font cluster.
func NewLine(font string, size, y0 float64) *Line {
	return &Line{Font: font, Size: size, Y0: y0}
}

// Append places a glyph into the line: it is merged into the block whose
// right edge is nearest to its left, when merge accepts the pair, or starts
// a new block at the insertion point otherwise. Glyphs with zero measured
// width (pictograms) get a synthesized width of size/10 before any merge
// decision is made.
func (l *Line) Append(g Glyph, merge MergeFunc) {
	if g.Box.Width() == 0 {
		// some glyphs (pictograms) come with zero width; size/10 was
		// found empirically and is still better than zero
		g.Box.X1 = g.Box.X0 + g.Size/10
	}

	i := bisectRight(l.rightEdges, g.Box.X1)
	if i > 0 && merge(l.Blocks[i-1], g) {
		text := g.Text
		if g.WordBreak {
			text = " " + text
		}
		l.Blocks[i-1].Append(text, g.Box.X0, g.Box.X1)
		l.rightEdges[i-1] = g.Box.X1
		return
	}

	block := &TextBlock{Text: g.Text, X0: g.Box.X0, X1: g.Box.X1, LatestX0: g.Box.X0}
	l.Blocks = append(l.Blocks, nil)
	copy(l.Blocks[i+1:], l.Blocks[i:])
	l.Blocks[i] = block
	l.rightEdges = append(l.rightEdges, 0)
	copy(l.rightEdges[i+1:], l.rightEdges[i:])
	l.rightEdges[i] = g.Box.X1
}

// InsertBlank prepends an empty block, preserving column alignment when the
// line continues a group whose previous line has leading columns this line
// lacks.
func (l *Line) InsertBlank() {
	l.Blocks = append([]*TextBlock{{}}, l.Blocks...)
	l.rightEdges = append([]float64{0}, l.rightEdges...)
}

// bisectRight returns the index after the last element <= x in the sorted
// slice edges.
func bisectRight(edges []float64, x float64) int {
	lo, hi := 0, len(edges)
	for lo < hi {
		mid := (lo + hi) / 2
		if x < edges[mid] {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo
}

// LinesGroup is an ordered sequence of lines forming one logical column or
// paragraph cluster on a page, top to bottom.
type LinesGroup struct {
	Lines []*Line
}

// Append adds a line at the bottom of the group.
func (g *LinesGroup) Append(l *Line) {
	g.Lines = append(g.Lines, l)
}

// Last returns the bottom-most line of the group, or nil when empty.
func (g *LinesGroup) Last() *Line {
	if len(g.Lines) == 0 {
		return nil
	}
	return g.Lines[len(g.Lines)-1]
}
