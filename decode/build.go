package decode

import (
	"sort"

	"github.com/ledongthuc/pdf"

	"github.com/pdfgrid/pdfgrid/model"
)

// wordGapFactor scales the font size to give the horizontal gap between two
// text chunks above which a word break is synthesized between them.
const wordGapFactor = 0.3

// BuildPage assembles the positioned text chunks of one page into a page
// node containing a text box of text lines. Chunks sharing a baseline, font
// and size form one line, top to bottom; within a line, chunks are ordered
// left to right and separated by a synthetic word-break annotation when the
// horizontal gap between them is wide enough.
func BuildPage(texts []pdf.Text) *model.Container {
	type lineKey struct {
		y    float64
		font string
		size float64
	}

	index := map[lineKey][]pdf.Text{}
	for _, t := range texts {
		if t.S == "" {
			continue
		}
		key := lineKey{y: t.Y, font: t.Font, size: t.FontSize}
		index[key] = append(index[key], t)
	}

	keys := make([]lineKey, 0, len(index))
	for key := range index {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.y != b.y {
			return a.y > b.y
		}
		if a.font != b.font {
			return a.font < b.font
		}
		return a.size < b.size
	})

	var lines []model.Node
	for _, key := range keys {
		chunks := index[key]
		sort.Slice(chunks, func(i, j int) bool { return chunks[i].X < chunks[j].X })

		var kids []model.Node
		prevX1 := 0.0
		for i, t := range chunks {
			box := model.BBox{X0: t.X, Y0: t.Y, X1: t.X + t.W, Y1: t.Y + t.FontSize}
			if t.S == " " {
				kids = append(kids, &model.Anno{Text: " "})
				prevX1 = box.X1
				continue
			}
			if i > 0 && t.X-prevX1 > t.FontSize*wordGapFactor {
				kids = append(kids, &model.Anno{Text: " "})
			}
			kids = append(kids, &model.Char{Text: t.S, Box: box, Font: t.Font, Size: t.FontSize})
			prevX1 = box.X1
		}
		if len(kids) == 0 {
			continue
		}
		lines = append(lines, model.NewTextLine(unionBounds(kids), kids...))
	}

	if len(lines) == 0 {
		return model.NewPage(model.BBox{})
	}
	box := unionBounds(lines)
	return model.NewPage(box, model.NewTextBox(box, lines...))
}

// unionBounds returns the bounding box enclosing every node with a
// non-empty box. Annotations have no position and are ignored.
func unionBounds(nodes []model.Node) model.BBox {
	var box model.BBox
	first := true
	for _, n := range nodes {
		if _, ok := n.(*model.Anno); ok {
			continue
		}
		b := n.Bounds()
		if first {
			box = b
			first = false
			continue
		}
		if b.X0 < box.X0 {
			box.X0 = b.X0
		}
		if b.Y0 < box.Y0 {
			box.Y0 = b.Y0
		}
		if b.X1 > box.X1 {
			box.X1 = b.X1
		}
		if b.Y1 > box.Y1 {
			box.Y1 = b.Y1
		}
	}
	return box
}
