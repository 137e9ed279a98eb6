package decode

import (
	"fmt"
	"io"
	"strconv"

	"github.com/pdfgrid/pdfgrid/model"
)

// DumpStructure writes an indented rendition of the node tree under n to w,
// one node per line. Meant for scraper development: run it on a page to see
// which containers and text the scraping states will encounter.
func DumpStructure(w io.Writer, n model.Node) error {
	return dumpNode(w, n, 0)
}

func dumpNode(w io.Writer, n model.Node, depth int) error {
	indent := make([]byte, depth*2)
	for i := range indent {
		indent[i] = ' '
	}
	var line string
	switch t := n.(type) {
	case *model.Char:
		line = fmt.Sprintf("%s%s %s %q font=%s size=%.2f", indent, t.Kind(), t.Box, t.Text, t.Font, t.Size)
	case *model.Anno:
		line = fmt.Sprintf("%s%s %s", indent, t.Kind(), strconv.Quote(t.Text))
	case *model.Container:
		line = fmt.Sprintf("%s%s %s %q", indent, t.Kind(), t.Bounds(), t.LowerText())
	default:
		line = fmt.Sprintf("%s%s %s", indent, n.Kind(), n.Bounds())
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}
	if parent, ok := n.(model.Parent); ok {
		for _, kid := range parent.Children() {
			if err := dumpNode(w, kid, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
