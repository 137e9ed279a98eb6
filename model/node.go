// Package model defines the glyph tree consumed by the reconstruction
// algorithms and the layout structures they produce.
//
// The tree is produced by an external page-layout decoder: container nodes
// (page, text box, text line, figure) hold an ordered child list, character
// and annotation leaves carry text and font metadata, shape leaves carry
// only geometry. Node kinds form a closed set so that kind-filtering logic
// can be written as exhaustive switches.
package model

import (
	"fmt"
	"strings"
)

// Kind identifies the variant of a node in the decoded page tree.
type Kind int

const (
	// KindChar is a single positioned character.
	KindChar Kind = iota
	// KindAnno is an inter-character annotation (word break, newline)
	// inserted by the decoder. It has no geometry of its own.
	KindAnno
	// KindPage is the root container of one page.
	KindPage
	// KindTextBox is a container of text lines.
	KindTextBox
	// KindTextLine is a container of characters and annotations sharing a
	// baseline.
	KindTextLine
	// KindFigure is a container for embedded graphical content.
	KindFigure
	// KindImage is a raster image leaf.
	KindImage
	// KindCurve is a vector curve leaf.
	KindCurve
	// KindRect is a rectangle leaf.
	KindRect
	// KindLine is a straight line segment leaf.
	KindLine
)

// String returns the kind name as used in structure dumps.
func (k Kind) String() string {
	switch k {
	case KindChar:
		return "char"
	case KindAnno:
		return "anno"
	case KindPage:
		return "page"
	case KindTextBox:
		return "textbox"
	case KindTextLine:
		return "textline"
	case KindFigure:
		return "figure"
	case KindImage:
		return "image"
	case KindCurve:
		return "curve"
	case KindRect:
		return "rect"
	case KindLine:
		return "line"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsContainer reports whether nodes of this kind carry a child list.
func (k Kind) IsContainer() bool {
	switch k {
	case KindPage, KindTextBox, KindTextLine, KindFigure:
		return true
	default:
		return false
	}
}

// Node is one element of the decoded page tree.
type Node interface {
	Kind() Kind
	Bounds() BBox
}

// Parent is implemented by nodes that carry an ordered child list.
type Parent interface {
	Node
	Children() []Node
}

// Char is a single positioned character produced by the decoder.
type Char struct {
	Text string
	Box  BBox
	Font string
	Size float64
}

// Kind implements Node.
func (c *Char) Kind() Kind { return KindChar }

// Bounds implements Node.
func (c *Char) Bounds() BBox { return c.Box }

// LowerText returns the character's text lowercased.
func (c *Char) LowerText() string { return strings.ToLower(c.Text) }

// Anno is an inter-character annotation such as a synthesized word break
// (" ") or end of line ("\n"). Annotations carry no geometry.
type Anno struct {
	Text string
}

// Kind implements Node.
func (a *Anno) Kind() Kind { return KindAnno }

// Bounds implements Node.
func (a *Anno) Bounds() BBox { return BBox{} }

// LowerText returns the annotation's text lowercased.
func (a *Anno) LowerText() string { return strings.ToLower(a.Text) }

// Shape is a non-text leaf: an image, curve, rectangle or line segment.
type Shape struct {
	K   Kind
	Box BBox
}

// Kind implements Node.
func (s *Shape) Kind() Kind { return s.K }

// Bounds implements Node.
func (s *Shape) Bounds() BBox { return s.Box }

// Container is a node holding an ordered child list: a page, text box,
// text line or figure. The concatenated child text is computed lazily on
// first access and cached.
type Container struct {
	kind Kind
	box  BBox
	kids []Node

	lowerText    string
	textComputed bool
}

// NewContainer creates a container node of the given kind.
func NewContainer(kind Kind, box BBox, kids ...Node) *Container {
	return &Container{kind: kind, box: box, kids: kids}
}

// NewPage creates a page root node.
func NewPage(box BBox, kids ...Node) *Container {
	return NewContainer(KindPage, box, kids...)
}

// NewTextBox creates a text box container.
func NewTextBox(box BBox, kids ...Node) *Container {
	return NewContainer(KindTextBox, box, kids...)
}

// NewTextLine creates a text line container.
func NewTextLine(box BBox, kids ...Node) *Container {
	return NewContainer(KindTextLine, box, kids...)
}

// NewFigure creates a figure container.
func NewFigure(box BBox, kids ...Node) *Container {
	return NewContainer(KindFigure, box, kids...)
}

// Kind implements Node.
func (c *Container) Kind() Kind { return c.kind }

// Bounds implements Node.
func (c *Container) Bounds() BBox { return c.box }

// Children implements Parent.
func (c *Container) Children() []Node { return c.kids }

// LowerText returns the lowercased concatenation of the text carried by the
// container's direct children. The result is memoized on first access.
func (c *Container) LowerText() string {
	if !c.textComputed {
		var sb strings.Builder
		for _, kid := range c.kids {
			sb.WriteString(LowerText(kid))
		}
		c.lowerText = sb.String()
		c.textComputed = true
	}
	return c.lowerText
}

// LowerText returns the lowercased text carried by a node: the character or
// annotation text for leaves, the memoized child text for containers and the
// empty string for shapes. A nil node yields the empty string.
func LowerText(n Node) string {
	switch t := n.(type) {
	case *Char:
		return t.LowerText()
	case *Anno:
		return t.LowerText()
	case *Container:
		return t.LowerText()
	default:
		return ""
	}
}

// UnexpectedNodeError reports a node kind reaching a point where only known
// kinds are expected. It signals a modeling gap and aborts processing of the
// current page.
type UnexpectedNodeError struct {
	Node Node
	Op   string
}

// Error implements the error interface.
func (e *UnexpectedNodeError) Error() string {
	if e.Node == nil {
		return fmt.Sprintf("%s: unexpected nil node", e.Op)
	}
	return fmt.Sprintf("%s: unexpected %s node at %s", e.Op, e.Node.Kind(), e.Node.Bounds())
}
