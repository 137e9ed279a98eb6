// Package decode opens PDF documents and turns their pages into the node
// trees the rest of the library consumes.
//
// The heavy lifting is delegated to github.com/ledongthuc/pdf for content
// extraction and github.com/pdfcpu/pdfcpu for structural validation; this
// package only adapts their output to the model package's tree.
package decode

import (
	"bytes"
	"fmt"
	"os"

	"github.com/ledongthuc/pdf"

	"github.com/pdfgrid/pdfgrid/model"
)

// Document is an open PDF file. Close it when done.
type Document struct {
	path   string
	file   *os.File
	reader *pdf.Reader
}

// Open opens the PDF file at path.
func Open(path string) (*Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return &Document{path: path, file: f, reader: r}, nil
}

// Close releases the underlying file.
func (d *Document) Close() error {
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file = nil
	return err
}

// NumPages returns the document's page count.
func (d *Document) NumPages() int {
	return d.reader.NumPage()
}

// Text returns the whole document's plain text, pages concatenated in
// order.
func (d *Document) Text() (string, error) {
	var buf bytes.Buffer
	b, err := d.reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract text from %s: %w", d.path, err)
	}
	if _, err := buf.ReadFrom(b); err != nil {
		return "", fmt.Errorf("extract text from %s: %w", d.path, err)
	}
	return buf.String(), nil
}

// Page decodes page n (1-based) into a node tree rooted at a page
// container.
func (d *Document) Page(n int) (*model.Container, error) {
	if n < 1 || n > d.reader.NumPage() {
		return nil, fmt.Errorf("page %d: %s has %d pages", n, d.path, d.reader.NumPage())
	}
	page := d.reader.Page(n)
	if page.V.IsNull() {
		return nil, fmt.Errorf("page %d of %s: missing page object", n, d.path)
	}
	return BuildPage(page.Content().Text), nil
}
