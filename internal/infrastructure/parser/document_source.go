package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"GrantChecker/internal/domain"
	"GrantChecker/internal/ports"
	"GrantChecker/internal/source"
)

// DocumentSource reads an uploaded requirement document. HTML and plain-text
// files are read locally; anything else goes through the document parser.
type DocumentSource struct {
	parser ports.DocumentParser
}

var _ source.Source = (*DocumentSource)(nil)

// NewDocumentSource wires a document parser; nil disables binary documents.
func NewDocumentSource(parser ports.DocumentParser) *DocumentSource {
	return &DocumentSource{parser: parser}
}

// Name identifies the strategy inside the registry.
func (d *DocumentSource) Name() string {
	return source.Document
}

// Fetch returns the document's text.
func (d *DocumentSource) Fetch(ctx context.Context, req source.Request) (source.Content, error) {
	if req.Document == nil {
		return source.Content{}, fmt.Errorf("document source: no document")
	}
	doc := *req.Document

	switch strings.ToLower(filepath.Ext(doc.Name)) {
	case ".html", ".htm":
		f, err := os.Open(doc.Path)
		if err != nil {
			return source.Content{}, fmt.Errorf("open %s: %w", doc.Name, err)
		}
		defer f.Close()
		text, err := ExtractText(f)
		if err != nil {
			return source.Content{}, fmt.Errorf("document %s: %w", doc.Name, err)
		}
		return source.Content{Text: text, Origin: doc.Name}, nil
	case ".txt", ".md":
		raw, err := os.ReadFile(doc.Path)
		if err != nil {
			return source.Content{}, fmt.Errorf("read %s: %w", doc.Name, err)
		}
		return source.Content{Text: string(raw), Origin: doc.Name}, nil
	}

	if d.parser == nil {
		return source.Content{}, domain.MissingCredential("document parsing")
	}
	parsed, err := d.parser.Parse(ctx, doc)
	if err != nil {
		return source.Content{}, fmt.Errorf("parse %s: %w", doc.Name, err)
	}
	return source.Content{Text: parsed.Text, Origin: doc.Name}, nil
}
