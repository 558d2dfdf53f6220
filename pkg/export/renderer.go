package export

import (
	"fmt"
	"strings"
)

// Renderer turns a dataset into a downloadable document.
type Renderer interface {
	Render(data Dataset) ([]byte, error)
	ContentType() string
	Extension() string
}

// Format names a supported export format.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat normalises a user-supplied format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q", raw)
	}
}

// Registry maps formats to renderers.
type Registry map[Format]Renderer

// DefaultRegistry returns CSV and PDF renderers.
func DefaultRegistry() Registry {
	return Registry{
		FormatCSV: NewCSVExporter(),
		FormatPDF: NewPDFExporter(),
	}
}

// For returns the renderer for a format.
func (r Registry) For(format Format) (Renderer, error) {
	renderer, ok := r[format]
	if !ok {
		return nil, fmt.Errorf("no renderer for %s", format)
	}
	return renderer, nil
}
