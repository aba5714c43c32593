// Package render turns invoice summaries into opaque document bytes.
package render

import "context"

// MeterLine is one per-meter row on the rendered document.
type MeterLine struct {
	Meter string
	Usage string
	Cost  string
}

// Document is the structured, already-formatted view handed to a renderer.
type Document struct {
	InvoiceNumber   string
	IssueDate       string
	PeriodStart     string
	PeriodEnd       string
	CustomerName    string
	CustomerAddress string
	CustomerEmail   string
	Currency        string
	Meters          []MeterLine
	TotalUsage      string
	TotalCost       string
}

// Renderer produces document bytes, deterministic for identical input.
type Renderer interface {
	Render(ctx context.Context, doc Document) ([]byte, error)
}
