package report

import (
	"bytes"
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"
)

// PDFOptions controls page layout of the generated document.
type PDFOptions struct {
	PageSize string
	Margin   float64
	Author   string
}

func DefaultPDFOptions() PDFOptions {
	return PDFOptions{PageSize: "A4", Margin: 20, Author: "Break-Even Calculator"}
}

// WritePDF serializes doc to w. Section order is kept as-is.
func WritePDF(w io.Writer, doc Document, opts PDFOptions) error {
	if opts.PageSize == "" {
		opts = DefaultPDFOptions()
	}

	pdf := fpdf.New("P", "mm", opts.PageSize, "")
	pdf.SetMargins(opts.Margin, opts.Margin, opts.Margin)
	pdf.SetAutoPageBreak(true, opts.Margin)
	pdf.SetTitle(Title, true)
	pdf.SetAuthor(opts.Author, true)
	pdf.AddPage()

	// Core fonts are cp1252; the translator maps ÷ and × into it.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for i, s := range doc.Sections {
		if s.Kind == KindTitle {
			pdf.SetFont("Helvetica", "B", 20)
			for _, line := range s.Lines {
				pdf.CellFormat(0, 12, tr(line), "", 1, alignment(s.Centered), false, 0, "")
			}
			pdf.Ln(6)
			continue
		}

		if s.Heading != "" {
			pdf.SetFont("Helvetica", "BU", 14)
			pdf.CellFormat(0, 9, tr(s.Heading), "", 1, alignment(s.Centered), false, 0, "")
			pdf.Ln(1)
		}
		pdf.SetFont("Helvetica", "", 11)
		for _, line := range s.Lines {
			pdf.MultiCell(0, 6, tr(line), "", alignment(s.Centered), false)
		}
		if i < len(doc.Sections)-1 {
			pdf.Ln(5)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("build pdf: %w", err)
	}
	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

// PDF returns the serialized document.
func PDF(doc Document, opts PDFOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePDF(&buf, doc, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func alignment(centered bool) string {
	if centered {
		return "C"
	}
	return "L"
}
