package report

import (
	"fmt"
	"io"
	"strings"
)

// WriteText serializes doc as plain text, used for email bodies and the CLI.
func WriteText(w io.Writer, doc Document) error {
	var b strings.Builder
	for i, s := range doc.Sections {
		if i > 0 {
			b.WriteString("\n")
		}
		if s.Heading != "" {
			b.WriteString(s.Heading + "\n")
			b.WriteString(strings.Repeat("-", len([]rune(s.Heading))) + "\n")
		}
		for _, line := range s.Lines {
			b.WriteString(line + "\n")
		}
	}
	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write text report: %w", err)
	}
	return nil
}

// Text returns the plain text form of doc.
func Text(doc Document) string {
	var b strings.Builder
	_ = WriteText(&b, doc)
	return b.String()
}
