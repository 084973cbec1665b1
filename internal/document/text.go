package document

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

const nbsp = "\u00a0"

// CleanHTML turns product description HTML into plain text: <br> and </p>
// become line breaks, every other tag is dropped, entities are decoded,
// non-breaking spaces become regular spaces and the result is trimmed.
func CleanHTML(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))

loop:
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				// Tokenizer only fails on reader errors; keep what we have.
				b.Write(z.Raw())
			}
			break loop
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			if name, _ := z.TagName(); string(name) == "br" {
				b.WriteByte('\n')
			}
		case html.EndTagToken:
			if name, _ := z.TagName(); string(name) == "p" {
				b.WriteByte('\n')
			}
		}
	}

	return strings.TrimSpace(strings.ReplaceAll(b.String(), nbsp, " "))
}

// CleanNote decodes a customer note and splits it into display lines.
// An empty note yields a single empty line.
func CleanNote(s string) []string {
	note := html.UnescapeString(s)
	note = strings.TrimSpace(strings.ReplaceAll(note, nbsp, " "))

	lines := strings.Split(note, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
