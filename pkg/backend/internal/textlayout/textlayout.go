// Package textlayout breaks text into lines measured in terminal columns.
package textlayout

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/go-drift/loom/pkg/rendering"
)

// Lines breaks content into at most height lines no wider than width
// columns. Wide runes count as two columns.
func Lines(content string, width, height int, wrap rendering.WrapMode) []string {
	if width <= 0 || height <= 0 {
		return nil
	}
	var lines []string
	for _, para := range strings.Split(sanitize(content), "\n") {
		switch wrap {
		case rendering.WrapChar:
			lines = append(lines, breakChars(para, width)...)
		case rendering.WrapWord:
			lines = append(lines, breakWords(para, width)...)
		default:
			lines = append(lines, runewidth.Truncate(para, width, ""))
		}
		if len(lines) >= height {
			return lines[:height]
		}
	}
	return lines
}

// sanitize expands tabs and drops control runes other than newline.
func sanitize(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\n':
			return r
		case r == '\t':
			return ' '
		case r < 0x20 || r == 0x7f:
			return -1
		}
		return r
	}, s)
}

func breakChars(s string, width int) []string {
	if s == "" {
		return []string{""}
	}
	var lines []string
	var b strings.Builder
	used := 0
	for _, r := range s {
		w := runewidth.RuneWidth(r)
		if used+w > width && used > 0 {
			lines = append(lines, b.String())
			b.Reset()
			used = 0
		}
		if w > width {
			continue
		}
		b.WriteRune(r)
		used += w
	}
	return append(lines, b.String())
}

// breakWords wraps at spaces, falling back to breakChars for words longer
// than a line.
func breakWords(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return []string{""}
	}
	var lines []string
	line, used := "", 0
	for _, word := range words {
		ww := runewidth.StringWidth(word)
		switch {
		case used == 0 && ww <= width:
			line, used = word, ww
		case used > 0 && used+1+ww <= width:
			line += " " + word
			used += 1 + ww
		default:
			if used > 0 {
				lines = append(lines, line)
			}
			if ww <= width {
				line, used = word, ww
				continue
			}
			parts := breakChars(word, width)
			lines = append(lines, parts[:len(parts)-1]...)
			line = parts[len(parts)-1]
			used = runewidth.StringWidth(line)
		}
	}
	return append(lines, line)
}
