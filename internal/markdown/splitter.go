package markdown

import (
	"fmt"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// SplitThreshold is the rendered HTML length at which a document is split.
// Telegram accepts 4096 UTF-16 code units per message; the rest is headroom for the page footer.
const SplitThreshold = 4050

// MessageLength counts s the way Telegram does: in UTF-16 code units, so
// characters outside the Basic Multilingual Plane (most emoji) count twice.
func MessageLength(s string) int {
	return len(utf16.Encode([]rune(s)))
}

// htmlLength measures a Markdown fragment by the size of its rendered HTML
func htmlLength(src string) int {
	html, err := ToTelegramHTML(src)
	if err != nil {
		return 0
	}
	return MessageLength(html)
}

// Split breaks src into parts whose rendered HTML stays under SplitThreshold.
// Documents that already fit are returned unchanged as a single part.
func Split(src string) []string {
	if htmlLength(src) < SplitThreshold {
		return []string{src}
	}
	parts := split(src)
	if len(parts) == 0 {
		return []string{src}
	}
	return parts
}

func split(src string) []string {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil
	}
	if htmlLength(src) < SplitThreshold {
		return []string{src}
	}

	cut := findSplitPoint(src)
	return append(split(src[:cut]), split(src[cut:])...)
}

// findSplitPoint picks a cut near the middle of s, preferring a horizontal
// rule, then a heading, then a line break. The result is always inside (0, len(s)).
func findSplitPoint(s string) int {
	middle := len(s) / 2
	window := len(s) * 3 / 10
	lo, hi := middle-window, middle+window
	if lo < 1 {
		lo = 1
	}
	if hi > len(s)-1 {
		hi = len(s) - 1
	}

	if i := scanLineStarts(s, lo, hi, isRule); i > 0 {
		return i
	}
	if i := scanLineStarts(s, lo, hi, isHeading); i > 0 {
		return i
	}
	if i := nearestNewline(s, middle); i > 0 {
		return i
	}

	// one very long line: cut on a rune boundary
	cut := middle
	for cut > 1 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if cut < 1 {
		cut = 1
	}
	return cut
}

// scanLineStarts returns the first line start in [lo, hi] whose line satisfies match
func scanLineStarts(s string, lo, hi int, match func(line string) bool) int {
	for i := lo; i <= hi; i++ {
		if s[i-1] != '\n' {
			continue
		}
		line := s[i:]
		if end := strings.IndexByte(line, '\n'); end >= 0 {
			line = line[:end]
		}
		if match(line) {
			return i
		}
	}
	return -1
}

func isRule(line string) bool {
	return strings.TrimSpace(line) == "---"
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, "#")
}

// nearestNewline returns the position just after the newline closest to pos
func nearestNewline(s string, pos int) int {
	before := strings.LastIndexByte(s[:pos], '\n')
	after := strings.IndexByte(s[pos:], '\n')

	best := -1
	if before >= 0 {
		best = before + 1
	}
	if after >= 0 {
		candidate := pos + after + 1
		if candidate < len(s) && (best < 0 || candidate-pos < pos-best) {
			best = candidate
		}
	}
	if best >= len(s) {
		return -1
	}
	return best
}

// AddPageNumbers appends a "[i/n]" footer to every part. A part cut inside a
// fenced code block gets the fence closed before the footer, and the next part
// reopens it with the same info string.
func AddPageNumbers(chunks []string) []string {
	out := make([]string, len(chunks))
	carry := ""
	for i, chunk := range chunks {
		if carry != "" {
			chunk = carry + "\n" + chunk
		}
		carry = openFence(chunk)
		if carry != "" {
			chunk += "\n```"
		}
		out[i] = fmt.Sprintf("%s\n\n---\n**[%d/%d]**", chunk, i+1, len(chunks))
	}
	return out
}

// openFence returns the opening line of a ``` fence left unclosed at the end of s
func openFence(s string) string {
	open := ""
	for _, line := range strings.Split(s, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "```") {
			continue
		}
		if open == "" {
			open = trimmed
		} else {
			open = ""
		}
	}
	return open
}

// PrepareChunks splits src and numbers the parts when there is more than one
func PrepareChunks(src string) []string {
	chunks := Split(src)
	if len(chunks) == 1 {
		return chunks
	}
	return AddPageNumbers(chunks)
}
