package markdown

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func longDocument(sections int) string {
	var sb strings.Builder
	for i := 1; i <= sections; i++ {
		fmt.Fprintf(&sb, "## Section %d\n\n%s\n\n", i, strings.Repeat("status ok ", 15))
	}
	return sb.String()
}

func TestSplit_ShortDocumentUnchanged(t *testing.T) {
	src := "# Title\n\nshort body\n"
	assert.Equal(t, []string{src}, Split(src))
	assert.Equal(t, []string{src}, PrepareChunks(src))
}

func TestSplit_LongDocument(t *testing.T) {
	src := longDocument(60)
	require.GreaterOrEqual(t, htmlLength(src), SplitThreshold)

	chunks := Split(src)
	require.Greater(t, len(chunks), 1)

	seen := 0
	for _, chunk := range chunks {
		assert.Less(t, htmlLength(chunk), SplitThreshold)
		assert.Equal(t, strings.TrimSpace(chunk), chunk)
		seen += strings.Count(chunk, "## Section ")
	}
	assert.Equal(t, 60, seen, "every section lands in exactly one chunk")

	for i := 1; i <= 60; i++ {
		heading := fmt.Sprintf("## Section %d\n", i)
		found := 0
		for _, chunk := range chunks {
			if strings.Contains(chunk+"\n", heading) {
				found++
			}
		}
		assert.Equal(t, 1, found, heading)
	}
}

func TestSplit_SingleLongLine(t *testing.T) {
	src := strings.Repeat("a", 9000)

	chunks := Split(src)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, src, strings.Join(chunks, ""))
	for _, chunk := range chunks {
		assert.Less(t, htmlLength(chunk), SplitThreshold)
	}
}

func TestSplit_MultibyteHardCut(t *testing.T) {
	src := strings.Repeat("가", 5000)

	chunks := Split(src)
	require.Greater(t, len(chunks), 1)
	assert.Equal(t, src, strings.Join(chunks, ""))
	for _, chunk := range chunks {
		assert.True(t, utf8.ValidString(chunk))
	}
}

func TestMessageLength(t *testing.T) {
	assert.Equal(t, 3, MessageLength("abc"))
	assert.Equal(t, 1, MessageLength("가"))
	assert.Equal(t, 2, MessageLength("🚀"))
	assert.Equal(t, 5, MessageLength("🚀 🚀"))
}

func TestSplit_AstralCharactersCountTwice(t *testing.T) {
	src := strings.Repeat("🚀🚀 ok\n", 650)

	html, err := ToTelegramHTML(src)
	require.NoError(t, err)
	require.Less(t, utf8.RuneCountInString(html), SplitThreshold)
	require.GreaterOrEqual(t, MessageLength(html), SplitThreshold)

	chunks := Split(src)
	require.Greater(t, len(chunks), 1)
	for _, chunk := range chunks {
		assert.Less(t, htmlLength(chunk), SplitThreshold)
	}
}

func TestFindSplitPoint(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected int
	}{
		{
			name:     "horizontal rule",
			input:    strings.Repeat("line\n", 20) + "---\n" + strings.Repeat("line\n", 20),
			expected: 100,
		},
		{
			name:     "rule preferred over earlier heading",
			input:    strings.Repeat("line\n", 10) + "# Top\n" + strings.Repeat("line\n", 18) + "---\n" + strings.Repeat("line\n", 10),
			expected: 146,
		},
		{
			name:     "heading",
			input:    strings.Repeat("text\n", 20) + "## Next\n" + strings.Repeat("text\n", 20),
			expected: 100,
		},
		{
			name:     "nearest newline",
			input:    strings.Repeat("abcd\n", 40),
			expected: 100,
		},
		{
			name:     "no newline",
			input:    strings.Repeat("x", 10),
			expected: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, findSplitPoint(tt.input))
		})
	}
}

func TestAddPageNumbers(t *testing.T) {
	assert.Equal(t, []string{
		"first\n\n---\n**[1/2]**",
		"second\n\n---\n**[2/2]**",
	}, AddPageNumbers([]string{"first", "second"}))
}

func TestAddPageNumbers_CodeFenceSplitAcrossParts(t *testing.T) {
	chunks := AddPageNumbers([]string{
		"Intro\n\n```go\nx := 1",
		"y := 2\n```\n\nAfter",
	})

	assert.Equal(t, "Intro\n\n```go\nx := 1\n```\n\n---\n**[1/2]**", chunks[0])
	assert.Equal(t, "```go\ny := 2\n```\n\nAfter\n\n---\n**[2/2]**", chunks[1])

	for i, chunk := range chunks {
		html, err := ToTelegramHTML(chunk)
		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(html, fmt.Sprintf("——————\n\n<b>[%d/2]</b>", i+1)), html)
	}
}

func TestOpenFence(t *testing.T) {
	assert.Equal(t, "", openFence("no code here"))
	assert.Equal(t, "", openFence("```\nclosed\n```"))
	assert.Equal(t, "```bash", openFence("text\n```bash\n# not a heading"))
}

func TestPrepareChunks_FootersRenderAsBoldCounter(t *testing.T) {
	chunks := PrepareChunks(longDocument(60))
	require.Greater(t, len(chunks), 1)

	last := chunks[len(chunks)-1]
	html, err := ToTelegramHTML(last)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(html, fmt.Sprintf("——————\n\n<b>[%d/%d]</b>", len(chunks), len(chunks))))
}
