package markdown

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrUnsupportedMarkup is returned when HTML uses elements Telegram rejects
var ErrUnsupportedMarkup = errors.New("unsupported Telegram HTML")

// allowedTags is the HTML subset accepted with parse_mode=HTML
var allowedTags = map[string]bool{
	"a":          true,
	"b":          true,
	"blockquote": true,
	"code":       true,
	"del":        true,
	"em":         true,
	"i":          true,
	"ins":        true,
	"pre":        true,
	"s":          true,
	"span":       true,
	"strike":     true,
	"strong":     true,
	"tg-emoji":   true,
	"tg-spoiler": true,
	"u":          true,
}

// Validate parses html and reports elements or links Telegram would refuse
func Validate(html string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse html: %w", err)
	}

	problems := map[string]bool{}
	doc.Find("body *").Each(func(_ int, s *goquery.Selection) {
		name := goquery.NodeName(s)
		if !allowedTags[name] {
			problems["<"+name+">"] = true
			return
		}
		if name == "a" {
			if href, ok := s.Attr("href"); !ok || strings.TrimSpace(href) == "" {
				problems["<a> without href"] = true
			}
		}
	})

	if len(problems) == 0 {
		return nil
	}

	list := make([]string, 0, len(problems))
	for p := range problems {
		list = append(list, p)
	}
	sort.Strings(list)
	return fmt.Errorf("%w: %s", ErrUnsupportedMarkup, strings.Join(list, ", "))
}

var markdownHints = regexp.MustCompile("(?m)^#{1,6} |\\*\\*[^*\\n]+\\*\\*|\\[[^\\]\\n]+\\]\\([^)\\n]+\\)|^```")

// LooksLikeMarkdown reports whether text carries Markdown syntax such as
// headings, bold markers, links or code fences.
func LooksLikeMarkdown(text string) bool {
	return markdownHints.MatchString(text)
}
