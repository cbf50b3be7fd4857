// Package citations renders web-search citations collected from a response
// into the hawki_v1 unified citation format.
package citations

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/go-go-golems/responses-aggregator/pkg/frames"
)

const (
	FormatHawkiV1 = "hawki_v1"

	ModeSegments = "segments"
	ModeInline   = "inline"
)

var (
	parenthesizedLinkRe = regexp.MustCompile(`\(\[([^\]]+)\]\(([^)]+)\)\)`)
	markdownLinkRe      = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	domainRe            = regexp.MustCompile(`\(([a-zA-Z0-9.-]+\.[a-zA-Z]{2,})[^)]*\)`)
)

// Input is everything collected during one response that can contribute to
// the rendering.
type Input struct {
	Citations []frames.Citation
	Sources   []frames.WebSearchSource
	Queries   []string
	Text      string
}

func (in Input) Empty() bool {
	return len(in.Citations) == 0 && len(in.Sources) == 0 && len(in.Queries) == 0
}

func citationKey(url, title string) string {
	return url + "|" + title
}

// Format builds the hawki_v1 rendering. Citations get 1-based ids in order of
// first appearance, unique by url and title. When no annotation exists, the
// web search sources are numbered instead.
func Format(in Input) *frames.FormattedCitations {
	ret := &frames.FormattedCitations{
		Format:        FormatHawkiV1,
		Citations:     []frames.NumberedCitation{},
		ProcessedText: in.Text,
	}

	var segments []frames.TextSegment
	if len(in.Citations) > 0 {
		ids := map[string]int{}
		for _, c := range in.Citations {
			key := citationKey(c.URL, c.Title)
			if _, ok := ids[key]; ok {
				continue
			}
			ids[key] = len(ids) + 1
			ret.Citations = append(ret.Citations, frames.NumberedCitation{
				ID:    ids[key],
				Title: c.Title,
				URL:   c.URL,
			})
		}
		ret.ProcessedText = ReplaceMarkdownLinks(in.Text)
		segments = BuildTextSegments(in.Citations, in.Text, ids)
	}

	if len(ret.Citations) == 0 {
		for i, s := range in.Sources {
			ret.Citations = append(ret.Citations, frames.NumberedCitation{
				ID:      i + 1,
				Title:   s.Title,
				URL:     s.URL,
				Snippet: s.Snippet,
			})
		}
	}

	if len(in.Queries) > 0 {
		ret.SearchMetadata = &frames.SearchMetadata{
			Queries: append([]string{}, in.Queries...),
			Query:   strings.Join(in.Queries, "; "),
		}
	}

	ret.ProcessingMode = ModeInline
	if len(segments) > 0 {
		ret.ProcessingMode = ModeSegments
	}
	ret.TextProcessing = frames.TextProcessing{
		Mode:          ret.ProcessingMode,
		TextSegments:  segments,
		InlineMarkers: ret.ProcessingMode == ModeInline,
	}
	if len(segments) > 0 {
		ret.TextSegments = segments
	} else {
		ret.TextSegments = []frames.TextSegment{{Text: ret.ProcessedText, CitationIDs: []int{}}}
	}

	return ret
}

// ReplaceMarkdownLinks replaces, in this order, parenthesized markdown links,
// plain markdown links and parenthesized domain mentions by sequential [n]
// markers starting at 1.
func ReplaceMarkdownLinks(text string) string {
	n := 1
	next := func(string) string {
		s := fmt.Sprintf("[%d]", n)
		n++
		return s
	}
	text = parenthesizedLinkRe.ReplaceAllStringFunc(text, next)
	text = markdownLinkRe.ReplaceAllStringFunc(text, next)
	text = domainRe.ReplaceAllStringFunc(text, next)
	return text
}

type annotationGroup struct {
	start, end int
	ids        []int
}

// BuildTextSegments splits text along the annotated ranges. Annotations
// sharing the same range are merged, uncited gaps become segments without
// citation ids. Offsets count characters, not bytes.
func BuildTextSegments(cs []frames.Citation, text string, ids map[string]int) []frames.TextSegment {
	runes := []rune(text)
	clamp := func(i int) int {
		if i < 0 {
			return 0
		}
		if i > len(runes) {
			return len(runes)
		}
		return i
	}

	groups := map[string]*annotationGroup{}
	var order []*annotationGroup
	for _, c := range cs {
		key := fmt.Sprintf("%d-%d", c.StartIndex, c.EndIndex)
		g, ok := groups[key]
		if !ok {
			g = &annotationGroup{start: c.StartIndex, end: c.EndIndex}
			groups[key] = g
			order = append(order, g)
		}
		id, ok := ids[citationKey(c.URL, c.Title)]
		if !ok {
			continue
		}
		if !containsInt(g.ids, id) {
			g.ids = append(g.ids, id)
		}
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].start < order[j].start })

	var segments []frames.TextSegment
	lastEnd := 0
	for _, g := range order {
		start, end := clamp(g.start), clamp(g.end)
		if start > lastEnd {
			segments = append(segments, frames.TextSegment{
				Text:        string(runes[lastEnd:start]),
				CitationIDs: []int{},
			})
		}
		if len(g.ids) > 0 && end > start {
			segments = append(segments, frames.TextSegment{
				Text:        string(runes[start:end]),
				CitationIDs: g.ids,
			})
		}
		if end > lastEnd {
			lastEnd = end
		}
	}
	if lastEnd < len(runes) {
		segments = append(segments, frames.TextSegment{
			Text:        string(runes[lastEnd:]),
			CitationIDs: []int{},
		})
	}
	return segments
}

func containsInt(xs []int, x int) bool {
	for _, v := range xs {
		if v == x {
			return true
		}
	}
	return false
}
