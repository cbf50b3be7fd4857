package openai_responses

import (
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/responses-aggregator/pkg/citations"
	"github.com/go-go-golems/responses-aggregator/pkg/frames"
	"github.com/go-go-golems/responses-aggregator/pkg/steps/ai/settings"
)

type summaryKey struct {
	outputIndex  int
	summaryIndex int
}

// responseState holds everything collected for one response. Both the
// streaming aggregator and the batch builder feed it, which keeps the shape of
// their terminal frames identical.
type responseState struct {
	model    string
	settings *settings.AggregatorSettings
	now      func() time.Time

	responseID string
	statusLog  *StatusLogBuilder

	text strings.Builder

	summaries map[summaryKey]frames.ReasoningSummary

	reasoningItems []frames.ReasoningItem
	reasoningByID  map[string]int

	queries   []frames.WebSearchQuery
	querySeen map[string]struct{}
	sources   []frames.WebSearchSource
	sourceURL map[string]struct{}

	citations    []frames.Citation
	citationSeen map[frames.Citation]struct{}
}

func newResponseState(model string, s *settings.AggregatorSettings, now func() time.Time) *responseState {
	if s == nil {
		s = settings.DefaultAggregatorSettings()
	}
	if now == nil {
		now = time.Now
	}
	return &responseState{
		model:         model,
		settings:      s,
		now:           now,
		statusLog:     NewStatusLogBuilder(WithClock(now)),
		summaries:     map[summaryKey]frames.ReasoningSummary{},
		reasoningByID: map[string]int{},
		querySeen:     map[string]struct{}{},
		sourceURL:     map[string]struct{}{},
		citationSeen:  map[frames.Citation]struct{}{},
	}
}

func (s *responseState) captureResponseID(resp map[string]any) {
	if id := getString(resp, "id"); id != "" {
		s.responseID = id
	}
}

// addSummary stores a finished summary part. It returns false when a summary
// for the same (output index, summary index) is already known, or when the
// text is empty.
func (s *responseState) addSummary(outputIndex, summaryIndex int, raw string) (frames.ReasoningSummary, bool) {
	if strings.TrimSpace(raw) == "" {
		return frames.ReasoningSummary{}, false
	}
	key := summaryKey{outputIndex, summaryIndex}
	if _, ok := s.summaries[key]; ok {
		return frames.ReasoningSummary{}, false
	}
	title, body := SplitSummaryTitle(raw, s.settings.ReasoningTitle())
	rs := frames.ReasoningSummary{
		OutputIndex:  outputIndex,
		SummaryIndex: summaryIndex,
		Title:        title,
		Text:         body,
	}
	s.summaries[key] = rs
	return rs, true
}

// sortedSummaries returns the summaries ordered by output index, then summary
// index, regardless of arrival order.
func (s *responseState) sortedSummaries() []frames.ReasoningSummary {
	ret := make([]frames.ReasoningSummary, 0, len(s.summaries))
	for _, rs := range s.summaries {
		ret = append(ret, rs)
	}
	sort.Slice(ret, func(i, j int) bool {
		if ret[i].OutputIndex != ret[j].OutputIndex {
			return ret[i].OutputIndex < ret[j].OutputIndex
		}
		return ret[i].SummaryIndex < ret[j].SummaryIndex
	})
	return ret
}

// latestTitle returns the title of the highest summary index recorded for the
// output index.
func (s *responseState) latestTitle(outputIndex int) string {
	title := ""
	best := -1
	for k, rs := range s.summaries {
		if k.outputIndex == outputIndex && k.summaryIndex > best {
			best = k.summaryIndex
			title = rs.Title
		}
	}
	return title
}

func (s *responseState) titlesAndSummaries() (map[int]string, map[int]string) {
	titles := map[int]string{}
	bodies := map[int][]string{}
	for _, rs := range s.sortedSummaries() {
		titles[rs.OutputIndex] = rs.Title
		if rs.Text != "" {
			bodies[rs.OutputIndex] = append(bodies[rs.OutputIndex], rs.Text)
		}
	}
	summaries := make(map[int]string, len(bodies))
	for oi, parts := range bodies {
		summaries[oi] = strings.Join(parts, "\n\n")
	}
	return titles, summaries
}

func (s *responseState) reasoningItem(id string) *frames.ReasoningItem {
	if i, ok := s.reasoningByID[id]; ok {
		return &s.reasoningItems[i]
	}
	s.reasoningByID[id] = len(s.reasoningItems)
	s.reasoningItems = append(s.reasoningItems, frames.ReasoningItem{ID: id, Type: ItemTypeReasoning})
	return &s.reasoningItems[len(s.reasoningItems)-1]
}

func (s *responseState) appendReasoningText(id string, delta string) {
	if id == "" || delta == "" {
		return
	}
	s.reasoningItem(id).Content += delta
}

func (s *responseState) setReasoningText(id string, text string) {
	if id == "" || text == "" {
		return
	}
	s.reasoningItem(id).Content = text
}

// addReasoningOutputItem ingests a finished reasoning output item: its summary
// parts, its raw content and the durable status log entry.
func (s *responseState) addReasoningOutputItem(outputIndex int, item map[string]any) {
	for i, p := range getSlice(item, "summary") {
		part, ok := p.(map[string]any)
		if !ok || getString(part, "type") != "summary_text" {
			continue
		}
		s.addSummary(outputIndex, i, getString(part, "text"))
	}

	id := getString(item, "id")
	if id != "" {
		ri := s.reasoningItem(id)
		if ri.Content == "" {
			ri.Content = reasoningContent(item)
		}
		if enc := getString(item, "encrypted_content"); enc != "" {
			ri.EncryptedContent = enc
		}
	}

	s.statusLog.Record(frames.StatusKindReasoning, frames.StatusCompleted, s.latestTitle(outputIndex), frames.IntPtr(outputIndex))
}

// reasoningContent prefers the raw reasoning_text content of the item and
// falls back to the concatenated summary texts.
func reasoningContent(item map[string]any) string {
	var b strings.Builder
	for _, p := range getSlice(item, "content") {
		if part, ok := p.(map[string]any); ok && getString(part, "type") == "reasoning_text" {
			b.WriteString(getString(part, "text"))
		}
	}
	if b.Len() > 0 {
		return b.String()
	}
	for _, p := range getSlice(item, "summary") {
		if part, ok := p.(map[string]any); ok && getString(part, "type") == "summary_text" {
			b.WriteString(getString(part, "text"))
		}
	}
	return b.String()
}

// webSearchQuery extracts the query of a web_search_call item. The done
// payload carries it under action.query, newer payloads under action.queries.
func webSearchQuery(item map[string]any) string {
	action, ok := getMap(item, "action")
	if !ok {
		return ""
	}
	if q := strings.TrimSpace(getString(action, "query")); q != "" {
		return q
	}
	for _, q := range getSlice(action, "queries") {
		if qs, ok := q.(string); ok && strings.TrimSpace(qs) != "" {
			return strings.TrimSpace(qs)
		}
	}
	return ""
}

func webSearchStatus(item map[string]any) frames.Status {
	switch getString(item, "status") {
	case "", "completed":
		return frames.StatusCompleted
	case "failed":
		return frames.StatusFailed
	case "searching":
		return frames.StatusSearching
	default:
		return frames.StatusInProgress
	}
}

// addWebSearchOutputItem ingests a finished web_search_call item. hint is a
// query seen earlier for the same output index. A query already recorded at
// any output index adds neither a query nor a status log entry.
func (s *responseState) addWebSearchOutputItem(outputIndex int, item map[string]any, hint string) (*frames.WebSearchQuery, frames.Status) {
	status := webSearchStatus(item)
	if action, ok := getMap(item, "action"); ok {
		for _, src := range getSlice(action, "sources") {
			if m, ok := src.(map[string]any); ok {
				s.addSource(frames.WebSearchSource{
					URL:     getString(m, "url"),
					Title:   getString(m, "title"),
					Snippet: getString(m, "snippet"),
				})
			}
		}
	}

	query := webSearchQuery(item)
	if query == "" {
		query = hint
	}
	if query == "" {
		s.statusLog.Record(frames.StatusKindWebSearch, status, query, frames.IntPtr(outputIndex))
		return nil, status
	}
	if _, ok := s.querySeen[query]; ok {
		log.Debug().Str("query", query).Int("output_index", outputIndex).Msg("Responses: duplicate web search query dropped")
		return nil, status
	}
	s.querySeen[query] = struct{}{}
	s.statusLog.Record(frames.StatusKindWebSearch, status, query, frames.IntPtr(outputIndex))
	q := frames.WebSearchQuery{OutputIndex: outputIndex, Query: query, Status: string(status)}
	s.queries = append(s.queries, q)
	return &q, status
}

func (s *responseState) addSource(src frames.WebSearchSource) {
	if src.URL == "" || !s.citableURL(src.URL) {
		return
	}
	if _, ok := s.sourceURL[src.URL]; ok {
		return
	}
	s.sourceURL[src.URL] = struct{}{}
	s.sources = append(s.sources, src)
}

// addAnnotation records url_citation annotations. Other annotation types are
// ignored.
func (s *responseState) addAnnotation(a map[string]any) {
	if getString(a, "type") != "url_citation" {
		return
	}
	c := frames.Citation{
		URL:        getString(a, "url"),
		Title:      getString(a, "title"),
		StartIndex: getIntOr(a, "start_index", 0),
		EndIndex:   getIntOr(a, "end_index", 0),
	}
	if c.URL != "" && !s.citableURL(c.URL) {
		return
	}
	if _, ok := s.citationSeen[c]; ok {
		return
	}
	s.citationSeen[c] = struct{}{}
	s.citations = append(s.citations, c)
	if c.URL != "" && c.Title != "" {
		s.addSource(frames.WebSearchSource{URL: c.URL, Title: c.Title})
	}
}

func (s *responseState) citableURL(u string) bool {
	if err := s.settings.CitationURLPolicy().Validate(u); err != nil {
		log.Debug().Err(err).Str("url", u).Msg("Responses: citation link dropped")
		return false
	}
	return true
}

func (s *responseState) addAnnotations(part map[string]any) {
	for _, a := range getSlice(part, "annotations") {
		if m, ok := a.(map[string]any); ok {
			s.addAnnotation(m)
		}
	}
}

// addMessageOutputItem collects the annotations of all text parts of a
// message item and returns its text, see messageText.
func (s *responseState) addMessageOutputItem(item map[string]any) string {
	for _, p := range getSlice(item, "content") {
		if part, ok := p.(map[string]any); ok && getString(part, "type") == "output_text" {
			s.addAnnotations(part)
		}
	}
	return messageText(item)
}

// messageText returns the text of the first output_text part of a message
// item, falling back to the first refusal part.
func messageText(item map[string]any) string {
	var refusal string
	for _, p := range getSlice(item, "content") {
		part, ok := p.(map[string]any)
		if !ok {
			continue
		}
		switch getString(part, "type") {
		case "output_text":
			return getString(part, "text")
		case "refusal":
			if refusal == "" {
				refusal = getString(part, "refusal")
			}
		}
	}
	return refusal
}

// ingestOutput walks the output list of a response. Everything already known
// is deduplicated, so this is safe to call on a completed payload after
// streaming.
func (s *responseState) ingestOutput(resp map[string]any, hints map[int]string) {
	for i, o := range getSlice(resp, "output") {
		item, ok := o.(map[string]any)
		if !ok {
			continue
		}
		switch getString(item, "type") {
		case ItemTypeReasoning:
			s.addReasoningOutputItem(i, item)
		case ItemTypeWebSearchCall:
			s.addWebSearchOutputItem(i, item, hints[i])
		case ItemTypeMessage:
			s.addMessageOutputItem(item)
		}
	}
}

// firstMessageText returns the text of the first message item of a response.
func firstMessageText(resp map[string]any) string {
	for _, o := range getSlice(resp, "output") {
		if item, ok := o.(map[string]any); ok && getString(item, "type") == ItemTypeMessage {
			return messageText(item)
		}
	}
	return ""
}

func (s *responseState) citationSet() (frames.CitationSet, bool) {
	if len(s.citations) == 0 && len(s.sources) == 0 && len(s.queries) == 0 {
		return frames.CitationSet{}, false
	}
	cs := frames.CitationSet{
		Citations: append([]frames.Citation{}, s.citations...),
		Sources:   append([]frames.WebSearchSource{}, s.sources...),
	}
	for _, q := range s.queries {
		cs.Queries = append(cs.Queries, q.Query)
	}
	if s.settings.FormatCitations {
		cs.Formatted = citations.Format(citations.Input{
			Citations: cs.Citations,
			Sources:   cs.Sources,
			Queries:   cs.Queries,
			Text:      s.text.String(),
		})
	}
	return cs, true
}

// doneFrame assembles the terminal success frame. resp is the response object
// of the completed payload.
func (s *responseState) doneFrame(resp map[string]any, usage *frames.TokenUsage, closing frames.Status) *frames.Frame {
	f := &frames.Frame{IsDone: true, Usage: usage}

	md := frames.ResponseMetadata{
		ResponseID: s.responseID,
		Model:      s.model,
		Status:     getString(resp, "status"),
	}
	if md.Model == "" {
		md.Model = getString(resp, "model")
	}
	if details, ok := getMap(resp, "incomplete_details"); ok {
		md.IncompleteReason = getString(details, "reason")
	}
	f.AddAuxiliary(frames.AuxiliaryKindMetadata, md)

	if len(s.reasoningItems) > 0 && s.settings.IncludeReasoningTrace {
		f.AddAuxiliary(frames.AuxiliaryKindReasoningTrace, frames.ReasoningTrace{
			Reasoning: append([]frames.ReasoningItem{}, s.reasoningItems...),
		})
	}

	for i, rs := range s.sortedSummaries() {
		f.AddAuxiliary(frames.AuxiliaryKindReasoningSummaryItem, frames.ReasoningSummaryItem{
			Index:        i,
			OutputIndex:  rs.OutputIndex,
			SummaryIndex: rs.SummaryIndex,
			Title:        rs.Title,
			Summary:      rs.Text,
		})
	}

	for _, q := range s.queries {
		f.AddAuxiliary(frames.AuxiliaryKindWebSearchQuery, q)
	}

	if cs, ok := s.citationSet(); ok {
		f.AddAuxiliary(frames.AuxiliaryKindCitations, cs)
	}

	if f.Usage != nil && len(s.queries) > 0 {
		if f.Usage.ServerToolUse == nil {
			f.Usage.ServerToolUse = map[string]int{}
		}
		f.Usage.ServerToolUse[frames.ServerToolWebSearchRequests] = len(s.queries)
	}

	s.statusLog.Close(closing)
	titles, summaries := s.titlesAndSummaries()
	f.AddAuxiliary(frames.AuxiliaryKindStatusLog, frames.StatusLog{Log: s.statusLog.Finalize(titles, summaries)})

	return f
}

// errorFrame assembles the terminal failure frame.
func (s *responseState) errorFrame(fe *frames.FrameError) *frames.Frame {
	s.statusLog.Close(frames.StatusError)
	titles, summaries := s.titlesAndSummaries()
	f := ErrorFrame(fe, s.statusLog.Finalize(titles, summaries))
	if s.responseID != "" {
		f.AddAuxiliary(frames.AuxiliaryKindMetadata, frames.ResponseMetadata{
			ResponseID: s.responseID,
			Model:      s.model,
			Status:     "failed",
		})
	}
	return f
}

func (s *responseState) liveStatus(kind frames.StatusKind, status frames.Status, message string, outputIndex *int) frames.Auxiliary {
	return frames.Auxiliary{
		Kind: frames.AuxiliaryKindStatus,
		Payload: frames.StatusLogEntry{
			Kind:        kind,
			Status:      status,
			Message:     message,
			OutputIndex: outputIndex,
			Timestamp:   s.now().UnixMicro(),
		},
	}
}
