package frames

// TokenUsage is the normalized token accounting of one response.
// All counts are non-negative.
type TokenUsage struct {
	Model                    string         `json:"model,omitempty"`
	PromptTokens             int            `json:"prompt_tokens"`
	CompletionTokens         int            `json:"completion_tokens"`
	TotalTokens              int            `json:"total_tokens"`
	CacheReadInputTokens     int            `json:"cache_read_input_tokens"`
	CacheCreationInputTokens int            `json:"cache_creation_input_tokens"`
	ReasoningTokens          int            `json:"reasoning_tokens"`
	AudioInputTokens         int            `json:"audio_input_tokens"`
	AudioOutputTokens        int            `json:"audio_output_tokens"`
	ServerToolUse            map[string]int `json:"server_tool_use,omitempty"`
}

const ServerToolWebSearchRequests = "web_search_requests"

// ReasoningItem is raw reasoning text keyed by the provider-issued item id.
// It is meant for developer-facing traces, not end-user display.
type ReasoningItem struct {
	ID               string `json:"id"`
	Type             string `json:"type"`
	Content          string `json:"content"`
	EncryptedContent string `json:"encrypted_content,omitempty"`
}

// ReasoningSummary is one distilled, user-facing reasoning segment.
type ReasoningSummary struct {
	OutputIndex  int    `json:"output_index"`
	SummaryIndex int    `json:"summary_index"`
	Title        string `json:"title"`
	Text         string `json:"text"`
}

// ReasoningSummaryItem is the auxiliary rendering of a ReasoningSummary.
// Index is the ordinal of the summary after sorting.
type ReasoningSummaryItem struct {
	Index        int    `json:"index"`
	OutputIndex  int    `json:"output_index"`
	SummaryIndex int    `json:"summary_index"`
	Title        string `json:"title"`
	Summary      string `json:"summary"`
}

type WebSearchQuery struct {
	OutputIndex int    `json:"output_index"`
	Query       string `json:"query"`
	Status      string `json:"status,omitempty"`
}

type WebSearchSource struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
}

// Citation marks the range [StartIndex, EndIndex) of the emitted text as
// referencing a source.
type Citation struct {
	URL        string `json:"url"`
	Title      string `json:"title"`
	StartIndex int    `json:"start_index"`
	EndIndex   int    `json:"end_index"`
}

// StatusLogEntry is one durable lifecycle record.
// Timestamp is in microseconds since the unix epoch.
type StatusLogEntry struct {
	Kind        StatusKind `json:"type"`
	Status      Status     `json:"status"`
	Message     string     `json:"message,omitempty"`
	OutputIndex *int       `json:"output_index,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Timestamp   int64      `json:"timestamp"`
}

type StatusKind string

const (
	StatusKindProcessing StatusKind = "processing"
	StatusKindReasoning  StatusKind = "reasoning"
	StatusKindWebSearch  StatusKind = "web_search"
	StatusKindMessage    StatusKind = "message"
)

type Status string

const (
	StatusStarted    Status = "started"
	StatusInitiated  Status = "initiated"
	StatusInProgress Status = "in_progress"
	StatusSearching  Status = "searching"
	StatusCompleted  Status = "completed"
	StatusIncomplete Status = "incomplete"
	StatusFailed     Status = "failed"
	StatusError      Status = "error"
)

// IsTransient reports whether the status describes an intermediate tick that
// is pushed live but never persisted.
func (s Status) IsTransient() bool {
	switch s {
	case StatusInitiated, StatusInProgress, StatusSearching:
		return true
	default:
		return false
	}
}

// StatusLog wraps the log in an object for frontend compatibility.
type StatusLog struct {
	Log []StatusLogEntry `json:"log"`
}

// ResponseMetadata carries the opaque continuation id of a response.
type ResponseMetadata struct {
	ResponseID       string `json:"response_id,omitempty"`
	Model            string `json:"model,omitempty"`
	Status           string `json:"status,omitempty"`
	IncompleteReason string `json:"incomplete_reason,omitempty"`
}

type ReasoningTrace struct {
	Reasoning []ReasoningItem `json:"reasoning"`
}

// CitationSet groups everything a consumer needs to render sources.
// Formatted holds the unified citation rendering when it was computed.
type CitationSet struct {
	Citations []Citation          `json:"citations"`
	Sources   []WebSearchSource   `json:"sources,omitempty"`
	Queries   []string            `json:"queries,omitempty"`
	Formatted *FormattedCitations `json:"formatted,omitempty"`
}

// FormattedCitations is the unified hawki_v1 citation rendering consumed by
// chat frontends.
type FormattedCitations struct {
	Format         string             `json:"format"`
	ProcessingMode string             `json:"processing_mode"`
	Citations      []NumberedCitation `json:"citations"`
	TextProcessing TextProcessing     `json:"text_processing"`
	SearchMetadata *SearchMetadata    `json:"searchMetadata,omitempty"`
	// TextSegments mirrors TextProcessing.TextSegments for older consumers.
	TextSegments []TextSegment `json:"textSegments"`
	// ProcessedText is the message with markdown links replaced by [n] markers.
	ProcessedText string `json:"processed_text"`
}

type NumberedCitation struct {
	ID      int    `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

type TextProcessing struct {
	Mode          string        `json:"mode"`
	TextSegments  []TextSegment `json:"text_segments"`
	InlineMarkers bool          `json:"inline_markers"`
}

type TextSegment struct {
	Text        string `json:"text"`
	CitationIDs []int  `json:"citationIds"`
}

type SearchMetadata struct {
	Queries []string `json:"queries"`
	Query   string   `json:"query"`
}

type DebugTimestamp struct {
	EventType  string `json:"event_type"`
	Sequence   int    `json:"sequence"`
	ReceivedAt int64  `json:"received_at"`
}

func IntPtr(i int) *int { return &i }
