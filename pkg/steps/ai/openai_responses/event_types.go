package openai_responses

// EventType is the discriminator of a Responses stream event.
type EventType string

const (
	// lifecycle
	EventResponseCreated    EventType = "response.created"
	EventResponseQueued     EventType = "response.queued"
	EventResponseInProgress EventType = "response.in_progress"
	EventResponseCompleted  EventType = "response.completed"
	EventResponseFailed     EventType = "response.failed"
	EventResponseIncomplete EventType = "response.incomplete"
	EventError              EventType = "error"

	// output items and content parts
	EventOutputItemAdded  EventType = "response.output_item.added"
	EventOutputItemDone   EventType = "response.output_item.done"
	EventContentPartAdded EventType = "response.content_part.added"
	EventContentPartDone  EventType = "response.content_part.done"

	// text
	EventOutputTextDelta           EventType = "response.output_text.delta"
	EventOutputTextDone            EventType = "response.output_text.done"
	EventOutputTextAnnotationAdded EventType = "response.output_text.annotation.added"
	EventRefusalDelta              EventType = "response.refusal.delta"
	EventRefusalDone               EventType = "response.refusal.done"

	// reasoning
	EventReasoningSummaryPartAdded EventType = "response.reasoning_summary_part.added"
	EventReasoningSummaryPartDone  EventType = "response.reasoning_summary_part.done"
	EventReasoningSummaryTextDelta EventType = "response.reasoning_summary_text.delta"
	EventReasoningSummaryTextDone  EventType = "response.reasoning_summary_text.done"
	EventReasoningTextDelta        EventType = "response.reasoning_text.delta"
	EventReasoningTextDone         EventType = "response.reasoning_text.done"
	EventReasoningDelta            EventType = "response.reasoning.delta"
	EventReasoningDone             EventType = "response.reasoning.done"

	// web search
	EventWebSearchInProgress EventType = "response.web_search_call.in_progress"
	EventWebSearchSearching  EventType = "response.web_search_call.searching"
	EventWebSearchCompleted  EventType = "response.web_search_call.completed"

	// file search
	EventFileSearchInProgress EventType = "response.file_search_call.in_progress"
	EventFileSearchSearching  EventType = "response.file_search_call.searching"
	EventFileSearchCompleted  EventType = "response.file_search_call.completed"

	// function calls
	EventFunctionCallArgumentsDelta EventType = "response.function_call_arguments.delta"
	EventFunctionCallArgumentsDone  EventType = "response.function_call_arguments.done"

	// mcp
	EventMCPCallTool            EventType = "response.mcp_call_tool"
	EventMCPCallInProgress      EventType = "response.mcp_call.in_progress"
	EventMCPCallCompleted       EventType = "response.mcp_call.completed"
	EventMCPCallFailed          EventType = "response.mcp_call.failed"
	EventMCPListToolsInProgress EventType = "response.mcp_list_tools.in_progress"
	EventMCPListToolsCompleted  EventType = "response.mcp_list_tools.completed"
	EventMCPListToolsFailed     EventType = "response.mcp_list_tools.failed"

	// code interpreter
	EventCodeInterpreterInProgress   EventType = "response.code_interpreter_call.in_progress"
	EventCodeInterpreterInterpreting EventType = "response.code_interpreter_call.interpreting"
	EventCodeInterpreterCompleted    EventType = "response.code_interpreter_call.completed"
	EventCodeInterpreterCodeDelta    EventType = "response.code_interpreter_call_code.delta"
	EventCodeInterpreterCodeDone     EventType = "response.code_interpreter_call_code.done"

	// image generation
	EventImageGenerationInProgress   EventType = "response.image_generation_call.in_progress"
	EventImageGenerationGenerating   EventType = "response.image_generation_call.generating"
	EventImageGenerationPartialImage EventType = "response.image_generation_call.partial_image"
	EventImageGenerationCompleted    EventType = "response.image_generation_call.completed"
)

var knownEventTypes = map[EventType]struct{}{}

func init() {
	for _, t := range []EventType{
		EventResponseCreated, EventResponseQueued, EventResponseInProgress,
		EventResponseCompleted, EventResponseFailed, EventResponseIncomplete, EventError,
		EventOutputItemAdded, EventOutputItemDone, EventContentPartAdded, EventContentPartDone,
		EventOutputTextDelta, EventOutputTextDone, EventOutputTextAnnotationAdded,
		EventRefusalDelta, EventRefusalDone,
		EventReasoningSummaryPartAdded, EventReasoningSummaryPartDone,
		EventReasoningSummaryTextDelta, EventReasoningSummaryTextDone,
		EventReasoningTextDelta, EventReasoningTextDone, EventReasoningDelta, EventReasoningDone,
		EventWebSearchInProgress, EventWebSearchSearching, EventWebSearchCompleted,
		EventFileSearchInProgress, EventFileSearchSearching, EventFileSearchCompleted,
		EventFunctionCallArgumentsDelta, EventFunctionCallArgumentsDone,
		EventMCPCallTool, EventMCPCallInProgress, EventMCPCallCompleted, EventMCPCallFailed,
		EventMCPListToolsInProgress, EventMCPListToolsCompleted, EventMCPListToolsFailed,
		EventCodeInterpreterInProgress, EventCodeInterpreterInterpreting, EventCodeInterpreterCompleted,
		EventCodeInterpreterCodeDelta, EventCodeInterpreterCodeDone,
		EventImageGenerationInProgress, EventImageGenerationGenerating,
		EventImageGenerationPartialImage, EventImageGenerationCompleted,
	} {
		knownEventTypes[t] = struct{}{}
	}
}

// IsKnown reports whether the type belongs to the protocol catalog.
// Unknown types are ignored by the aggregator.
func (t EventType) IsKnown() bool {
	_, ok := knownEventTypes[t]
	return ok
}

// IsTerminal reports whether the event ends a response.
func (t EventType) IsTerminal() bool {
	switch t {
	case EventResponseCompleted, EventResponseFailed, EventResponseIncomplete, EventError:
		return true
	default:
		return false
	}
}

// Output item types.
const (
	ItemTypeMessage       = "message"
	ItemTypeReasoning     = "reasoning"
	ItemTypeWebSearchCall = "web_search_call"
)
