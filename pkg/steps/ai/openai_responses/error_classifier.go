package openai_responses

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/go-go-golems/responses-aggregator/pkg/frames"
	"github.com/go-go-golems/responses-aggregator/pkg/steps/ai/settings"
)

const (
	defaultErrorMessage  = "Unknown error"
	defaultFailedMessage = "Response failed"
	decodeErrorMessage   = "Invalid JSON chunk received."
	decodeErrorCode      = "decode_error"
)

// ClassifyEvent returns the fatal error carried by the event, or nil when the
// event is not an error. Recognized shapes are a top-level error field on any
// event (an object, or a non-empty string used as the message), a bare
// "error" event with message/code fields, and response.failed with error
// under the event or under response.
func ClassifyEvent(ev RawEvent) *frames.FrameError {
	if fe := topLevelError(ev.Data); fe != nil {
		return fe
	}

	switch ev.Type {
	case EventError:
		return errorFromObject(ev.Data, defaultErrorMessage)
	case EventResponseFailed:
		if resp, ok := getMap(ev.Data, "response"); ok {
			if errObj, ok := getMap(resp, "error"); ok {
				return errorFromObject(errObj, defaultFailedMessage)
			}
		}
		return &frames.FrameError{Message: defaultFailedMessage, Fatal: true}
	}
	return nil
}

// ClassifyPayload applies the same rules to a complete non-streaming payload:
// an error object, or a response whose status is failed.
func ClassifyPayload(payload map[string]any) *frames.FrameError {
	if fe := topLevelError(payload); fe != nil {
		return fe
	}
	resp := responseObject(payload)
	if errObj, ok := getMap(resp, "error"); ok {
		return errorFromObject(errObj, defaultFailedMessage)
	}
	if getString(resp, "status") == "failed" {
		return &frames.FrameError{Message: defaultFailedMessage, Fatal: true}
	}
	return nil
}

// ClassifyDecodeError turns a decode failure into an error marker. Whether it
// ends the response depends on the policy.
func ClassifyDecodeError(err error, policy settings.DecodeErrorPolicy) *frames.FrameError {
	fe := &frames.FrameError{
		Message: decodeErrorMessage,
		Code:    decodeErrorCode,
		Fatal:   policy != settings.DecodeErrorPolicyContinue,
	}
	var de *DecodeError
	if !errors.As(err, &de) {
		fe.Message = err.Error()
	}
	return fe
}

// topLevelError reads the error field of m. null, empty strings and other
// scalar values are not errors.
func topLevelError(m map[string]any) *frames.FrameError {
	switch e := m["error"].(type) {
	case map[string]any:
		return errorFromObject(e, defaultErrorMessage)
	case string:
		if msg := strings.TrimSpace(e); msg != "" {
			return &frames.FrameError{Message: msg, Fatal: true}
		}
	}
	return nil
}

func errorFromObject(obj map[string]any, def string) *frames.FrameError {
	fe := &frames.FrameError{Message: getString(obj, "message"), Fatal: true}
	if fe.Message == "" {
		fe.Message = def
	}
	switch c := obj["code"].(type) {
	case nil:
	case string:
		fe.Code = c
	default:
		fe.Code = fmt.Sprint(c)
	}
	return fe
}

// ErrorFrame builds an error frame carrying the status log as accumulated.
func ErrorFrame(fe *frames.FrameError, statusLog []frames.StatusLogEntry) *frames.Frame {
	f := &frames.Frame{Error: fe}
	if statusLog != nil {
		f.AddAuxiliary(frames.AuxiliaryKindStatusLog, frames.StatusLog{Log: statusLog})
	}
	return f
}
