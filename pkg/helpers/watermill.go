package helpers

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/lithammer/shortuuid/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ZerologLoggerAdapter routes watermill logging through zerolog.
type ZerologLoggerAdapter struct {
	logger zerolog.Logger
}

func NewWatermill(logger zerolog.Logger) *ZerologLoggerAdapter {
	return &ZerologLoggerAdapter{logger: logger}
}

func (z *ZerologLoggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	z.logger.Error().Fields(map[string]interface{}(fields)).Err(err).Msg(msg)
}

// Info is logged at debug level, the router reports every handler start.
func (z *ZerologLoggerAdapter) Info(msg string, fields watermill.LogFields) {
	z.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z *ZerologLoggerAdapter) Debug(msg string, fields watermill.LogFields) {
	z.logger.Debug().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z *ZerologLoggerAdapter) Trace(msg string, fields watermill.LogFields) {
	z.logger.Trace().Fields(map[string]interface{}(fields)).Msg(msg)
}

func (z *ZerologLoggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &ZerologLoggerAdapter{logger: z.logger.With().Fields(map[string]interface{}(fields)).Logger()}
}

var _ watermill.LoggerAdapter = (*ZerologLoggerAdapter)(nil)

const (
	CorrelationIDMetadataKey = "correlation_id"
	// ResponseIDMetadataKey matches the key frame sinks tag messages with.
	ResponseIDMetadataKey = "response_id"
	generatedPrefix       = "gen_"
)

type correlationIDKeyType struct{}

func ContextWithCorrelationID(ctx context.Context, correlationID string) context.Context {
	return context.WithValue(ctx, correlationIDKeyType{}, correlationID)
}

// CorrelationIDFromContext returns the id stored in ctx, or a generated id
// prefixed with "gen_" so missing propagation is visible downstream.
func CorrelationIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(correlationIDKeyType{}).(string); ok && v != "" {
		return v
	}
	return generatedPrefix + shortuuid.New()
}

// IsGeneratedCorrelationID reports whether the id was made up by
// CorrelationIDFromContext.
func IsGeneratedCorrelationID(id string) bool {
	return len(id) > len(generatedPrefix) && id[:len(generatedPrefix)] == generatedPrefix
}

// CorrelationPublisherDecorator stamps a correlation id on every outgoing
// message that does not carry one. The provider response id is preferred,
// then the id stored in the message context.
type CorrelationPublisherDecorator struct {
	message.Publisher
}

func (c CorrelationPublisherDecorator) Publish(topic string, messages ...*message.Message) error {
	for _, msg := range messages {
		if msg.Metadata.Get(CorrelationIDMetadataKey) != "" {
			continue
		}
		id := msg.Metadata.Get(ResponseIDMetadataKey)
		if id == "" {
			id = CorrelationIDFromContext(msg.Context())
			log.Trace().Str("message_id", msg.UUID).Str("correlation_id", id).Msg("Responses: no response id on message")
		}
		msg.Metadata.Set(CorrelationIDMetadataKey, id)
	}
	return c.Publisher.Publish(topic, messages...)
}
