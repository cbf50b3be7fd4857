package frames

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/rs/zerolog/log"
)

const (
	MetadataSequenceNumber = "sequence_number"
	MetadataResponseID     = "response_id"
)

// WatermillSink publishes frames as JSON messages to a watermill Publisher.
// Each message carries a monotonically increasing sequence_number.
// Delivery follows emission order only when the publisher blocks until the
// subscriber acks (gochannel with BlockPublishUntilSubscriberAck, as
// NewFrameRouter configures it). With any other publisher, subscribers must
// reorder by sequence_number.
type WatermillSink struct {
	publisher message.Publisher
	topic     string

	mu             sync.Mutex
	sequenceNumber uint64
	responseID     string
}

func NewWatermillSink(publisher message.Publisher, topic string) *WatermillSink {
	return &WatermillSink{
		publisher: publisher,
		topic:     topic,
	}
}

// SetResponseID tags every following message with the given response id.
func (w *WatermillSink) SetResponseID(id string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.responseID = id
}

func (w *WatermillSink) PublishFrame(f *Frame) error {
	payload, err := json.Marshal(f)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal frame to JSON")
		return err
	}

	w.mu.Lock()
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set(MetadataSequenceNumber, fmt.Sprintf("%d", w.sequenceNumber))
	if w.responseID != "" {
		msg.Metadata.Set(MetadataResponseID, w.responseID)
	}
	w.sequenceNumber++
	w.mu.Unlock()

	err = w.publisher.Publish(w.topic, msg)
	if err != nil {
		log.Error().Err(err).Str("topic", w.topic).Msg("Failed to publish frame to watermill")
		return err
	}

	log.Trace().Str("topic", w.topic).Object("frame", f).Msg("Published frame to watermill")
	return nil
}

var _ FrameSink = (*WatermillSink)(nil)
