package frames

import (
	"context"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/rs/zerolog/log"

	"github.com/go-go-golems/responses-aggregator/pkg/helpers"
)

// FrameRouter wires an in-process gochannel pubsub to a watermill router so
// frames published through a WatermillSink can be consumed by handlers.
type FrameRouter struct {
	logger     watermill.LoggerAdapter
	Publisher  message.Publisher
	Subscriber message.Subscriber
	router     *message.Router
}

type FrameRouterOption func(*FrameRouter)

func WithLogger(logger watermill.LoggerAdapter) FrameRouterOption {
	return func(r *FrameRouter) {
		r.logger = logger
	}
}

func WithVerbose(verbose bool) FrameRouterOption {
	return func(r *FrameRouter) {
		if verbose {
			r.logger = helpers.NewWatermill(log.Logger)
		}
	}
}

func NewFrameRouter(options ...FrameRouterOption) (*FrameRouter, error) {
	ret := &FrameRouter{
		logger: watermill.NopLogger{},
	}
	for _, o := range options {
		o(ret)
	}

	goPubSub := gochannel.NewGoChannel(gochannel.Config{
		BlockPublishUntilSubscriberAck: true,
	}, ret.logger)
	ret.Publisher = helpers.CorrelationPublisherDecorator{Publisher: goPubSub}
	ret.Subscriber = goPubSub

	router, err := message.NewRouter(message.RouterConfig{}, ret.logger)
	if err != nil {
		return nil, err
	}
	ret.router = router

	return ret, nil
}

// AddFrameHandler registers a handler receiving decoded frames from topic.
// Messages that fail to decode are logged and dropped.
func (r *FrameRouter) AddFrameHandler(name string, topic string, f func(msg *message.Message, frame *Frame) error) {
	r.router.AddNoPublisherHandler(name, topic, r.Subscriber, func(msg *message.Message) error {
		frame, err := NewFrameFromJSON(msg.Payload)
		if err != nil {
			log.Error().Err(err).Str("message_id", msg.UUID).Msg("Failed to parse frame from message payload")
			return nil
		}
		return f(msg, frame)
	})
}

func (r *FrameRouter) Close() error {
	log.Debug().Msg("Closing publisher")
	if err := r.Publisher.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close pubsub")
	}
	log.Debug().Msg("Closing router")
	if err := r.router.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close router")
	}
	return nil
}

func (r *FrameRouter) Running() chan struct{} {
	return r.router.Running()
}

func (r *FrameRouter) IsRunning() bool {
	return r.router.IsRunning()
}

func (r *FrameRouter) Run(ctx context.Context) error {
	return r.router.Run(ctx)
}
