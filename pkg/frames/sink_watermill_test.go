package frames

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatermillSinkPublishesSequencedMessages(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{
		OutputChannelBuffer:            10,
		BlockPublishUntilSubscriberAck: true,
	}, watermill.NopLogger{})
	defer func() { _ = pubSub.Close() }()

	msgs, err := pubSub.Subscribe(context.Background(), "frames")
	require.NoError(t, err)

	sink := NewWatermillSink(pubSub, "frames")
	published := make(chan error, 1)
	go func() {
		if err := sink.PublishFrame(&Frame{TextDelta: "a"}); err != nil {
			published <- err
			return
		}
		sink.SetResponseID("resp_1")
		published <- sink.PublishFrame(&Frame{IsDone: true})
	}()

	for i := 0; i < 2; i++ {
		select {
		case msg := <-msgs:
			assert.Equal(t, strconv.Itoa(i), msg.Metadata.Get(MetadataSequenceNumber))
			f, err := NewFrameFromJSON(msg.Payload)
			require.NoError(t, err)
			if i == 0 {
				assert.Equal(t, "a", f.TextDelta)
				assert.Empty(t, msg.Metadata.Get(MetadataResponseID))
			} else {
				assert.True(t, f.IsDone)
				assert.Equal(t, "resp_1", msg.Metadata.Get(MetadataResponseID))
			}
			msg.Ack()
		case <-time.After(time.Second):
			t.Fatalf("message %d not delivered", i)
		}
	}

	select {
	case err := <-published:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("publisher still blocked after both acks")
	}
}

func TestFrameRouterDeliversDecodedFrames(t *testing.T) {
	r, err := NewFrameRouter()
	require.NoError(t, err)

	var mu sync.Mutex
	var got []*Frame
	correlation := make(chan string, 1)
	done := make(chan struct{})
	r.AddFrameHandler("collect", "frames", func(msg *message.Message, f *Frame) error {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, f)
		if f.IsDone {
			correlation <- msg.Metadata.Get("correlation_id")
			close(done)
		}
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()
	<-r.Running()

	sink := NewWatermillSink(r.Publisher, "frames")
	sink.SetResponseID("resp_9")
	require.NoError(t, sink.PublishFrame(&Frame{TextDelta: "Hi"}))
	require.NoError(t, sink.PublishFrame(&Frame{IsDone: true}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("terminal frame not delivered")
	}
	assert.Equal(t, "resp_9", <-correlation)
	require.NoError(t, r.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "Hi", ConcatText(got))
}
