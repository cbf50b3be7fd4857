package frames

import "sync"

// FrameSink is a destination for frames produced by the aggregator.
// Implementations can forward frames to a message bus, a log, or a test buffer.
type FrameSink interface {
	PublishFrame(f *Frame) error
}

// SinkFunc adapts a plain function to the FrameSink interface.
type SinkFunc func(f *Frame) error

func (s SinkFunc) PublishFrame(f *Frame) error {
	return s(f)
}

// NullSink discards all frames.
type NullSink struct{}

func NewNullSink() *NullSink {
	return &NullSink{}
}

func (n *NullSink) PublishFrame(*Frame) error {
	return nil
}

// CollectingSink buffers every frame it receives. Safe for concurrent use.
type CollectingSink struct {
	mu     sync.Mutex
	frames []*Frame
}

func NewCollectingSink() *CollectingSink {
	return &CollectingSink{}
}

func (c *CollectingSink) PublishFrame(f *Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.frames = append(c.frames, f)
	return nil
}

// Frames returns a copy of the collected frames.
func (c *CollectingSink) Frames() []*Frame {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*Frame{}, c.frames...)
}

// Text concatenates the text deltas collected so far.
func (c *CollectingSink) Text() string {
	return ConcatText(c.Frames())
}

var (
	_ FrameSink = (*NullSink)(nil)
	_ FrameSink = (*CollectingSink)(nil)
	_ FrameSink = SinkFunc(nil)
)
