package jsonrpc

import (
	"context"
	"errors"
)

// ErrClosed is returned by Enqueue once the outbound multiplexer has been
// closed, and by Call/Notify once the connection has terminated.
var ErrClosed = errors.New("jsonrpc: connection closed")

// DefaultOutboundQueueSize is used when no queue size is configured.
const DefaultOutboundQueueSize = 64

// outboundQueue is the single-consumer MPSC queue feeding the codec
// (spec.md §4.7). Multiple producers enqueue ordered frames; exactly one
// goroutine (Run) drains them to the byte sink, flushing per-frame.
type outboundQueue struct {
	codec  *Codec
	frames chan []byte
	done   chan struct{}
}

func newOutboundQueue(codec *Codec, size int) *outboundQueue {
	if size <= 0 {
		size = DefaultOutboundQueueSize
	}
	return &outboundQueue{
		codec:  codec,
		frames: make(chan []byte, size),
		done:   make(chan struct{}),
	}
}

// Enqueue appends a frame, blocking if the queue is full until there is
// capacity, ctx is done, or the queue has been closed.
func (q *outboundQueue) Enqueue(ctx context.Context, data []byte) error {
	select {
	case <-q.done:
		return ErrClosed
	default:
	}
	select {
	case q.frames <- data:
		return nil
	case <-q.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run drains frames to the codec in enqueue order until Close is called.
// It is the sole writer to the byte sink.
func (q *outboundQueue) Run() {
	for {
		select {
		case data := <-q.frames:
			_ = q.codec.Write(data)
		case <-q.done:
			// Drain whatever is already buffered before returning.
			for {
				select {
				case data := <-q.frames:
					_ = q.codec.Write(data)
				default:
					return
				}
			}
		}
	}
}

// Close stops Run after draining any buffered frames.
func (q *outboundQueue) Close() {
	select {
	case <-q.done:
	default:
		close(q.done)
	}
}
