// Package jsonrpc implements a bidirectional JSON-RPC 2.0 connection over
// Content-Length framed streams, as specified by the LSP base protocol. It
// owns message framing, request/response/notification classification,
// id-correlated pending tables in both directions, per-request
// cancellation, and backpressure on the outbound queue. It has no opinion
// about LSP method names or the session lifecycle; those are layered on top
// by the handler callback its caller supplies.
package jsonrpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
)

// RequestHandler processes an incoming JSON-RPC request and returns its
// result or error. ctx is cancelled if a matching $/cancelRequest is
// accepted by the caller (via Conn.CancelPending) or the connection exits.
type RequestHandler func(ctx context.Context, method string, params RawMessage) (result interface{}, err error)

// NotificationHandler processes an incoming JSON-RPC notification.
type NotificationHandler func(ctx context.Context, method string, params RawMessage)

// Conn is a bidirectional JSON-RPC 2.0 connection: the inbound demultiplexer,
// response router, outbound multiplexer, and both pending-id tables from
// spec.md §4 live here.
type Conn struct {
	codec   *Codec
	handler RequestHandler
	notif   NotificationHandler
	logger  *slog.Logger

	out          *outboundQueue
	backpressure chan struct{}

	pendingOut *PendingOutTable
	pendingIn  *PendingInTable
	nextID     atomic.Int64

	closer io.Closer

	exited    atomic.Bool
	closeOnce sync.Once
	done      chan struct{}
}

// ConnOption configures optional Conn behavior.
type ConnOption func(*connConfig)

type connConfig struct {
	queueSize int
	logger    *slog.Logger
	closer    io.Closer
}

// WithOutboundQueueSize bounds the outbound multiplexer's queue, which also
// sizes the backpressure semaphore applied to inbound requests.
func WithOutboundQueueSize(n int) ConnOption {
	return func(c *connConfig) { c.queueSize = n }
}

// WithConnLogger sets the logger used for frame errors and unknown response ids.
func WithConnLogger(l *slog.Logger) ConnOption {
	return func(c *connConfig) { c.logger = l }
}

// WithTransportCloser gives the connection a handle on the underlying
// transport so that terminating the session (exit, a fatal read error, or
// an explicit Close) can close it. Without this, a Run goroutine blocked in
// codec.Read has nothing to unblock it on exit (spec.md §4.8).
func WithTransportCloser(c io.Closer) ConnOption {
	return func(cfg *connConfig) { cfg.closer = c }
}

// NewConn creates a new JSON-RPC connection using the given codec, request
// handler, and notification handler.
func NewConn(codec *Codec, handler RequestHandler, notif NotificationHandler, opts ...ConnOption) *Conn {
	cfg := &connConfig{queueSize: DefaultOutboundQueueSize, logger: slog.Default()}
	for _, o := range opts {
		o(cfg)
	}
	return &Conn{
		codec:        codec,
		handler:      handler,
		notif:        notif,
		logger:       cfg.logger,
		out:          newOutboundQueue(codec, cfg.queueSize),
		backpressure: make(chan struct{}, cfg.queueSize),
		pendingOut:   NewPendingOutTable(),
		pendingIn:    NewPendingInTable(),
		closer:       cfg.closer,
		done:         make(chan struct{}),
	}
}

// Run reads and dispatches messages until the connection is closed, the
// context is cancelled, or a fatal transport error occurs. A FrameError or
// message-level parse failure never terminates the loop (spec.md §7).
func (c *Conn) Run(ctx context.Context) error {
	go c.out.Run()
	defer c.out.Close()

	for {
		select {
		case <-ctx.Done():
			c.terminate()
			return ctx.Err()
		case <-c.done:
			return nil
		default:
		}

		data, err := c.codec.Read()
		if err != nil {
			var ferr *FrameError
			if errors.As(err, &ferr) {
				c.logger.Warn("frame error", "kind", ferr.Kind.String())
				c.enqueueParseError()
				continue
			}
			select {
			case <-c.done:
				return nil
			default:
			}
			c.terminate()
			return fmt.Errorf("reading message: %w", err)
		}

		msg, err := DecodeMessage(data)
		if err != nil {
			c.enqueueParseError()
			continue
		}

		switch m := msg.(type) {
		case *Request:
			c.acquireBackpressure()
			go c.handleRequest(ctx, m)
		case *Notification:
			go c.handleNotification(ctx, m)
		case *Response:
			c.handleResponse(m)
		case Batch:
			go c.handleBatch(ctx, m)
		}
	}
}

func (c *Conn) acquireBackpressure() { c.backpressure <- struct{}{} }
func (c *Conn) releaseBackpressure() { <-c.backpressure }

func (c *Conn) handleRequest(ctx context.Context, req *Request) {
	resp := c.computeResponse(ctx, req)
	c.releaseBackpressure()
	if resp == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		c.logger.Error("marshalling response", "error", err)
		return
	}
	_ = c.out.Enqueue(context.Background(), data)
}

// computeResponse runs the handler for a single request under a
// cancellable context and returns the response to send, or nil if the
// session has exited in the meantime and the reply must be dropped.
func (c *Conn) computeResponse(parent context.Context, req *Request) *Response {
	reqCtx, cancel := context.WithCancel(parent)
	token := c.pendingIn.Register(req.ID, cancel)
	defer func() {
		c.pendingIn.Remove(req.ID)
		cancel()
	}()

	result, err := c.safeInvoke(reqCtx, req.Method, req.Params)

	if c.exited.Load() {
		return nil
	}

	if token.fired.Load() || errors.Is(err, context.Canceled) {
		err = &Error{Code: CodeRequestCancelled, Message: "request cancelled"}
		result = nil
	}
	return NewResponse(req.ID, result, err)
}

// safeInvoke recovers a handler panic into an InternalError result so that
// no handler failure, short of a transport error, can end the session.
func (c *Conn) safeInvoke(ctx context.Context, method string, params RawMessage) (result interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in handler", "method", method, "panic", fmt.Sprint(r))
			result = nil
			err = &Error{Code: CodeInternalError, Message: fmt.Sprintf("internal error: %v", r)}
		}
	}()
	return c.handler(ctx, method, params)
}

func (c *Conn) handleNotification(ctx context.Context, notif *Notification) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("panic in notification handler", "method", notif.Method, "panic", fmt.Sprint(r))
		}
	}()
	if c.notif != nil {
		c.notif(ctx, notif.Method, notif.Params)
	}
}

func (c *Conn) handleResponse(resp *Response) {
	if !c.pendingOut.Complete(resp.ID, resp) {
		c.logger.Warn("response for unknown request id discarded", "id", resp.ID.Value())
	}
}

// handleBatch processes a decoded Batch: requests run concurrently (each
// still subject to backpressure and cancellation), notifications fire
// independently, and inbound responses route normally. The reply batch
// preserves the original request order and omits notification entries.
func (c *Conn) handleBatch(ctx context.Context, batch Batch) {
	slots := make([]*Response, len(batch))
	order := make([]int, 0, len(batch))
	done := make(chan struct{}, len(batch))
	pending := 0

	for i, item := range batch {
		switch m := item.(type) {
		case *Request:
			order = append(order, i)
			pending++
			c.acquireBackpressure()
			go func(i int, req *Request) {
				slots[i] = c.computeResponse(ctx, req)
				c.releaseBackpressure()
				done <- struct{}{}
			}(i, m)
		case *Notification:
			go c.handleNotification(ctx, m)
		case *Response:
			c.handleResponse(m)
		}
	}
	for j := 0; j < pending; j++ {
		<-done
	}

	responses := make([]*Response, 0, len(order))
	for _, i := range order {
		if slots[i] != nil {
			responses = append(responses, slots[i])
		}
	}
	if len(responses) == 0 {
		return
	}
	data, err := EncodeBatchResponses(responses)
	if err != nil {
		c.logger.Error("marshalling batch response", "error", err)
		return
	}
	_ = c.out.Enqueue(context.Background(), data)
}

func (c *Conn) enqueueParseError() {
	resp := &Response{
		JSONRPC: Version,
		ID:      ID{},
		Error:   &Error{Code: CodeParseError, Message: "failed to parse JSON-RPC message"},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = c.out.Enqueue(context.Background(), data)
}

// Call sends a request and waits for a response, the caller's context
// being done, or the connection closing.
func (c *Conn) Call(ctx context.Context, method string, params interface{}) (*Response, error) {
	id := IntID(c.nextID.Add(1))
	paramsData, err := marshalParams(params)
	if err != nil {
		return nil, err
	}

	req := &Request{JSONRPC: Version, ID: id, Method: method, Params: paramsData}
	ch := c.pendingOut.Register(id)

	data, err := json.Marshal(req)
	if err != nil {
		c.pendingOut.Remove(id)
		return nil, err
	}
	if err := c.out.Enqueue(ctx, data); err != nil {
		c.pendingOut.Remove(id)
		return nil, err
	}

	select {
	case o := <-ch:
		if o.err != nil {
			return nil, o.err
		}
		return o.resp, nil
	case <-ctx.Done():
		c.pendingOut.Remove(id)
		return nil, ctx.Err()
	case <-c.done:
		c.pendingOut.Remove(id)
		return nil, ErrClosed
	}
}

// Notify sends a notification (no response expected).
func (c *Conn) Notify(ctx context.Context, method string, params interface{}) error {
	paramsData, err := marshalParams(params)
	if err != nil {
		return err
	}
	notif := &Notification{JSONRPC: Version, Method: method, Params: paramsData}
	data, err := json.Marshal(notif)
	if err != nil {
		return err
	}
	return c.out.Enqueue(ctx, data)
}

// CancelPending fires cancellation for an in-flight inbound request,
// intended to be called by the dispatcher once it has decided (based on
// session state) that a $/cancelRequest should be honored. Returns false
// for an unknown or already-completed id.
func (c *Conn) CancelPending(id ID) bool {
	return c.pendingIn.Cancel(id)
}

// terminate ends the session: no further replies are sent, every in-flight
// handler is cancelled, every outstanding outbound request fails, and the
// underlying transport (if any) is closed so a Run goroutine blocked in
// codec.Read unblocks with an error instead of hanging forever (spec.md
// §4.8, §5: exit cancels every pending-in task and fails every pending-out
// slot with Cancelled). Equivalent to Close; terminate is the name used by
// Run's own exit paths, Close is the public spelling other packages call.
func (c *Conn) terminate() {
	c.closeOnce.Do(func() {
		c.exited.Store(true)
		c.pendingIn.CancelAll()
		c.pendingOut.FailAll(ErrClosed)
		close(c.done)
		c.out.Close()
		if c.closer != nil {
			c.closer.Close()
		}
	})
}

// Close terminates the connection: cancels every in-flight inbound handler,
// fails every outstanding outbound call with ErrClosed, stops the outbound
// writer, and closes the underlying transport. Safe to call more than once
// and from any goroutine; only the first call has effect.
func (c *Conn) Close() {
	c.terminate()
}
