package relay

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/relaylsp/relay/jsonrpc"
	"github.com/relaylsp/relay/protocol"
)

// ClientProxy sends requests and notifications from server to client. Before
// the client's initialized notification has been received, traffic other
// than window/logMessage is queued and flushed once Initialized is reached,
// mirroring tower-lsp's Client buffering (see original_source/src/service/client).
type ClientProxy struct {
	conn *jsonrpc.Conn

	initialized atomic.Bool
	mu          sync.Mutex
	pending     []func()
}

func newClientProxy(conn *jsonrpc.Conn) *ClientProxy {
	return &ClientProxy{conn: conn}
}

func (c *ClientProxy) markInitialized() {
	c.mu.Lock()
	queued := c.pending
	c.pending = nil
	c.initialized.Store(true)
	c.mu.Unlock()
	for _, fn := range queued {
		fn()
	}
}

// gate runs fn immediately once Initialized, otherwise queues it.
func (c *ClientProxy) gate(fn func()) {
	if c.initialized.Load() {
		fn()
		return
	}
	c.mu.Lock()
	if c.initialized.Load() {
		c.mu.Unlock()
		fn()
		return
	}
	c.pending = append(c.pending, fn)
	c.mu.Unlock()
}

// PublishDiagnostics sends diagnostics for a document to the client.
func (c *ClientProxy) PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error {
	errCh := make(chan error, 1)
	c.gate(func() { errCh <- c.conn.Notify(ctx, protocol.MethodPublishDiagnostics, params) })
	return <-errCh
}

// LogMessage sends a log message to the client. Unlike other ClientProxy
// traffic, this is never queued: tower-lsp always lets window/logMessage
// through so early diagnostics before Initialized are not lost.
func (c *ClientProxy) LogMessage(ctx context.Context, typ protocol.MessageType, message string) error {
	return c.conn.Notify(ctx, protocol.MethodLogMessage, &protocol.LogMessageParams{
		Type:    typ,
		Message: message,
	})
}

// ShowMessage sends a show message notification to the client.
func (c *ClientProxy) ShowMessage(ctx context.Context, typ protocol.MessageType, message string) error {
	errCh := make(chan error, 1)
	c.gate(func() {
		errCh <- c.conn.Notify(ctx, protocol.MethodShowMessage, &protocol.ShowMessageParams{
			Type:    typ,
			Message: message,
		})
	})
	return <-errCh
}

// ShowMessageRequest sends a show message request and waits for the user to pick an action.
func (c *ClientProxy) ShowMessageRequest(ctx context.Context, params *protocol.ShowMessageRequestParams) (*protocol.MessageActionItem, error) {
	resp, err := c.call(ctx, protocol.MethodShowMessageRequest, params)
	if err != nil {
		return nil, err
	}
	if resp.Result == nil {
		return nil, nil
	}
	var item protocol.MessageActionItem
	if err := json.Unmarshal(resp.Result, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// ApplyEdit requests the client to apply a workspace edit.
func (c *ClientProxy) ApplyEdit(ctx context.Context, params *protocol.ApplyWorkspaceEditParams) (*protocol.ApplyWorkspaceEditResponse, error) {
	resp, err := c.call(ctx, protocol.MethodApplyEdit, params)
	if err != nil {
		return nil, err
	}
	var result protocol.ApplyWorkspaceEditResponse
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Configuration requests configuration values from the client.
func (c *ClientProxy) Configuration(ctx context.Context, params *protocol.ConfigurationParams) ([]json.RawMessage, error) {
	resp, err := c.call(ctx, protocol.MethodWorkspaceConfiguration, params)
	if err != nil {
		return nil, err
	}
	var items []json.RawMessage
	if err := json.Unmarshal(resp.Result, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// RegisterCapability dynamically registers a capability with the client.
func (c *ClientProxy) RegisterCapability(ctx context.Context, params *protocol.RegistrationParams) error {
	_, err := c.call(ctx, protocol.MethodRegisterCapability, params)
	return err
}

// UnregisterCapability dynamically unregisters a capability with the client.
func (c *ClientProxy) UnregisterCapability(ctx context.Context, params *protocol.UnregistrationParams) error {
	_, err := c.call(ctx, protocol.MethodUnregisterCapability, params)
	return err
}

// RefreshDiagnostics asks the client to re-pull diagnostics.
func (c *ClientProxy) RefreshDiagnostics(ctx context.Context) error {
	_, err := c.call(ctx, protocol.MethodDiagnosticRefresh, nil)
	return err
}

// RefreshInlayHints asks the client to re-pull inlay hints.
func (c *ClientProxy) RefreshInlayHints(ctx context.Context) error {
	_, err := c.call(ctx, protocol.MethodInlayHintRefresh, nil)
	return err
}

// RefreshSemanticTokens asks the client to re-pull semantic tokens.
func (c *ClientProxy) RefreshSemanticTokens(ctx context.Context) error {
	_, err := c.call(ctx, protocol.MethodSemanticTokensRefresh, nil)
	return err
}

// WorkDoneProgressCreate asks the client to create a $/progress stream for
// token, folded in from tower-lsp's Client::progress (original_source/src/service/client).
func (c *ClientProxy) WorkDoneProgressCreate(ctx context.Context, token protocol.ProgressToken) error {
	_, err := c.call(ctx, protocol.MethodWorkDoneProgressCreate, &protocol.WorkDoneProgressCreateParams{Token: token})
	return err
}

// WorkDoneProgress reports on an existing $/progress stream. value must be
// one of protocol.WorkDoneProgressBegin, WorkDoneProgressReport, or
// WorkDoneProgressEnd.
func (c *ClientProxy) WorkDoneProgress(ctx context.Context, token protocol.ProgressToken, value interface{}) error {
	errCh := make(chan error, 1)
	c.gate(func() {
		errCh <- c.conn.Notify(ctx, protocol.MethodProgress, &protocol.ProgressParams{Token: token, Value: value})
	})
	return <-errCh
}

func (c *ClientProxy) call(ctx context.Context, method string, params interface{}) (*jsonrpc.Response, error) {
	type result struct {
		resp *jsonrpc.Response
		err  error
	}
	resCh := make(chan result, 1)
	c.gate(func() {
		resp, err := c.conn.Call(ctx, method, params)
		resCh <- result{resp, err}
	})
	r := <-resCh
	return r.resp, r.err
}
