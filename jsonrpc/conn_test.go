package jsonrpc_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/relaylsp/relay/jsonrpc"
	"github.com/relaylsp/relay/transport"
)

// wirePair builds a client/server Conn pair over an in-memory transport,
// with the server side dispatching to the given handler.
func wirePair(t *testing.T, handler jsonrpc.RequestHandler) (client *jsonrpc.Conn, stop func()) {
	t.Helper()
	clientT, serverT := transport.MemoryPipe()

	var serverConn *jsonrpc.Conn
	serverConn = jsonrpc.NewConn(jsonrpc.NewCodec(serverT, serverT), handler, func(ctx context.Context, method string, params jsonrpc.RawMessage) {
		if method != "$/cancelRequest" {
			return
		}
		var p struct {
			ID jsonrpc.ID `json:"id"`
		}
		if err := json.Unmarshal(params, &p); err != nil {
			return
		}
		serverConn.CancelPending(p.ID)
	})
	clientConn := jsonrpc.NewConn(jsonrpc.NewCodec(clientT, clientT),
		func(context.Context, string, jsonrpc.RawMessage) (interface{}, error) {
			return nil, &jsonrpc.Error{Code: jsonrpc.CodeMethodNotFound, Message: "client has no handlers"}
		},
		func(context.Context, string, jsonrpc.RawMessage) {})

	ctx, cancel := context.WithCancel(context.Background())
	go serverConn.Run(ctx)
	go clientConn.Run(ctx)

	return clientConn, func() {
		cancel()
		clientConn.Close()
		serverConn.Close()
		clientT.Close()
		serverT.Close()
	}
}

func TestConnCallRoundTrip(t *testing.T) {
	client, stop := wirePair(t, func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
		if method != "echo" {
			return nil, &jsonrpc.Error{Code: jsonrpc.CodeMethodNotFound, Message: method}
		}
		return json.RawMessage(params), nil
	})
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := client.Call(ctx, "echo", map[string]string{"hello": "world"})
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error response: %v", resp.Error)
	}
	var got map[string]string
	if err := json.Unmarshal(resp.Result, &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got["hello"] != "world" {
		t.Fatalf("got %v, want hello=world", got)
	}
}

func TestConnCancelRequestCancelsHandler(t *testing.T) {
	started := make(chan struct{})
	client, stop := wirePair(t, func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	type callResult struct {
		resp *jsonrpc.Response
		err  error
	}
	resCh := make(chan callResult, 1)
	go func() {
		resp, err := client.Call(ctx, "blockUntilCancelled", nil)
		resCh <- callResult{resp, err}
	}()

	select {
	case <-started:
	case <-ctx.Done():
		t.Fatal("handler never started")
	}

	if err := client.Notify(ctx, "$/cancelRequest", map[string]int{"id": 1}); err != nil {
		t.Fatalf("Notify cancel: %v", err)
	}

	select {
	case r := <-resCh:
		if r.err != nil {
			t.Fatalf("Call: %v", r.err)
		}
		if r.resp.Error == nil || r.resp.Error.Code != jsonrpc.CodeRequestCancelled {
			t.Fatalf("got %+v, want an error response with RequestCancelled after cancellation", r.resp.Error)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for cancelled call to resolve")
	}
}

func TestConnNotifyDoesNotBlockOnResponse(t *testing.T) {
	client, stop := wirePair(t, func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
		return nil, nil
	})
	defer stop()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Notify(ctx, "textDocument/didOpen", map[string]string{"uri": "file:///x"}); err != nil {
		t.Fatalf("Notify: %v", err)
	}
}
