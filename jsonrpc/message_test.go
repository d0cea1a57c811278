package jsonrpc_test

import (
	"errors"
	"testing"

	"github.com/relaylsp/relay/jsonrpc"
)

func TestDecodeRequest(t *testing.T) {
	msg, err := jsonrpc.DecodeMessage([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`))
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	req, ok := msg.(*jsonrpc.Request)
	if !ok {
		t.Fatalf("got %T, want *Request", msg)
	}
	if req.Method != "initialize" {
		t.Fatalf("got method %q", req.Method)
	}
}

func TestDecodeNotification(t *testing.T) {
	msg, err := jsonrpc.DecodeMessage([]byte(`{"jsonrpc":"2.0","method":"initialized","params":{}}`))
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	if _, ok := msg.(*jsonrpc.Notification); !ok {
		t.Fatalf("got %T, want *Notification", msg)
	}
}

func TestDecodeResponseOk(t *testing.T) {
	msg, err := jsonrpc.DecodeMessage([]byte(`{"jsonrpc":"2.0","id":1,"result":{"ok":true}}`))
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	resp, ok := msg.(*jsonrpc.Response)
	if !ok {
		t.Fatalf("got %T, want *Response", msg)
	}
	if resp.Error != nil {
		t.Fatalf("unexpected error: %v", resp.Error)
	}
}

func TestDecodeInvalidShapeIsError(t *testing.T) {
	_, err := jsonrpc.DecodeMessage([]byte(`{"jsonrpc":"2.0"}`))
	if err == nil {
		t.Fatalf("expected error for shape with no method/id/result/error")
	}
}

func TestDecodeBatchOrderedOmitsNotificationResponses(t *testing.T) {
	msg, err := jsonrpc.DecodeMessage([]byte(`[
		{"jsonrpc":"2.0","id":1,"method":"a","params":{}},
		{"jsonrpc":"2.0","method":"b","params":{}},
		{"jsonrpc":"2.0","id":2,"method":"c","params":{}}
	]`))
	if err != nil {
		t.Fatalf("DecodeMessage: %v", err)
	}
	batch, ok := msg.(jsonrpc.Batch)
	if !ok {
		t.Fatalf("got %T, want Batch", msg)
	}
	if len(batch) != 3 {
		t.Fatalf("got %d items, want 3", len(batch))
	}
	if _, ok := batch[0].(*jsonrpc.Request); !ok {
		t.Fatalf("batch[0]: got %T, want *Request", batch[0])
	}
	if _, ok := batch[1].(*jsonrpc.Notification); !ok {
		t.Fatalf("batch[1]: got %T, want *Notification", batch[1])
	}
	if _, ok := batch[2].(*jsonrpc.Request); !ok {
		t.Fatalf("batch[2]: got %T, want *Request", batch[2])
	}

	responses := []*jsonrpc.Response{
		jsonrpc.NewResponse(batch[0].(*jsonrpc.Request).ID, "ok-a", nil),
		jsonrpc.NewResponse(batch[2].(*jsonrpc.Request).ID, "ok-c", nil),
	}
	data, err := jsonrpc.EncodeBatchResponses(responses)
	if err != nil {
		t.Fatalf("EncodeBatchResponses: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty batch response payload")
	}
}

func TestIDStructuralEquality(t *testing.T) {
	a := jsonrpc.IntID(5)
	b := jsonrpc.IntID(5)
	if a.Value() != b.Value() {
		t.Fatalf("expected structurally equal ids")
	}

	s := jsonrpc.StringID("x")
	if s.Value() != "x" {
		t.Fatalf("got %v, want x", s.Value())
	}
}

func TestNewResponseWrapsPlainError(t *testing.T) {
	resp := jsonrpc.NewResponse(jsonrpc.IntID(1), nil, errors.New("boom"))
	if resp.Error == nil || resp.Error.Code != jsonrpc.CodeInternalError {
		t.Fatalf("got %+v, want InternalError", resp.Error)
	}
}

func TestNewResponseNilResultEncodesNull(t *testing.T) {
	resp := jsonrpc.NewResponse(jsonrpc.IntID(1), nil, nil)
	if string(resp.Result) != "null" {
		t.Fatalf("got %s, want null", resp.Result)
	}
}
