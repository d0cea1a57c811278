package jsonrpc_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/relaylsp/relay/jsonrpc"
)

func TestRoundTripEncodeDecode(t *testing.T) {
	var buf bytes.Buffer
	codec := jsonrpc.NewCodec(&buf, &buf)

	payload := []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)
	if err := codec.Write(payload); err != nil {
		t.Fatalf("Write: %v", err)
	}

	got, err := codec.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("got %s, want %s", got, payload)
	}
}

func TestHeaderNamesCaseInsensitive(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"initialized"}`
	raw := "CONTENT-LENGTH: " + strLen(body) + "\r\n\r\n" + body
	codec := jsonrpc.NewCodec(strings.NewReader(raw), &bytes.Buffer{})

	got, err := codec.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != body {
		t.Fatalf("got %s, want %s", got, body)
	}
}

func TestUnknownHeadersTolerated(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"initialized"}`
	raw := "X-Custom: whatever\r\nContent-Length: " + strLen(body) + "\r\n\r\n" + body
	codec := jsonrpc.NewCodec(strings.NewReader(raw), &bytes.Buffer{})

	got, err := codec.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != body {
		t.Fatalf("got %s, want %s", got, body)
	}
}

func TestContentTypeValidatedCharset(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"initialized"}`
	raw := "Content-Length: " + strLen(body) + "\r\nContent-Type: application/vscode-jsonrpc; charset=utf8\r\n\r\n" + body
	codec := jsonrpc.NewCodec(strings.NewReader(raw), &bytes.Buffer{})

	got, err := codec.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != body {
		t.Fatalf("got %s, want %s", got, body)
	}
}

func TestContentTypeBadCharsetIsInvalidHeader(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"initialized"}`
	raw := "Content-Length: " + strLen(body) + "\r\nContent-Type: application/vscode-jsonrpc; charset=latin1\r\n\r\n" + body
	codec := jsonrpc.NewCodec(strings.NewReader(raw), &bytes.Buffer{})

	_, err := codec.Read()
	var ferr *jsonrpc.FrameError
	if !asFrameError(err, &ferr) {
		t.Fatalf("got %v, want *FrameError", err)
	}
	if ferr.Kind != jsonrpc.InvalidHeader {
		t.Fatalf("got kind %v, want InvalidHeader", ferr.Kind)
	}
}

func TestMissingContentLength(t *testing.T) {
	raw := "Content-Type: application/vscode-jsonrpc; charset=utf-8\r\n\r\n"
	codec := jsonrpc.NewCodec(strings.NewReader(raw), &bytes.Buffer{})

	_, err := codec.Read()
	var ferr *jsonrpc.FrameError
	if !asFrameError(err, &ferr) {
		t.Fatalf("got %v, want *FrameError", err)
	}
	if ferr.Kind != jsonrpc.MissingContentLength {
		t.Fatalf("got kind %v, want MissingContentLength", ferr.Kind)
	}
}

func TestBadLengthResyncsToNextFrame(t *testing.T) {
	body := `{"jsonrpc":"2.0","method":"initialized"}`
	raw := "Content-Length: not-a-number\r\n\r\n" +
		"Content-Length: " + strLen(body) + "\r\n\r\n" + body
	codec := jsonrpc.NewCodec(strings.NewReader(raw), &bytes.Buffer{})

	_, err := codec.Read()
	var ferr *jsonrpc.FrameError
	if !asFrameError(err, &ferr) || ferr.Kind != jsonrpc.BadLength {
		t.Fatalf("first Read: got %v, want *FrameError{BadLength}", err)
	}

	got, err := codec.Read()
	if err != nil {
		t.Fatalf("second Read after resync: %v", err)
	}
	if string(got) != body {
		t.Fatalf("got %s, want %s", got, body)
	}
}

func TestContentLengthZeroDecodesToEmptyBody(t *testing.T) {
	raw := "Content-Length: 0\r\n\r\n"
	codec := jsonrpc.NewCodec(strings.NewReader(raw), &bytes.Buffer{})

	got, err := codec.Read()
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %q, want empty body", got)
	}
}

func strLen(s string) string {
	n := len(s)
	if n == 0 {
		return "0"
	}
	var digits []byte
	for n > 0 {
		digits = append([]byte{byte('0' + n%10)}, digits...)
		n /= 10
	}
	return string(digits)
}

func asFrameError(err error, out **jsonrpc.FrameError) bool {
	fe, ok := err.(*jsonrpc.FrameError)
	if ok {
		*out = fe
	}
	return ok
}
