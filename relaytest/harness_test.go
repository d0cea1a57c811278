package relaytest_test

import (
	"testing"

	"github.com/relaylsp/relay"
	"github.com/relaylsp/relay/relaytest"
	"github.com/relaylsp/relay/protocol"
)

func TestClientHover(t *testing.T) {
	s := relay.NewServer("test-server", "0.1.0", relay.WithDocumentSync())
	s.OnHover(func(ctx *relay.Context, p *protocol.HoverParams) (*protocol.Hover, error) {
		doc := ctx.Documents.Get(p.TextDocument.URI)
		if doc == nil {
			return nil, nil
		}
		word := doc.WordAt(p.Position)
		return &protocol.Hover{
			Contents: protocol.MarkupContent{
				Kind:  protocol.Markdown,
				Value: "**" + word + "**",
			},
		}, nil
	})

	c := relaytest.NewClient(t, s)
	c.Open("file:///test.txt", "hello world")

	hover, err := c.Hover("file:///test.txt", relaytest.Pos(0, 2))
	if err != nil {
		t.Fatalf("hover error: %v", err)
	}
	relaytest.AssertHoverContains(t, hover, "hello")
}

func TestClientCompletion(t *testing.T) {
	s := relay.NewServer("test-server", "0.1.0")
	s.OnCompletion(func(ctx *relay.Context, p *protocol.CompletionParams) (*protocol.CompletionList, error) {
		return &protocol.CompletionList{
			Items: []protocol.CompletionItem{
				{Label: "foo"},
				{Label: "bar"},
			},
		}, nil
	})

	c := relaytest.NewClient(t, s)
	c.Open("file:///test.txt", "")

	result, err := c.Completion("file:///test.txt", relaytest.Pos(0, 0))
	if err != nil {
		t.Fatalf("completion error: %v", err)
	}
	relaytest.AssertCompletionContains(t, result, "foo")
	relaytest.AssertCompletionContains(t, result, "bar")
}
