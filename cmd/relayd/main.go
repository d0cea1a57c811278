// Command relayd is a thin binary wrapper around a relay.Server: it owns
// the process, translates relay.Serve's returned ExitCode into os.Exit, and
// is the only place in this module allowed to call os.Exit outside of CLI
// argument parsing in options.go.
package main

import (
	"fmt"
	"os"

	"github.com/relaylsp/relay"
	"github.com/relaylsp/relay/protocol"
)

func main() {
	s := relay.NewServer("relayd", "0.1.0", relay.WithDocumentSync())

	s.OnHover(func(ctx *relay.Context, p *protocol.HoverParams) (*protocol.Hover, error) {
		doc := ctx.Documents.Get(p.TextDocument.URI)
		if doc == nil {
			return nil, nil
		}
		word := doc.WordAt(p.Position)
		if word == "" {
			return nil, nil
		}
		return &protocol.Hover{
			Contents: protocol.MarkupContent{Kind: protocol.Markdown, Value: "`" + word + "`"},
		}, nil
	})

	code, err := relay.Serve(s, relay.FromArgs())
	if err != nil {
		fmt.Fprintln(os.Stderr, "relayd:", err)
	}
	os.Exit(int(code))
}
