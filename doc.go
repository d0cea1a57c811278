// Package relay is a batteries-included Go framework for building Language
// Server Protocol (LSP) servers. It provides functional handler registration,
// auto-detected capabilities, composable middleware, opt-in document
// synchronization, typed config with hot-reload, and first-class testing
// utilities.
//
// A minimal server needs only a few lines:
//
//	s := relay.NewServer("my-lang", "0.1.0")
//	s.OnHover(myHoverHandler)
//	relay.Serve(s, relay.WithStdio())
//
// cmd/relayd is a small complete server built this way.
package relay
