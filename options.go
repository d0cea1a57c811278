package relay

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/relaylsp/relay/document"
	"github.com/relaylsp/relay/jsonrpc"
	"github.com/relaylsp/relay/middleware"
	"github.com/relaylsp/relay/transport"
)

// Option configures a Server. Options passed to NewServer are stored and
// applied when Serve starts, not by NewServer itself.
type Option func(*Server)

// ServeOption configures how the server is served.
type ServeOption func(*serveConfig)

type serveConfig struct {
	transport        transport.Transport
	transportFactory func() (transport.Transport, error)
	connOpts         []jsonrpc.ConnOption
}

// WithStdio configures the server to communicate over stdin/stdout.
func WithStdio() ServeOption {
	return func(cfg *serveConfig) {
		cfg.transport = transport.Stdio()
	}
}

// WithTransport configures the server to use a specific transport.
func WithTransport(t transport.Transport) ServeOption {
	return func(cfg *serveConfig) {
		cfg.transport = t
	}
}

// WithLogger sets a custom slog logger on the server.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

// WithDocumentSync opts the server into the built-in document store: open
// documents are tracked via didOpen/didChange/didClose and made available
// through Context.Documents. The core does not enable this by default, so
// an embedder that never calls WithDocumentSync gets a server that persists
// no document state at all.
func WithDocumentSync() Option {
	return func(s *Server) {
		if s.docStore == nil {
			s.docStore = document.NewStore()
		}
	}
}

// WithOutboundQueueSize bounds the outbound write queue, which also sizes
// the backpressure semaphore applied to inbound requests (spec.md §5).
func WithOutboundQueueSize(n int) ServeOption {
	return func(cfg *serveConfig) {
		cfg.connOpts = append(cfg.connOpts, jsonrpc.WithOutboundQueueSize(n))
	}
}

// WithMiddleware adds middleware to the server's dispatch chain.
// Middleware is applied in order: the first middleware is outermost.
func WithMiddleware(mws ...middleware.Middleware) Option {
	return func(s *Server) {
		s.middlewares = append(s.middlewares, mws...)
	}
}

// WithTCP configures the server to listen on a TCP address (e.g., ":9257").
func WithTCP(addr string) ServeOption {
	return func(cfg *serveConfig) {
		cfg.transportFactory = func() (transport.Transport, error) {
			return transport.ListenTCP(addr)
		}
	}
}

// WithSocket configures the server to listen on a Unix domain socket.
func WithSocket(path string) ServeOption {
	return func(cfg *serveConfig) {
		cfg.transportFactory = func() (transport.Transport, error) {
			return transport.ListenSocket(path)
		}
	}
}

// WithPipe configures the server to listen via transport.ListenPipe, which
// uses a Unix domain socket named name (Windows named pipes are not supported).
func WithPipe(name string) ServeOption {
	return func(cfg *serveConfig) {
		cfg.transportFactory = func() (transport.Transport, error) {
			return transport.ListenPipe(name)
		}
	}
}

// WithWebSocket configures the server to listen for WebSocket connections.
func WithWebSocket(addr string) ServeOption {
	return func(cfg *serveConfig) {
		cfg.transportFactory = func() (transport.Transport, error) {
			return transport.ListenWebSocket(addr)
		}
	}
}

// WithNodeIPC configures the server for Node.js IPC (VS Code extension host).
func WithNodeIPC() ServeOption {
	return func(cfg *serveConfig) {
		cfg.transport = transport.NodeIPC()
	}
}

// FromArgs parses os.Args to determine the transport. Supported flags:
//
//	--stdio               (default)
//	--tcp :PORT
//	--socket PATH
//	--pipe NAME
//	--ws :PORT
//	--node-ipc
func FromArgs() ServeOption {
	return func(cfg *serveConfig) {
		args := os.Args[1:]
		for i := 0; i < len(args); i++ {
			arg := args[i]
			nextArg := func() string {
				if i+1 < len(args) {
					i++
					return args[i]
				}
				return ""
			}
			switch {
			case arg == "--stdio":
				cfg.transport = transport.Stdio()
				return
			case arg == "--tcp":
				addr := nextArg()
				if addr == "" {
					fmt.Fprintln(os.Stderr, "relay: --tcp requires an address (e.g., :9257)")
					os.Exit(1)
				}
				cfg.transportFactory = func() (transport.Transport, error) {
					return transport.ListenTCP(addr)
				}
				return
			case strings.HasPrefix(arg, "--tcp="):
				addr := strings.TrimPrefix(arg, "--tcp=")
				cfg.transportFactory = func() (transport.Transport, error) {
					return transport.ListenTCP(addr)
				}
				return
			case arg == "--socket":
				path := nextArg()
				if path == "" {
					fmt.Fprintln(os.Stderr, "relay: --socket requires a path")
					os.Exit(1)
				}
				cfg.transportFactory = func() (transport.Transport, error) {
					return transport.ListenSocket(path)
				}
				return
			case strings.HasPrefix(arg, "--socket="):
				path := strings.TrimPrefix(arg, "--socket=")
				cfg.transportFactory = func() (transport.Transport, error) {
					return transport.ListenSocket(path)
				}
				return
			case arg == "--pipe":
				name := nextArg()
				if name == "" {
					fmt.Fprintln(os.Stderr, "relay: --pipe requires a name")
					os.Exit(1)
				}
				cfg.transportFactory = func() (transport.Transport, error) {
					return transport.ListenPipe(name)
				}
				return
			case strings.HasPrefix(arg, "--pipe="):
				name := strings.TrimPrefix(arg, "--pipe=")
				cfg.transportFactory = func() (transport.Transport, error) {
					return transport.ListenPipe(name)
				}
				return
			case arg == "--ws":
				addr := nextArg()
				if addr == "" {
					fmt.Fprintln(os.Stderr, "relay: --ws requires an address (e.g., :9258)")
					os.Exit(1)
				}
				cfg.transportFactory = func() (transport.Transport, error) {
					return transport.ListenWebSocket(addr)
				}
				return
			case strings.HasPrefix(arg, "--ws="):
				addr := strings.TrimPrefix(arg, "--ws=")
				cfg.transportFactory = func() (transport.Transport, error) {
					return transport.ListenWebSocket(addr)
				}
				return
			case arg == "--node-ipc":
				cfg.transport = transport.NodeIPC()
				return
			}
		}
		// Default: stdio
		cfg.transport = transport.Stdio()
	}
}
