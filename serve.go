package relay

import (
	"context"
	"fmt"

	"github.com/relaylsp/relay/jsonrpc"
	mw "github.com/relaylsp/relay/middleware"
	"github.com/relaylsp/relay/transport"
)

// ExitCode is the process exit status Serve recommends to its caller. It is
// returned rather than passed to os.Exit directly so the core stays
// testable and never forces process termination on its embedder (spec.md
// §7: "the core never propagates errors to the embedder except through the
// serve() return value").
type ExitCode int

const (
	// ExitOk means the session ran to a clean exit preceded by shutdown.
	ExitOk ExitCode = 0
	// ExitError means the session exited without a prior shutdown request,
	// or Serve returned due to a transport/protocol failure.
	ExitError ExitCode = 1
)

// Serve starts the LSP server using the given transport options and blocks
// until the session exits or the connection fails. It returns the process
// exit code the caller should use (e.g. via os.Exit in cmd/relayd) and any
// hard error encountered running the connection.
func Serve(s *Server, opts ...ServeOption) (ExitCode, error) {
	cfg := &serveConfig{}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.transport == nil && cfg.transportFactory != nil {
		var err error
		cfg.transport, err = cfg.transportFactory()
		if err != nil {
			return ExitError, fmt.Errorf("creating transport: %w", err)
		}
	}
	if cfg.transport == nil {
		cfg.transport = transport.Stdio()
	}

	// Apply server-level options
	for _, o := range s.opts {
		o(s)
	}

	codec := jsonrpc.NewCodec(cfg.transport, cfg.transport)

	// Wrap dispatch with middleware chain
	handler := jsonrpc.RequestHandler(s.dispatch)
	notifHandler := s.dispatchNotification
	if len(s.middlewares) > 0 {
		chain := mw.Chain(s.middlewares...)
		wrappedHandler := chain(mw.Handler(handler))
		handler = jsonrpc.RequestHandler(wrappedHandler)

		notifInner := mw.Handler(func(ctx context.Context, method string, params jsonrpc.RawMessage) (interface{}, error) {
			s.dispatchNotification(ctx, method, params)
			return nil, nil
		})
		wrappedNotif := chain(notifInner)
		notifHandler = func(ctx context.Context, method string, params jsonrpc.RawMessage) {
			wrappedNotif(ctx, method, params)
		}
	}

	connOpts := append([]jsonrpc.ConnOption{
		jsonrpc.WithConnLogger(s.logger),
		jsonrpc.WithTransportCloser(cfg.transport),
	}, cfg.connOpts...)
	conn := jsonrpc.NewConn(codec, handler, notifHandler, connOpts...)
	s.conn = conn
	s.client = newClientProxy(conn)

	if s.configHolder != nil {
		defer s.configHolder.close()
	}

	s.logger.Info("relay server starting",
		"name", s.name,
		"version", s.version,
	)

	ctx := context.Background()
	if err := conn.Run(ctx); err != nil {
		return ExitError, fmt.Errorf("server error: %w", err)
	}
	return s.exitCode, nil
}
