// Package server is the thin stream-socket front door standing in for the
// out-of-scope worker-supervisor's dispatch side. It owns one
// internal/txn.DB per accepted connection and runs each request's QL
// operations through it, enforcing the watchdog budget and a per-connection
// rate limit, but leaves the request payload's shape and the scripting
// sandbox to whatever Handler a real deployment plugs in.
package server

import (
	"context"
	"errors"
	"io"
	"net"
	"os"
	"os/signal"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/akshell/patsak/internal/config"
	"github.com/akshell/patsak/internal/txn"
)

// Server accepts connections on one listen address, opening an independent
// internal/txn.DB per connection — each connection owns one independent
// backend connection, the same isolation a pool of separate worker
// processes would give, just within goroutines of a single process
// instead of separate OS processes.
type Server struct {
	cfg     *config.Config
	handler Handler
	log     *zap.SugaredLogger
}

// New builds a Server that dials cfg.DB.DSN() fresh for every accepted
// connection and dispatches opcodes to handler.
func New(cfg *config.Config, handler Handler, log *zap.SugaredLogger) *Server {
	return &Server{cfg: cfg, handler: handler, log: log}
}

// ListenAndServe opens the listener and serves connections until ctx is
// cancelled or an interrupt signal arrives.
func (s *Server) ListenAndServe(ctx context.Context) error {
	l, err := net.Listen("tcp", s.cfg.HostPort)
	if err != nil {
		return err
	}
	defer l.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	go func() {
		<-ctx.Done()
		l.Close()
	}()

	s.log.Infow("patsakd listening", "addr", s.cfg.HostPort, "schema", s.cfg.DB.Schema)

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Errorw("accept failed", "error", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()

	db, err := txn.Connect(ctx, s.cfg.DB.DSN(), s.cfg.DB.Schema, s.log)
	if err != nil {
		s.log.Errorw("backend connect failed", "remote", remote, "error", err)
		_ = writeFrame(conn, statusFailure, []byte(err.Error()))
		return
	}
	defer db.Close(ctx)

	limiter := rate.NewLimiter(rate.Limit(s.cfg.RateLimiter.Rate), s.cfg.RateLimiter.Bucket)

	for {
		op, payload, err := readFrame(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				s.log.Warnw("frame read failed", "remote", remote, "error", err)
			}
			return
		}

		if !limiter.Allow() {
			_ = writeFrame(conn, statusFailure, []byte("rate limit exceeded"))
			return
		}

		resp, err := s.dispatch(ctx, db, op, payload)
		if err != nil {
			_ = writeFrame(conn, statusFailure, []byte(err.Error()))
			continue
		}
		if err := writeFrame(conn, statusSuccess, resp); err != nil {
			s.log.Warnw("frame write failed", "remote", remote, "error", err)
			return
		}
	}
}

// dispatch runs one request inside its own work unit, bounding it with the
// configured watchdog budget: the request's goroutine is given a context
// that errgroup cancels the instant the budget expires or the request
// returns, whichever comes first.
func (s *Server) dispatch(ctx context.Context, db *txn.DB, op opcode, payload []byte) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.WatchdogBudget)
	defer cancel()

	wu, err := db.Begin(reqCtx)
	if err != nil {
		return nil, err
	}

	g, gctx := errgroup.WithContext(reqCtx)
	var resp []byte
	g.Go(func() error {
		cat, err := wu.Catalog(gctx)
		if err != nil {
			return err
		}
		switch op {
		case opHandle:
			resp, err = s.handler.Handle(gctx, cat, payload)
		case opEvaluate:
			var text string
			text, err = s.handler.Evaluate(gctx, cat, string(payload))
			resp = []byte(text)
		default:
			err = unknownOpcodeError(op)
		}
		return err
	})

	if err := g.Wait(); err != nil {
		_ = wu.Rollback(context.Background())
		return nil, err
	}
	if err := wu.Commit(reqCtx); err != nil {
		return nil, err
	}
	return resp, nil
}

func unknownOpcodeError(op opcode) error {
	return &unknownOpcode{op: op}
}

type unknownOpcode struct{ op opcode }

func (e *unknownOpcode) Error() string {
	return "unknown opcode: " + string(rune(e.op))
}
