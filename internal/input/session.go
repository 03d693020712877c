package input

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/san-kum/fdmctl/internal/logging"
	"github.com/san-kum/fdmctl/internal/metrics"
)

// Deps are the collaborators a session drives. All are required.
type Deps struct {
	Exec       Executive
	Props      PropertyStore
	Propagator Propagator
	Ground     GroundReactions
}

type Options struct {
	// Blocking makes every poll wait for data before returning.
	Blocking bool
	// RetainAfterAbort keeps complete lines that follow a failed command
	// instead of dropping them with it.
	RetainAfterAbort bool

	Logger  logging.Logger
	Metrics *metrics.Collector
	Tracer  trace.Tracer
}

// Session is one protocol endpoint. It must only be used from the goroutine
// that steps the simulation.
type Session struct {
	t    Transport
	deps Deps
	opts Options

	id  string
	log logging.Logger
	buf string
}

func NewSession(t Transport, deps Deps, opts Options) (*Session, error) {
	if t == nil {
		return nil, errors.New("input: nil transport")
	}
	if deps.Exec == nil || deps.Props == nil || deps.Propagator == nil || deps.Ground == nil {
		return nil, errors.New("input: incomplete dependencies")
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("")
	}
	log, id := logging.WithSession(opts.Logger)
	s := &Session{t: t, deps: deps, opts: opts, id: id, log: log}
	s.log.Info(context.Background(), "session opened",
		logging.Bool("blocking", opts.Blocking),
		logging.Bool("retain_after_abort", opts.RetainAfterAbort),
	)
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Pending returns the buffered text not yet dispatched.
func (s *Session) Pending() string { return s.buf }

// Read polls the transport once and dispatches every complete line. It is a
// no-op when the transport is disconnected or nothing is available.
func (s *Session) Read(ctx context.Context, _ bool) {
	if !s.t.Connected() {
		return
	}
	pending := hasCompleteLine(s.buf)
	if s.opts.Blocking && !pending {
		s.t.WaitUntilReadable(ctx)
	}

	data := s.t.Receive()
	if len(data) == 0 && !pending {
		return
	}
	s.opts.Metrics.ObserveBytes(len(data))
	s.buf += string(data)

	s.buf = frame(s.buf, s.opts.RetainAfterAbort, func(line string) bool {
		return s.dispatch(ctx, line)
	})
}

// Close drops the client connection.
func (s *Session) Close() {
	s.t.Close()
	s.log.Info(context.Background(), "session closed")
}

// dispatch runs one line and reports whether the poll should go on.
func (s *Session) dispatch(ctx context.Context, line string) bool {
	cmd := ParseCommand(line)

	h, ok := handlers[cmd.Keyword]
	if !ok {
		s.opts.Metrics.ObserveCommand("unknown", false)
		s.log.Debug(ctx, "unknown command", logging.String("keyword", cmd.Keyword))
		s.reply("Unknown command: " + cmd.Keyword + "\r\n")
		return true
	}

	ctx, span := s.opts.Tracer.Start(ctx, "command "+cmd.Keyword, trace.WithAttributes(
		attribute.String("session.id", s.id),
		attribute.String("command.argument", cmd.Argument),
	))
	defer span.End()

	err := h(s, ctx, cmd)
	s.opts.Metrics.ObserveCommand(cmd.Keyword, err != nil)
	if err == nil {
		s.log.Debug(ctx, "command handled",
			logging.String("keyword", cmd.Keyword),
			logging.String("argument", cmd.Argument),
		)
		return true
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())

	var ce *CommandError
	if errors.As(err, &ce) {
		s.log.Debug(ctx, "command failed", logging.String("keyword", cmd.Keyword), logging.Err(err))
		s.reply(ce.Msg + "\r\n")
	} else {
		s.log.Error(ctx, "command failed", logging.String("keyword", cmd.Keyword), logging.Err(err))
		s.reply(err.Error() + "\r\n")
	}
	return false
}

func (s *Session) reply(text string) {
	s.t.Reply(text)
}
