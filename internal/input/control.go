package input

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const helpText = " fdmctl server commands:\r\n\r\n" +
	"   get {property name}\r\n" +
	"   set {property name} {value}\r\n" +
	"   hold\r\n" +
	"   resume\r\n" +
	"   iterate {value}\r\n" +
	"   help\r\n" +
	"   quit\r\n" +
	"   info\r\n" +
	"   reset_ic {complete|state}\r\n\r\n"

func (s *Session) handleHold(context.Context, Command) error {
	s.deps.Exec.Hold()
	s.reply("Holding\r\n")
	return nil
}

func (s *Session) handleResume(context.Context, Command) error {
	s.deps.Exec.Resume()
	s.reply("Resuming\r\n")
	return nil
}

// handleIterate runs exactly n further steps and holds again. Only a plain
// decimal integer is accepted.
func (s *Session) handleIterate(_ context.Context, cmd Command) error {
	if cmd.Argument == "" {
		return fail(cmd.Keyword, "No argument supplied for number of iterations.")
	}
	n, err := strconv.Atoi(cmd.Argument)
	if err != nil || n <= 0 {
		return fail(cmd.Keyword, "Required argument must be a positive Integer.")
	}
	s.deps.Exec.EnableIncrementThenHold(n)
	s.deps.Exec.Resume()
	s.reply("Iterations performed\r\n")
	return nil
}

func (s *Session) handleQuit(ctx context.Context, _ Command) error {
	s.t.Send("Closing connection\r\n")
	s.t.Close()
	s.log.Info(ctx, "client closed connection")
	return nil
}

func (s *Session) handleInfo(context.Context, Command) error {
	ex := s.deps.Exec
	var b strings.Builder
	fmt.Fprintf(&b, "fdmctl version: %s\r\n", ex.Version())
	fmt.Fprintf(&b, "Config File version: %s\r\n", ex.ConfigVersion())
	fmt.Fprintf(&b, "Aircraft simulated: %s\r\n", ex.AircraftName())
	fmt.Fprintf(&b, "Simulation time: %8.3g\r\n", ex.SimTime())
	s.reply(b.String())
	return nil
}

func (s *Session) handleHelp(context.Context, Command) error {
	s.reply(helpText)
	return nil
}
