package input

import (
	"context"
	"strings"
)

// Command is one parsed protocol line.
type Command struct {
	Keyword  string
	Argument string
	Value    string
}

// ParseCommand splits line on spaces. The first token, lower-cased, is the
// keyword; the next two are the argument and value. Further tokens are
// ignored.
func ParseCommand(line string) Command {
	var tokens []string
	for _, t := range strings.Split(line, " ") {
		if t = strings.TrimSpace(t); t != "" {
			tokens = append(tokens, t)
		}
	}

	var cmd Command
	if len(tokens) > 0 {
		cmd.Keyword = strings.ToLower(tokens[0])
	}
	if len(tokens) > 1 {
		cmd.Argument = tokens[1]
	}
	if len(tokens) > 2 {
		cmd.Value = tokens[2]
	}
	return cmd
}

// CommandError is a failed command. Its message is sent to the client and
// the rest of the poll is abandoned.
type CommandError struct {
	Keyword string
	Msg     string
}

func (e *CommandError) Error() string {
	return e.Keyword + ": " + e.Msg
}

func fail(keyword, msg string) error {
	return &CommandError{Keyword: keyword, Msg: msg}
}

type handler func(s *Session, ctx context.Context, cmd Command) error

var handlers = map[string]handler{
	"get":      (*Session).handleGet,
	"set":      (*Session).handleSet,
	"hold":     (*Session).handleHold,
	"resume":   (*Session).handleResume,
	"iterate":  (*Session).handleIterate,
	"quit":     (*Session).handleQuit,
	"info":     (*Session).handleInfo,
	"help":     (*Session).handleHelp,
	"reset_ic": (*Session).handleResetIC,
}

// Keywords lists the commands the protocol understands.
func Keywords() []string {
	return []string{"get", "set", "hold", "resume", "iterate", "quit", "info", "help", "reset_ic"}
}
