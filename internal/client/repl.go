package client

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ergochat/readline"
	"golang.org/x/term"
)

const historySize = 500

// LineSource yields command lines typed by the operator.
type LineSource interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

type scannerSource struct {
	sc  *bufio.Scanner
	out io.Writer
}

func (s *scannerSource) ReadLine(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

func (s *scannerSource) Close() error { return nil }

type readlineSource struct {
	rl *readline.Instance
}

func (s *readlineSource) ReadLine(prompt string) (string, error) {
	s.rl.SetPrompt(prompt)
	line, err := s.rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) {
			return "", io.EOF
		}
		return "", err
	}
	if trimmed := strings.TrimSpace(line); trimmed != "" {
		s.rl.SaveToHistory(trimmed)
	}
	return line, nil
}

func (s *readlineSource) Close() error { return s.rl.Close() }

// NewLineSource uses readline on a terminal and a plain scanner otherwise.
func NewLineSource(in *os.File, out io.Writer, historyFile string) LineSource {
	if !term.IsTerminal(int(in.Fd())) {
		return NewScannerSource(in, out)
	}
	rl, err := readline.NewFromConfig(&readline.Config{
		HistoryFile:            historyFile,
		HistoryLimit:           historySize,
		DisableAutoSaveHistory: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: readline unavailable (%v), using basic input\n", err)
		return NewScannerSource(in, out)
	}
	return &readlineSource{rl: rl}
}

func NewScannerSource(in io.Reader, out io.Writer) LineSource {
	return &scannerSource{sc: bufio.NewScanner(in), out: out}
}

// REPL forwards each line to the server and prints the reply. It ends on
// EOF or after a quit command.
func REPL(c *Client, src LineSource, out io.Writer, prompt string) error {
	for {
		line, err := src.ReadLine(prompt)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		reply, err := c.Exchange(line)
		if reply != "" {
			fmt.Fprint(out, strings.ReplaceAll(reply, "\r\n", "\n"))
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				fmt.Fprintln(out, "connection closed")
				return nil
			}
			return err
		}
		if strings.EqualFold(strings.Fields(line)[0], "quit") {
			return nil
		}
	}
}
