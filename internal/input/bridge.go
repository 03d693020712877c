package input

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/fdmctl/internal/props"
)

const (
	msgNoProperty   = "No property argument supplied."
	msgBadQuery     = "Badly formed property query"
	msgUnknown      = "Unknown property"
	msgNotLeaf      = "Not a leaf property"
	msgReadOnly     = "Property is read-only"
	msgHoldToSearch = "Must be in HOLD to search properties"
)

// resolve looks a property up and turns every failure into a CommandError.
func (s *Session) resolve(keyword, path string) (*props.Node, error) {
	if path == "" {
		return nil, fail(keyword, msgNoProperty)
	}
	res := s.deps.Props.Lookup(path)
	switch res.Status {
	case props.Found:
		return res.Node, nil
	case props.Malformed:
		return nil, fail(keyword, msgBadQuery)
	default:
		return nil, fail(keyword, msgUnknown)
	}
}

func (s *Session) handleGet(_ context.Context, cmd Command) error {
	node, err := s.resolve(cmd.Keyword, cmd.Argument)
	if err != nil {
		return err
	}
	if !node.HasValue() {
		if !s.deps.Exec.Holding() {
			s.reply(msgHoldToSearch + "\r\n")
			return nil
		}
		s.reply(s.deps.Exec.QueryPropertyCatalog(cmd.Argument, "\r\n"))
		return nil
	}
	s.reply(FormatValue(cmd.Argument, node.Float()))
	return nil
}

func (s *Session) handleSet(_ context.Context, cmd Command) error {
	node, err := s.resolve(cmd.Keyword, cmd.Argument)
	if err != nil {
		return err
	}
	if !node.HasValue() {
		return fail(cmd.Keyword, msgNotLeaf)
	}
	v, err := ParseNumber(cmd.Value)
	if err != nil {
		return fail(cmd.Keyword, err.Error())
	}
	if err := node.SetFloat(v); err != nil {
		if errors.Is(err, props.ErrReadOnly) {
			return fail(cmd.Keyword, msgReadOnly)
		}
		return err
	}
	s.reply("set successful\r\n")
	return nil
}

// FormatValue renders a get reply: the path, then the value right-aligned
// in twelve columns with six significant digits.
func FormatValue(path string, v float64) string {
	return fmt.Sprintf("%s = %12.6g\r\n", path, v)
}

// NumberError is a literal that does not parse as a number.
type NumberError struct {
	Msg string
}

func (e *NumberError) Error() string { return e.Msg }

// ParseNumber reads a floating point literal independent of the process
// locale: the decimal separator is always '.'.
func ParseNumber(in string) (float64, error) {
	v := strings.TrimSpace(in)
	if v == "" {
		return 0, &NumberError{Msg: "Expecting a numeric attribute value, but only got spaces"}
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && math.IsInf(f, 0) {
			return 0, &NumberError{Msg: "This number is too large: " + in}
		}
		if !errors.Is(err, strconv.ErrRange) {
			return 0, &NumberError{Msg: "Expecting a numeric attribute value, but got: " + in}
		}
	}
	return f, nil
}
