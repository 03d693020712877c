// Package client talks to a running fdmctl server over its line protocol.
package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultIdle is how long Exchange waits for more reply bytes. Replies have
// no terminator of their own, so silence ends a reply.
const DefaultIdle = 150 * time.Millisecond

const setOK = "set successful"

var ErrNoValue = errors.New("client: reply carries no value")

type Client struct {
	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
	idle time.Duration
}

func Dial(ctx context.Context, addr string, idle time.Duration) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	return New(conn, idle), nil
}

func New(conn net.Conn, idle time.Duration) *Client {
	if idle <= 0 {
		idle = DefaultIdle
	}
	return &Client{conn: conn, r: bufio.NewReader(conn), idle: idle}
}

func (c *Client) Close() error { return c.conn.Close() }

// Exchange sends one command line and collects whatever the server
// writes back until the connection goes quiet.
func (c *Client) Exchange(command string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.conn.Write([]byte(strings.TrimRight(command, "\r\n") + "\r\n")); err != nil {
		return "", err
	}

	var sb strings.Builder
	buf := make([]byte, 4096)
	for {
		if err := c.conn.SetReadDeadline(time.Now().Add(c.idle)); err != nil {
			return sb.String(), err
		}
		n, err := c.r.Read(buf)
		sb.Write(buf[:n])
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return sb.String(), nil
			}
			return sb.String(), err
		}
	}
}

// Get reads one property and parses the "name = value" reply.
func (c *Client) Get(path string) (float64, error) {
	reply, err := c.Exchange("get " + path)
	if err != nil {
		return 0, err
	}
	return ParseValue(reply)
}

func (c *Client) Set(path string, v float64) error {
	reply, err := c.Exchange(fmt.Sprintf("set %s %g", path, v))
	if err != nil {
		return err
	}
	if reply = strings.TrimSpace(reply); reply != setOK {
		return fmt.Errorf("set %s: %s", path, reply)
	}
	return nil
}

// ParseValue extracts the number from a get reply.
func ParseValue(reply string) (float64, error) {
	line := strings.TrimSpace(reply)
	i := strings.LastIndex(line, " = ")
	if i < 0 {
		if line == "" {
			return 0, ErrNoValue
		}
		return 0, fmt.Errorf("%w: %s", ErrNoValue, line)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(line[i+3:]), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrNoValue, line)
	}
	return v, nil
}
