// Package transport provides the socket endpoints protocol sessions read
// from. Reads happen on background goroutines; the session side only ever
// drains what has already arrived.
package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/san-kum/fdmctl/internal/logging"
)

var ErrUnsupportedProtocol = errors.New("transport: unsupported protocol")

// Endpoint is a listening socket that serves one client at a time.
type Endpoint interface {
	Receive() []byte
	WaitUntilReadable(ctx context.Context)
	Reply(text string)
	Send(text string)
	Close()
	Connected() bool
	Addr() net.Addr
	Shutdown() error
}

// Listen opens an endpoint for protocol ("tcp" or "udp") on addr.
func Listen(protocol, addr string, log logging.Logger) (Endpoint, error) {
	switch strings.ToLower(protocol) {
	case "tcp", "":
		return ListenTCP(addr, log)
	case "udp":
		return ListenUDP(addr, log)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, protocol)
	}
}

// inbox collects chunks from a reader goroutine.
type inbox struct {
	mu      sync.Mutex
	pending []byte
	ready   chan struct{}
}

func newInbox() *inbox {
	return &inbox{ready: make(chan struct{}, 1)}
}

func (in *inbox) put(b []byte) {
	in.mu.Lock()
	in.pending = append(in.pending, b...)
	in.mu.Unlock()
	select {
	case in.ready <- struct{}{}:
	default:
	}
}

func (in *inbox) take() []byte {
	in.mu.Lock()
	defer in.mu.Unlock()
	b := in.pending
	in.pending = nil
	return b
}

func (in *inbox) has() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.pending) > 0
}

func (in *inbox) wait(ctx context.Context, done <-chan struct{}) {
	for !in.has() {
		select {
		case <-in.ready:
		case <-ctx.Done():
			return
		case <-done:
			return
		}
	}
}
