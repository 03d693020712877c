package transport

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/san-kum/fdmctl/internal/logging"
)

// TCP accepts one client at a time. Further clients wait in the listen
// backlog until the current one disconnects or is closed.
type TCP struct {
	ln  net.Listener
	log logging.Logger
	in  *inbox

	mu   sync.Mutex
	conn net.Conn
	free chan struct{}

	done     chan struct{}
	stopOnce sync.Once
}

func ListenTCP(addr string, log logging.Logger) (*TCP, error) {
	if log == nil {
		log = logging.Noop()
	}
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	t := &TCP{
		ln:   ln,
		log:  log,
		in:   newInbox(),
		free: make(chan struct{}, 1),
		done: make(chan struct{}),
	}
	t.free <- struct{}{}
	go t.accept()
	log.Info(context.Background(), "listening", logging.String("protocol", "tcp"), logging.String("addr", ln.Addr().String()))
	return t, nil
}

func (t *TCP) accept() {
	for {
		select {
		case <-t.free:
		case <-t.done:
			return
		}
		conn, err := t.ln.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				t.log.Warn(context.Background(), "accept failed", logging.Err(err))
			}
			return
		}
		t.mu.Lock()
		t.conn = conn
		t.mu.Unlock()
		t.log.Info(context.Background(), "client connected", logging.String("remote", conn.RemoteAddr().String()))
		go t.read(conn)
	}
}

func (t *TCP) read(conn net.Conn) {
	buf := make([]byte, 4096)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			t.in.put(chunk)
		}
		if err != nil {
			break
		}
	}
	t.mu.Lock()
	if t.conn == conn {
		t.conn = nil
	}
	t.mu.Unlock()
	_ = conn.Close()
	t.log.Info(context.Background(), "client disconnected", logging.String("remote", conn.RemoteAddr().String()))
	t.free <- struct{}{}
}

func (t *TCP) Receive() []byte { return t.in.take() }

func (t *TCP) WaitUntilReadable(ctx context.Context) { t.in.wait(ctx, t.done) }

func (t *TCP) Reply(text string) { t.write(text) }

func (t *TCP) Send(text string) { t.write(text) }

func (t *TCP) write(text string) {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return
	}
	if _, err := conn.Write([]byte(text)); err != nil {
		t.log.Debug(context.Background(), "write failed", logging.Err(err))
	}
}

// Close drops the current client. The endpoint keeps listening.
func (t *TCP) Close() {
	t.mu.Lock()
	conn := t.conn
	t.conn = nil
	t.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// Connected reports whether the endpoint is still listening.
func (t *TCP) Connected() bool {
	select {
	case <-t.done:
		return false
	default:
		return true
	}
}

func (t *TCP) Addr() net.Addr { return t.ln.Addr() }

// Shutdown stops listening and drops the current client.
func (t *TCP) Shutdown() error {
	var err error
	t.stopOnce.Do(func() {
		close(t.done)
		err = t.ln.Close()
		t.Close()
	})
	return err
}
