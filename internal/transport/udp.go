package transport

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/san-kum/fdmctl/internal/logging"
)

// UDP treats every datagram as stream bytes and replies to the sender of
// the most recent one.
type UDP struct {
	pc  net.PacketConn
	log logging.Logger
	in  *inbox

	mu   sync.Mutex
	peer net.Addr

	done     chan struct{}
	stopOnce sync.Once
}

func ListenUDP(addr string, log logging.Logger) (*UDP, error) {
	if log == nil {
		log = logging.Noop()
	}
	pc, err := net.ListenPacket("udp", addr)
	if err != nil {
		return nil, err
	}
	u := &UDP{pc: pc, log: log, in: newInbox(), done: make(chan struct{})}
	go u.read()
	log.Info(context.Background(), "listening", logging.String("protocol", "udp"), logging.String("addr", pc.LocalAddr().String()))
	return u, nil
}

func (u *UDP) read() {
	buf := make([]byte, 65535)
	for {
		n, from, err := u.pc.ReadFrom(buf)
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				u.log.Warn(context.Background(), "udp read failed", logging.Err(err))
			}
			return
		}
		u.mu.Lock()
		u.peer = from
		u.mu.Unlock()
		chunk := make([]byte, n)
		copy(chunk, buf[:n])
		u.in.put(chunk)
	}
}

func (u *UDP) Receive() []byte { return u.in.take() }

func (u *UDP) WaitUntilReadable(ctx context.Context) { u.in.wait(ctx, u.done) }

func (u *UDP) Reply(text string) { u.write(text) }
func (u *UDP) Send(text string)  { u.write(text) }

func (u *UDP) write(text string) {
	u.mu.Lock()
	peer := u.peer
	u.mu.Unlock()
	if peer == nil {
		return
	}
	if _, err := u.pc.WriteTo([]byte(text), peer); err != nil {
		u.log.Debug(context.Background(), "udp write failed", logging.Err(err))
	}
}

// Close forgets the current peer.
func (u *UDP) Close() {
	u.mu.Lock()
	u.peer = nil
	u.mu.Unlock()
}

func (u *UDP) Connected() bool {
	select {
	case <-u.done:
		return false
	default:
		return true
	}
}

func (u *UDP) Addr() net.Addr { return u.pc.LocalAddr() }

func (u *UDP) Shutdown() error {
	var err error
	u.stopOnce.Do(func() {
		close(u.done)
		err = u.pc.Close()
	})
	return err
}
