package client

import (
	"context"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/san-kum/fdmctl/internal/fdm"
	"github.com/san-kum/fdmctl/internal/ground"
	"github.com/san-kum/fdmctl/internal/input"
	"github.com/san-kum/fdmctl/internal/integrators"
	"github.com/san-kum/fdmctl/internal/logging"
	"github.com/san-kum/fdmctl/internal/transport"
)

func startServer(t *testing.T) string {
	t.Helper()
	integ, err := integrators.New("rk4")
	if err != nil {
		t.Fatal(err)
	}
	exec, err := fdm.New(fdm.Config{
		Dt:         1.0 / 120,
		Aircraft:   "c172",
		Integrator: integ,
		Ground:     ground.DefaultParams(),
	}, logging.Noop())
	if err != nil {
		t.Fatal(err)
	}
	if err := exec.RunIC(); err != nil {
		t.Fatal(err)
	}

	ep, err := transport.ListenTCP("127.0.0.1:0", logging.Noop())
	if err != nil {
		t.Fatal(err)
	}
	sess, err := input.NewSession(ep, input.Deps{
		Exec:       exec,
		Props:      exec.PropertyManager(),
		Propagator: exec.Propagator(),
		Ground:     exec.GroundReactions(),
	}, input.Options{})
	if err != nil {
		t.Fatal(err)
	}
	exec.AddInput(sess)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		exec.Loop(ctx, fdm.RealTime)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
		ep.Shutdown()
	})
	return ep.Addr().String()
}

func TestEndToEnd(t *testing.T) {
	addr := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c, err := Dial(ctx, addr, 100*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()

	dt, err := c.Get("simulation/dt")
	if err != nil {
		t.Fatalf("get dt: %v", err)
	}
	if math.Abs(dt-1.0/120) > 1e-6 {
		t.Errorf("unexpected dt %v", dt)
	}

	if reply, err := c.Exchange("hold"); err != nil || reply != "Holding\r\n" {
		t.Fatalf("hold: %q %v", reply, err)
	}
	held, err := c.Get("simulation/holding")
	if err != nil || held != 1 {
		t.Errorf("expected holding, got %v %v", held, err)
	}

	before, _ := c.Get("simulation/sim-time-sec")
	time.Sleep(50 * time.Millisecond)
	after, _ := c.Get("simulation/sim-time-sec")
	if before != after {
		t.Errorf("time advanced while held: %v -> %v", before, after)
	}

	if err := c.Set("ic/h-agl-ft", 500); err != nil {
		t.Fatalf("set: %v", err)
	}
	if reply, err := c.Exchange("reset_ic complete"); err != nil || reply != "Initial conditions reset (complete)\r\n" {
		t.Fatalf("reset: %q %v", reply, err)
	}
	agl, err := c.Get("position/h-agl-ft")
	if err != nil || math.Abs(agl-500) > 1 {
		t.Errorf("expected h-agl near 500, got %v %v", agl, err)
	}

	info, err := c.Exchange("info")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(info, "fdmctl version: "+fdm.Version+"\r\n") {
		t.Errorf("unexpected info %q", info)
	}

	unknown, err := c.Exchange("bogus")
	if err != nil || unknown != "Unknown command: bogus\r\n" {
		t.Errorf("unexpected reply %q %v", unknown, err)
	}
}
