package input

import (
	"context"

	"github.com/san-kum/fdmctl/internal/frames"
	"github.com/san-kum/fdmctl/internal/ic"
	"github.com/san-kum/fdmctl/internal/props"
)

// Transport is the byte stream a session reads commands from and writes
// replies to.
type Transport interface {
	// Receive returns whatever bytes are available without blocking.
	Receive() []byte
	// WaitUntilReadable blocks until data is available, the transport is
	// closed or ctx is done.
	WaitUntilReadable(ctx context.Context)
	Reply(text string)
	Send(text string)
	// Close drops the current client connection.
	Close()
	Connected() bool
}

// Executive is the part of the simulation executive commands act on.
type Executive interface {
	Hold()
	Resume()
	Holding() bool
	EnableIncrementThenHold(steps int)
	SimTime() float64
	Version() string
	ConfigVersion() string
	AircraftName() string
	QueryPropertyCatalog(check, eol string) string

	IC() *ic.InitialCondition
	SuspendIntegration()
	ResumeIntegration()
	// Step runs every model once at the current time step.
	Step() error
}

// PropertyStore resolves property paths.
type PropertyStore interface {
	Lookup(path string) props.Lookup
}

// Propagator is the kinematic state a reset writes into.
type Propagator interface {
	SetInitialState(c *ic.InitialCondition)
	InitializeDerivatives()
	Ti2l() frames.InertialToLocal
	SetInertialOrientation(q frames.InertialToBody)
	SetBodyVelocity(v frames.Vec3)
}

// GroundReactions is reinitialized on a complete reset.
type GroundReactions interface {
	InitModel()
}
