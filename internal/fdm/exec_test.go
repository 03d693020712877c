package fdm_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/fdmctl/internal/fdm"
	"github.com/san-kum/fdmctl/internal/ground"
	"github.com/san-kum/fdmctl/internal/ic"
	"github.com/san-kum/fdmctl/internal/integrators"
	"github.com/san-kum/fdmctl/internal/metrics"
)

type stepCounter struct{ steps int }

func (s *stepCounter) OnStep(float64) { s.steps++ }

type recordingInput struct {
	calls   int
	holding []bool
}

func (r *recordingInput) Read(_ context.Context, holding bool) {
	r.calls++
	r.holding = append(r.holding, holding)
}

func newExec() *fdm.Executive {
	e, err := fdm.New(fdm.Config{
		Dt:            0.01,
		Aircraft:      "c172",
		ConfigVersion: "2.0",
		Integrator:    integrators.NewAdamsBashforth2(),
		Ground:        ground.DefaultParams(),
	}, nil)
	Expect(err).NotTo(HaveOccurred())
	e.IC().Apply(ic.Preset{LatitudeDeg: 47, LongitudeDeg: 8, AltitudeAGLFt: 500})
	Expect(e.RunIC()).To(Succeed())
	return e
}

var _ = Describe("Executive", func() {
	var (
		e        *fdm.Executive
		observer *stepCounter
	)

	BeforeEach(func() {
		e = newExec()
		observer = &stepCounter{}
		e.AddObserver(observer)
	})

	It("rejects a non-positive time step", func() {
		_, err := fdm.New(fdm.Config{Dt: 0, Integrator: integrators.NewEuler()}, nil)
		Expect(err).To(MatchError(fdm.ErrInvalidStep))
	})

	It("seeds the live state from the initial condition", func() {
		Expect(e.Propagator().LatitudeDeg()).To(BeNumerically("~", 47, 1e-9))
		Expect(e.Propagator().AltitudeAGLFt()).To(BeNumerically("~", 500, 1e-9))
		Expect(e.SimTime()).To(BeZero())
	})

	Describe("hold and resume", func() {
		It("is idempotent", func() {
			e.Hold()
			e.Hold()
			Expect(e.Holding()).To(BeTrue())
			e.Resume()
			e.Resume()
			Expect(e.Holding()).To(BeFalse())
		})

		It("does not step while held", func() {
			e.Hold()
			for i := 0; i < 5; i++ {
				Expect(e.Run()).To(Succeed())
			}
			Expect(observer.steps).To(BeZero())
			Expect(e.SimTime()).To(BeZero())
		})
	})

	Describe("increment then hold", func() {
		It("runs exactly N steps and holds again", func() {
			e.Hold()
			e.EnableIncrementThenHold(3)
			e.Resume()
			for i := 0; i < 10; i++ {
				Expect(e.Run()).To(Succeed())
			}
			Expect(observer.steps).To(Equal(3))
			Expect(e.Holding()).To(BeTrue())
			Expect(e.SimTime()).To(BeNumerically("~", 0.03, 1e-12))
		})
	})

	Describe("suspended integration", func() {
		It("steps with a zero delta and restores the old one", func() {
			alt := e.Propagator().AltitudeASLFt()
			e.SuspendIntegration()
			Expect(e.DeltaT()).To(BeZero())
			Expect(e.Step()).To(Succeed())
			Expect(e.Propagator().AltitudeASLFt()).To(Equal(alt))
			e.ResumeIntegration()
			Expect(e.DeltaT()).To(Equal(0.01))
		})

		It("steps even while held", func() {
			e.Hold()
			e.Propagator().SetTerrainElevationFt(600)
			Expect(e.Step()).To(Succeed())
			Expect(e.GroundReactions().WOW()).To(BeTrue())
		})
	})

	Describe("Tick", func() {
		It("services inputs before running the models", func() {
			in := &recordingInput{}
			e.AddInput(in)
			e.Hold()
			Expect(e.Tick(context.Background())).To(Succeed())
			e.Resume()
			Expect(e.Tick(context.Background())).To(Succeed())
			Expect(in.holding).To(Equal([]bool{true, false}))
			Expect(observer.steps).To(Equal(1))
		})
	})

	Describe("Loop", func() {
		It("stops when the context is cancelled", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
			defer cancel()
			Expect(e.Loop(ctx, fdm.Accelerated)).To(Succeed())
			Expect(observer.steps).To(BeNumerically(">", 0))
		})
	})

	Describe("properties", func() {
		It("publishes simulation state", func() {
			Expect(e.Run()).To(Succeed())
			v, ok := e.PropertyManager().Float("simulation/sim-time-sec")
			Expect(ok).To(BeTrue())
			Expect(v).To(BeNumerically("~", 0.01, 1e-12))
		})

		It("lists catalog matches one per line", func() {
			out := e.QueryPropertyCatalog("ic/lat", "\r\n")
			Expect(out).To(Equal("ic/lat-gc-deg\r\n"))
			Expect(e.QueryPropertyCatalog("no-such", "\r\n")).To(Equal("No matches found\r\n"))
		})
	})

	Describe("metrics", func() {
		It("counts steps and tracks holding", func() {
			c, err := metrics.New(prometheus.NewRegistry())
			Expect(err).NotTo(HaveOccurred())
			e.SetMetrics(c)
			Expect(e.Run()).To(Succeed())
			Expect(e.Run()).To(Succeed())
			e.Hold()
			Expect(testutil.ToFloat64(c.Steps)).To(Equal(2.0))
			Expect(testutil.ToFloat64(c.Holding)).To(Equal(1.0))
		})
	})
})
