package input_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/san-kum/fdmctl/internal/frames"
	"github.com/san-kum/fdmctl/internal/input"
	"github.com/san-kum/fdmctl/internal/metrics"
	"github.com/san-kum/fdmctl/internal/props"
)

var _ = Describe("Session", func() {
	var (
		ctx   context.Context
		log   *calls
		pm    *props.Manager
		exec  *fakeExec
		prop  *fakePropagator
		gr    *fakeGround
		tr    *fakeTransport
		opts  input.Options
		sess  *input.Session
		build func()
		send  func(chunks ...string) string
	)

	BeforeEach(func() {
		ctx = context.Background()
		log = &calls{}
		pm = props.New()
		Expect(pm.Set("position/h-sl-ft", 1500)).To(Succeed())
		Expect(pm.Set("position/lat-gc-deg", 47.5)).To(Succeed())
		Expect(pm.Set("velocities/u-fps", 100)).To(Succeed())
		exec = newExec(log, pm)
		prop = &fakePropagator{log: log}
		gr = &fakeGround{log: log}
		tr = newTransport()
		opts = input.Options{}

		build = func() {
			var err error
			sess, err = input.NewSession(tr, input.Deps{
				Exec:       exec,
				Props:      pm,
				Propagator: prop,
				Ground:     gr,
			}, opts)
			Expect(err).NotTo(HaveOccurred())
		}
		send = func(chunks ...string) string {
			tr.replies = nil
			for _, c := range chunks {
				tr.push(c)
				sess.Read(ctx, exec.Holding())
			}
			return tr.output()
		}
	})

	JustBeforeEach(func() {
		build()
	})

	It("requires every collaborator", func() {
		_, err := input.NewSession(tr, input.Deps{Exec: exec}, input.Options{})
		Expect(err).To(HaveOccurred())
		_, err = input.NewSession(nil, input.Deps{}, input.Options{})
		Expect(err).To(HaveOccurred())
	})

	Describe("framing", func() {
		const stream = "hold\r\nresume\nhelp\r\n\r\nhold\rresume\r\n"

		It("dispatches the same commands however the stream is split", func() {
			whole := send(stream)
			Expect(whole).To(HavePrefix("Holding\r\nResuming\r\n fdmctl server commands"))

			for i := 0; i <= len(stream); i++ {
				for j := i; j <= len(stream); j += 3 {
					Expect(send(stream[:i], stream[i:j], stream[j:])).To(Equal(whole),
						"split at %d and %d", i, j)
				}
			}
		})

		It("keeps a partial line until its terminator arrives", func() {
			Expect(send("ho")).To(BeEmpty())
			Expect(sess.Pending()).To(Equal("ho"))
			Expect(send("ld")).To(BeEmpty())
			Expect(send("\r\n")).To(Equal("Holding\r\n"))
			Expect(sess.Pending()).To(BeEmpty())
		})

		It("does nothing when no bytes arrive", func() {
			sess.Read(ctx, false)
			Expect(tr.replies).To(BeEmpty())
		})

		It("does nothing while disconnected", func() {
			tr.connected = false
			tr.push("hold\r\n")
			sess.Read(ctx, false)
			Expect(tr.replies).To(BeEmpty())
			Expect(tr.chunks).To(HaveLen(1))
			Expect(exec.Holding()).To(BeFalse())
		})

		Context("when a command aborts", func() {
			It("drops complete lines behind it", func() {
				Expect(send("get nosuch\r\nhold\r\nhe")).To(Equal("Unknown property\r\n"))
				Expect(exec.Holding()).To(BeFalse())
				Expect(sess.Pending()).To(Equal("he"))
				Expect(send("lp\r\n")).To(HavePrefix(" fdmctl server commands"))
			})
		})

		Context("with retain after abort", func() {
			BeforeEach(func() {
				opts.RetainAfterAbort = true
			})

			It("runs the remaining lines on the next poll", func() {
				Expect(send("get nosuch\r\nhold\r\n")).To(Equal("Unknown property\r\n"))
				Expect(exec.Holding()).To(BeFalse())

				tr.replies = nil
				sess.Read(ctx, false)
				Expect(tr.output()).To(Equal("Holding\r\n"))
				Expect(exec.Holding()).To(BeTrue())
			})
		})

		Context("in blocking mode", func() {
			BeforeEach(func() {
				opts.Blocking = true
			})

			It("waits for data on every poll", func() {
				send("hold\r\n", "resume\r\n")
				Expect(tr.waits).To(Equal(2))
			})
		})
	})

	Describe("dispatch", func() {
		It("replies to an unknown keyword", func() {
			Expect(send("foobar\r\n")).To(Equal("Unknown command: foobar\r\n"))
		})

		It("matches keywords case-insensitively", func() {
			Expect(send("HOLD\r\n")).To(Equal("Holding\r\n"))
			Expect(exec.Holding()).To(BeTrue())
		})

		It("lists every command in help", func() {
			out := send("help\r\n")
			for _, kw := range input.Keywords() {
				Expect(out).To(ContainSubstring("   " + kw))
			}
			Expect(out).To(HaveSuffix("reset_ic {complete|state}\r\n\r\n"))
		})

		It("reports the run in info", func() {
			exec.simTime = 12.3456
			Expect(send("info\r\n")).To(Equal(
				"fdmctl version: 1.0.0\r\n" +
					"Config File version: 2.0\r\n" +
					"Aircraft simulated: c172\r\n" +
					"Simulation time:     12.3\r\n"))
		})

		It("closes the connection on quit and keeps going", func() {
			Expect(send("quit\r\nhold\r\n")).To(Equal("Holding\r\n"))
			Expect(tr.sent).To(Equal([]string{"Closing connection\r\n"}))
			Expect(tr.closed).To(BeTrue())
		})
	})

	Describe("property access", func() {
		It("reads a leaf", func() {
			Expect(send("get position/h-sl-ft\r\n")).To(Equal("position/h-sl-ft =         1500\r\n"))
		})

		It("round-trips a set", func() {
			Expect(send("set velocities/u-fps 123.25\r\n")).To(Equal("set successful\r\n"))
			Expect(send("get velocities/u-fps\r\n")).To(Equal("velocities/u-fps =       123.25\r\n"))
		})

		DescribeTable("lookup failures abort the line",
			func(line, reply string) {
				Expect(send(line + "\r\nhold\r\n")).To(Equal(reply))
				Expect(exec.Holding()).To(BeFalse())
			},
			Entry("get without argument", "get", "No property argument supplied.\r\n"),
			Entry("set without argument", "set", "No property argument supplied.\r\n"),
			Entry("malformed path", "get position//h-sl-ft", "Badly formed property query\r\n"),
			Entry("unknown property", "get position/nope", "Unknown property\r\n"),
			Entry("set on a branch", "set position 1", "Not a leaf property\r\n"),
			Entry("unparseable value", "set position/h-sl-ft abc", "Expecting a numeric attribute value, but got: abc\r\n"),
			Entry("missing value", "set position/h-sl-ft", "Expecting a numeric attribute value, but only got spaces\r\n"),
		)

		It("refuses to write a read-only property", func() {
			Expect(pm.Tie("simulation/sim-time-sec", func() float64 { return 1 }, nil)).To(Succeed())
			Expect(send("set simulation/sim-time-sec 5\r\n")).To(Equal("Property is read-only\r\n"))
		})

		It("gates the catalog on hold", func() {
			Expect(send("get position\r\n")).To(Equal("Must be in HOLD to search properties\r\n"))

			exec.Hold()
			Expect(send("get position\r\n")).To(Equal("position/h-sl-ft\r\nposition/lat-gc-deg\r\n"))
		})
	})

	Describe("execution control", func() {
		It("keeps hold and resume idempotent", func() {
			send("hold\r\nhold\r\n")
			Expect(exec.Holding()).To(BeTrue())
			send("resume\r\nresume\r\n")
			Expect(exec.Holding()).To(BeFalse())
		})

		It("runs exactly N steps after hold", func() {
			Expect(send("hold\r\niterate 5\r\n")).To(Equal("Holding\r\nIterations performed\r\n"))
			Expect(exec.Holding()).To(BeFalse())
			Expect(exec.advance(20)).To(Equal(5))
			Expect(exec.Holding()).To(BeTrue())
		})

		DescribeTable("rejects a bad count and leaves hold alone",
			func(line, reply string) {
				exec.Hold()
				Expect(send(line + "\r\n")).To(Equal(reply))
				Expect(exec.Holding()).To(BeTrue())
				Expect(exec.incSteps).To(BeZero())
			},
			Entry("zero", "iterate 0", "Required argument must be a positive Integer.\r\n"),
			Entry("negative", "iterate -3", "Required argument must be a positive Integer.\r\n"),
			Entry("not a number", "iterate many", "Required argument must be a positive Integer.\r\n"),
			Entry("missing", "iterate", "No argument supplied for number of iterations.\r\n"),
		)
	})

	Describe("reset_ic complete", func() {
		BeforeEach(func() {
			exec.ic.SetAltitudeAGLFt(500)
			exec.ic.SetUBodyFps(80)
			exec.ic.SetWBodyFps(-4)
			Expect(pm.Set("ic/lat-gc-deg", 10)).To(Succeed())
			Expect(pm.Set("ic/long-gc-deg", 20)).To(Succeed())
			_, err := pm.Declare("ic/h-agl-ft")
			Expect(err).NotTo(HaveOccurred())
			Expect(pm.Set("ic/psi-true-deg", 90)).To(Succeed())
		})

		It("copies valued properties and zeroes velocity", func() {
			Expect(send("reset_ic complete\r\n")).To(Equal("Initial conditions reset (complete)\r\n"))

			c := exec.ic
			Expect(c.LatitudeDeg()).To(BeNumerically("~", 10, 1e-12))
			Expect(c.LongitudeDeg()).To(BeNumerically("~", 20, 1e-12))
			Expect(c.AltitudeAGLFt()).To(BeNumerically("~", 500, 1e-12))
			Expect(c.PsiDeg()).To(BeNumerically("~", 90, 1e-12))
			Expect(c.UVW()).To(Equal(frames.Vec3{}))
			Expect(prop.seededLat).To(BeNumerically("~", 10, 1e-12))
		})

		It("settles with two zero-length steps in order", func() {
			send("reset_ic\r\n")
			Expect(exec.stepDts).To(Equal([]float64{0, 0}))
			Expect(*log).To(Equal(calls{
				"suspend",
				"set-initial-state",
				"ground-init",
				"step",
				"step",
				"initialize-derivatives",
				"resume-integration",
			}))
			Expect(exec.dt).To(Equal(0.01))
		})

		It("restores the time step when a settle step fails", func() {
			exec.stepErr = errStep
			out := send("reset_ic complete\r\nhold\r\n")
			Expect(out).To(Equal("Initial conditions reset failed: model diverged\r\n"))
			Expect(exec.dt).To(Equal(0.01))
			Expect(exec.Holding()).To(BeFalse())
		})
	})

	Describe("reset_ic state", func() {
		var t, l frames.Quaternion

		BeforeEach(func() {
			prop.ti2l = frames.LocalLevel(0.7, -1.2, 0.3)
			prop.position = [3]float64{0.7, -1.2, 1000}
			exec.ic.SetPhiDeg(10)
			exec.ic.SetThetaDeg(-5)
			exec.ic.SetPsiDeg(250)
			exec.ic.SetUBodyFps(120)
			exec.ic.SetVBodyFps(2)
			t = frames.Matrix33(prop.ti2l).Quaternion()
			l = frames.Quaternion(exec.ic.Orientation())
		})

		It("composes the transform before the local attitude", func() {
			Expect(send("reset_ic STATE\r\n")).To(Equal("Initial conditions applied (state)\r\n"))

			got := frames.Quaternion(prop.qi2b)
			Expect(got.Equal(t.Mul(l), 1e-12)).To(BeTrue())
			Expect(got.Equal(l.Mul(t), 1e-6)).To(BeFalse())
			Expect(prop.uvw).To(Equal(frames.Vec3{X: 120, Y: 2}))
		})

		It("leaves position and integration alone", func() {
			send("reset_ic state\r\n")
			Expect(prop.position).To(Equal([3]float64{0.7, -1.2, 1000}))
			Expect(*log).To(BeEmpty())
		})
	})

	It("rejects an unknown reset mode without aborting", func() {
		Expect(send("reset_ic partial\r\nhold\r\n")).To(Equal(
			"Invalid reset_ic mode. Use 'complete' or 'state'\r\nHolding\r\n"))
	})

	Describe("observability", func() {
		var (
			collector *metrics.Collector
			spans     *tracetest.SpanRecorder
		)

		BeforeEach(func() {
			var err error
			collector, err = metrics.New(prometheus.NewRegistry())
			Expect(err).NotTo(HaveOccurred())
			spans = tracetest.NewSpanRecorder()
			opts.Metrics = collector
			opts.Tracer = sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans)).Tracer("test")
		})

		It("counts commands and records a span for each", func() {
			send("hold\r\nget nosuch\r\n")
			Expect(testutil.ToFloat64(collector.Commands.WithLabelValues("hold"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(collector.CommandErrors.WithLabelValues("get"))).To(Equal(1.0))
			Expect(testutil.ToFloat64(collector.BytesReceived)).To(Equal(float64(len("hold\r\nget nosuch\r\n"))))

			var names []string
			for _, s := range spans.Ended() {
				names = append(names, s.Name())
			}
			Expect(strings.Join(names, ",")).To(Equal("command hold,command get"))
		})
	})
})
