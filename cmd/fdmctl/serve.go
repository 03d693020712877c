package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/san-kum/fdmctl/internal/config"
	"github.com/san-kum/fdmctl/internal/crypt"
	"github.com/san-kum/fdmctl/internal/fdm"
	"github.com/san-kum/fdmctl/internal/ground"
	"github.com/san-kum/fdmctl/internal/input"
	"github.com/san-kum/fdmctl/internal/integrators"
	"github.com/san-kum/fdmctl/internal/logging"
	"github.com/san-kum/fdmctl/internal/metrics"
	"github.com/san-kum/fdmctl/internal/storage"
	"github.com/san-kum/fdmctl/internal/tracing"
	"github.com/san-kum/fdmctl/internal/transport"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	port             int
	protocol         string
	blocking         bool
	retainAfterAbort bool
	dt               float64
	integrator       string
	preset           string
	realTime         bool
	record           bool
	metricsAddr      string
	logLevel         string
	startHeld        bool
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "run the simulation and accept commands",
		RunE:  serve,
	}
	f := cmd.Flags()
	f.IntVar(&port, "port", config.DefaultPort, "command port")
	f.StringVar(&protocol, "protocol", config.DefaultProtocol, "command protocol (tcp or udp)")
	f.BoolVar(&blocking, "blocking", false, "wait for a command every frame")
	f.BoolVar(&retainAfterAbort, "retain-after-abort", false, "keep lines that follow a failed command")
	f.Float64Var(&dt, "dt", config.DefaultDt, "frame time step in seconds")
	f.StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator (euler, rk4, ab2)")
	f.StringVar(&preset, "preset", "", "initial condition preset")
	f.BoolVar(&realTime, "realtime", true, "pace frames against the wall clock")
	f.BoolVar(&record, "record", false, "record sampled properties to the runs directory")
	f.StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address")
	f.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	f.StringVar(&dataDir, "data", "", "runs directory")
	f.BoolVar(&startHeld, "hold", false, "start in hold")
	return cmd
}

func loadConfig() (*config.Config, error) {
	if configFile == "" {
		return config.DefaultConfig(), nil
	}
	key, err := crypt.KeyFromEnv()
	if err != nil && !errors.Is(err, crypt.ErrNoKey) {
		return nil, err
	}
	return config.Load(configFile, key)
}

func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if len(cfg.Inputs) == 0 {
		cfg.Inputs = []config.InputConfig{{Port: config.DefaultPort, Protocol: config.DefaultProtocol}}
	}
	in := &cfg.Inputs[0]
	if f.Changed("port") {
		in.Port = port
	}
	if f.Changed("protocol") {
		in.Protocol = protocol
	}
	if f.Changed("blocking") {
		in.Blocking = blocking
	}
	if f.Changed("retain-after-abort") {
		in.RetainAfterAbort = retainAfterAbort
	}
	if f.Changed("dt") {
		cfg.Dt = dt
	}
	if f.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if f.Changed("preset") {
		cfg.Preset = preset
	}
	if f.Changed("realtime") {
		cfg.RealTime = realTime
	}
	if f.Changed("record") {
		cfg.Storage.Record = record
	}
	if f.Changed("metrics-addr") {
		cfg.Metrics.Addr = metricsAddr
	}
	if f.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
	if f.Changed("data") {
		cfg.Storage.Dir = dataDir
	}
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyFlags(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log := logging.New(cfg.Logging)

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing, log)
	if err != nil {
		return err
	}
	defer tracing.ShutdownWithTimeout(context.Background(), shutdownTracing, log)

	reg := prometheus.NewRegistry()
	collector, err := metrics.New(reg)
	if err != nil {
		return err
	}

	integ, err := integrators.New(cfg.Integrator)
	if err != nil {
		return err
	}
	exec, err := fdm.New(fdm.Config{
		Dt:            cfg.Dt,
		Aircraft:      cfg.Aircraft,
		ConfigVersion: cfg.ConfigVersion,
		Integrator:    integ,
		Ground:        ground.Params{Spring: cfg.Ground.Spring, Damping: cfg.Ground.Damping},
	}, log)
	if err != nil {
		return err
	}
	exec.SetMetrics(collector)
	exec.IC().Apply(cfg.InitialCondition())
	if err := exec.RunIC(); err != nil {
		return fmt.Errorf("initial conditions: %w", err)
	}
	if startHeld {
		exec.Hold()
	}

	deps := input.Deps{
		Exec:       exec,
		Props:      exec.PropertyManager(),
		Propagator: exec.Propagator(),
		Ground:     exec.GroundReactions(),
	}
	for _, in := range cfg.Inputs {
		ep, err := transport.Listen(in.Protocol, in.Addr(), log)
		if err != nil {
			return err
		}
		defer ep.Shutdown()

		sess, err := input.NewSession(ep, deps, input.Options{
			Blocking:         in.IsBlocking(),
			RetainAfterAbort: in.RetainAfterAbort,
			Logger:           log,
			Metrics:          collector,
			Tracer:           tracing.Tracer(),
		})
		if err != nil {
			return err
		}
		exec.AddInput(sess)
		log.Info(ctx, "command input listening",
			logging.String("protocol", in.Protocol),
			logging.String("addr", ep.Addr().String()),
			logging.Bool("blocking", in.IsBlocking()),
		)
	}

	if cfg.Storage.Record {
		st := storage.New(cfg.Storage.Dir)
		if err := st.Init(); err != nil {
			return err
		}
		rec, err := st.NewRecorder(storage.RunMetadata{
			Aircraft:   cfg.Aircraft,
			Dt:         cfg.Dt,
			Integrator: cfg.Integrator,
			Preset:     cfg.Preset,
			Columns:    cfg.Storage.Properties,
		}, exec.PropertyManager(), cfg.Storage.SampleEvery)
		if err != nil {
			return err
		}
		exec.AddObserver(rec)
		defer func() {
			if err := rec.Close(); err != nil {
				log.Error(context.Background(), "recording failed", logging.Err(err))
				return
			}
			log.Info(context.Background(), "run saved", logging.String("run_id", rec.ID()))
		}()
	}

	pacing := fdm.Accelerated
	if cfg.RealTime {
		pacing = fdm.RealTime
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return exec.Loop(gctx, pacing) })

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", collector.Handler())
		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info(gctx, "metrics listening", logging.String("addr", cfg.Metrics.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(sctx)
		})
	}

	err = g.Wait()
	log.Info(context.Background(), "fdmctl stopped", logging.Float64("sim_time", exec.SimTime()))
	return err
}
