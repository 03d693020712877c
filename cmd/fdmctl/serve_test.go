package main

import (
	"testing"

	"github.com/san-kum/fdmctl/internal/config"
)

func TestApplyFlags(t *testing.T) {
	cmd := newServeCmd()
	for k, v := range map[string]string{
		"port":               "6000",
		"realtime":           "false",
		"retain-after-abort": "true",
		"integrator":         "euler",
	} {
		if err := cmd.Flags().Set(k, v); err != nil {
			t.Fatalf("set %s: %v", k, err)
		}
	}

	cfg := config.DefaultConfig()
	applyFlags(cmd, cfg)

	in := cfg.Inputs[0]
	if in.Port != 6000 || !in.RetainAfterAbort {
		t.Errorf("input not overridden: %+v", in)
	}
	if cfg.RealTime {
		t.Error("expected realtime off")
	}
	if cfg.Integrator != "euler" {
		t.Errorf("expected euler, got %s", cfg.Integrator)
	}
	if cfg.Dt != config.DefaultDt {
		t.Errorf("unchanged flag overrode dt: %v", cfg.Dt)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("overridden config invalid: %v", err)
	}
}

func TestApplyFlagsAddsDefaultInput(t *testing.T) {
	cmd := newServeCmd()
	cfg := config.DefaultConfig()
	cfg.Inputs = nil

	applyFlags(cmd, cfg)

	if len(cfg.Inputs) != 1 || cfg.Inputs[0].Port != config.DefaultPort {
		t.Errorf("expected default input, got %+v", cfg.Inputs)
	}
}
