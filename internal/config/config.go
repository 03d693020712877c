package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/fdmctl/internal/crypt"
	"github.com/san-kum/fdmctl/internal/ic"
	"github.com/san-kum/fdmctl/internal/logging"
	"github.com/san-kum/fdmctl/internal/tracing"
)

const (
	DefaultDt         = 1.0 / 120
	DefaultIntegrator = "ab2"
	DefaultPort       = 5139
	DefaultProtocol   = "tcp"
	DefaultRunsDir    = "runs"

	// BlockingAction is the input action that turns on blocking polls.
	BlockingAction = "BLOCKING_INPUT"
)

type Config struct {
	Aircraft      string  `yaml:"aircraft" toml:"aircraft"`
	ConfigVersion string  `yaml:"config_version" toml:"config_version"`
	Integrator    string  `yaml:"integrator" toml:"integrator"`
	Dt            float64 `yaml:"dt" toml:"dt"`
	RealTime      bool    `yaml:"real_time" toml:"real_time"`

	// Preset names an entry of Presets; when empty InitialConditions is used.
	Preset            string        `yaml:"preset" toml:"preset"`
	InitialConditions ICConfig      `yaml:"initial_conditions" toml:"initial_conditions"`
	Ground            GroundConfig  `yaml:"ground" toml:"ground"`
	Inputs            []InputConfig `yaml:"inputs" toml:"inputs"`

	Logging logging.Config `yaml:"logging" toml:"logging"`
	Metrics MetricsConfig  `yaml:"metrics" toml:"metrics"`
	Tracing tracing.Config `yaml:"tracing" toml:"tracing"`
	Storage StorageConfig  `yaml:"storage" toml:"storage"`
}

type ICConfig struct {
	LatitudeDeg   float64 `yaml:"lat_deg" toml:"lat_deg"`
	LongitudeDeg  float64 `yaml:"lon_deg" toml:"lon_deg"`
	AltitudeAGLFt float64 `yaml:"h_agl_ft" toml:"h_agl_ft"`
	TerrainFt     float64 `yaml:"terrain_ft" toml:"terrain_ft"`
	PhiDeg        float64 `yaml:"phi_deg" toml:"phi_deg"`
	ThetaDeg      float64 `yaml:"theta_deg" toml:"theta_deg"`
	PsiDeg        float64 `yaml:"psi_deg" toml:"psi_deg"`
	UFps          float64 `yaml:"u_fps" toml:"u_fps"`
	VFps          float64 `yaml:"v_fps" toml:"v_fps"`
	WFps          float64 `yaml:"w_fps" toml:"w_fps"`
}

func (c ICConfig) Preset() ic.Preset {
	return ic.Preset{
		LatitudeDeg:   c.LatitudeDeg,
		LongitudeDeg:  c.LongitudeDeg,
		AltitudeAGLFt: c.AltitudeAGLFt,
		TerrainFt:     c.TerrainFt,
		PhiDeg:        c.PhiDeg,
		ThetaDeg:      c.ThetaDeg,
		PsiDeg:        c.PsiDeg,
		UFps:          c.UFps,
		VFps:          c.VFps,
		WFps:          c.WFps,
	}
}

type GroundConfig struct {
	Spring  float64 `yaml:"spring" toml:"spring"`
	Damping float64 `yaml:"damping" toml:"damping"`
}

// InputConfig is one command socket.
type InputConfig struct {
	Port             int    `yaml:"port" toml:"port"`
	Protocol         string `yaml:"protocol" toml:"protocol"`
	Blocking         bool   `yaml:"blocking" toml:"blocking"`
	Action           string `yaml:"action" toml:"action"`
	RetainAfterAbort bool   `yaml:"retain_after_abort" toml:"retain_after_abort"`
}

// IsBlocking reports whether the input waits for data every tick.
func (in InputConfig) IsBlocking() bool {
	return in.Blocking || strings.EqualFold(in.Action, BlockingAction)
}

func (in InputConfig) Addr() string {
	return fmt.Sprintf(":%d", in.Port)
}

type MetricsConfig struct {
	// Addr serves /metrics when set, for example ":9102".
	Addr string `yaml:"addr" toml:"addr"`
}

type StorageConfig struct {
	Dir         string   `yaml:"dir" toml:"dir"`
	Record      bool     `yaml:"record" toml:"record"`
	SampleEvery int      `yaml:"sample_every" toml:"sample_every"`
	Properties  []string `yaml:"properties" toml:"properties"`
}

func DefaultConfig() *Config {
	return &Config{
		Aircraft:      "c172",
		ConfigVersion: "2.0",
		Integrator:    DefaultIntegrator,
		Dt:            DefaultDt,
		RealTime:      true,
		Preset:        "runway",
		Ground:        GroundConfig{Spring: 60, Damping: 12},
		Inputs:        []InputConfig{{Port: DefaultPort, Protocol: DefaultProtocol}},
		Logging:       logging.Config{Level: "info", Format: "text"},
		Tracing:       tracing.Config{Exporter: "stdout", SampleRatio: 1},
		Storage: StorageConfig{
			Dir:         DefaultRunsDir,
			SampleEvery: 10,
			Properties: []string{
				"position/lat-gc-deg",
				"position/long-gc-deg",
				"position/h-agl-ft",
				"attitude/phi-deg",
				"attitude/theta-deg",
				"attitude/psi-deg",
				"velocities/u-fps",
				"velocities/h-dot-fps",
			},
		},
	}
}

// ValidationError is a config value that cannot be used.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Msg)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return &ValidationError{Field: "dt", Msg: fmt.Sprintf("must be positive, got %v", c.Dt)}
	}
	if c.Preset != "" {
		if _, ok := GetPreset(c.Preset); !ok {
			return &ValidationError{Field: "preset", Msg: "unknown preset " + c.Preset}
		}
	}
	for i, in := range c.Inputs {
		field := fmt.Sprintf("inputs[%d]", i)
		if in.Port == 0 {
			return &ValidationError{Field: field, Msg: "no port assigned in input element"}
		}
		if in.Port < 0 || in.Port > 65535 {
			return &ValidationError{Field: field, Msg: fmt.Sprintf("port %d out of range", in.Port)}
		}
		switch strings.ToLower(in.Protocol) {
		case "", "tcp", "udp":
		default:
			return &ValidationError{Field: field, Msg: "unsupported protocol " + in.Protocol}
		}
	}
	if c.Storage.Record && c.Storage.SampleEvery < 1 {
		return &ValidationError{Field: "storage.sample_every", Msg: "must be at least 1"}
	}
	return nil
}

// InitialCondition resolves the preset or the inline initial conditions.
func (c *Config) InitialCondition() ic.Preset {
	if p, ok := GetPreset(c.Preset); ok {
		return p
	}
	return c.InitialConditions.Preset()
}

type Format int

const (
	YAML Format = iota
	TOML
)

// FormatOf picks the encoding from the file extension; anything but .toml
// is YAML.
func FormatOf(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return TOML
	}
	return YAML
}

// Parse decodes data over the defaults and validates the result.
func Parse(data []byte, f Format) (*Config, error) {
	cfg := DefaultConfig()
	var err error
	switch f {
	case TOML:
		err = toml.Unmarshal(data, cfg)
	default:
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads path. When path+".enc" exists it is decrypted with key and
// used instead; the encoding still follows path's extension.
func Load(path string, key []byte) (*Config, error) {
	if enc, ok := crypt.LocateCompanion(path); ok {
		if key == nil {
			return nil, fmt.Errorf("config: %s is encrypted: %w", enc, crypt.ErrNoKey)
		}
		data, err := crypt.ReadEncryptedFile(key, enc)
		if err != nil {
			return nil, fmt.Errorf("config: %w", err)
		}
		return Parse(data, FormatOf(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(data, FormatOf(path))
}

func Encode(cfg *Config, f Format) ([]byte, error) {
	switch f {
	case TOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return yaml.Marshal(cfg)
	}
}

func Save(path string, cfg *Config) error {
	data, err := Encode(cfg, FormatOf(path))
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// IsValidation reports whether err is a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
