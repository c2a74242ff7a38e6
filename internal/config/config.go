package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/san-kum/pendulab/internal/sim"
	"gopkg.in/yaml.v3"
)

const (
	DefaultStoreURL     = "http://127.0.0.1:5000"
	DefaultStoreTimeout = 5 * time.Second
	DefaultLogLevel     = "info"
	DefaultDataDir      = "pendulab_data"
	DefaultListenAddr   = ":5000"
	DefaultTheme        = "classic"
)

// Environment overrides, read after the config file and before flags.
const (
	EnvStoreURL = "PENDULAB_STORE_URL"
	EnvLogLevel = "PENDULAB_LOG_LEVEL"
	EnvDataDir  = "PENDULAB_DATA_DIR"
	EnvProfile  = "PENDULAB_PROFILE"
)

type Config struct {
	Oscillations       float64      `yaml:"oscillations"`
	LengthCm           int          `yaml:"length_cm"`
	InitialAngleDeg    float64      `yaml:"initial_angle_deg"`
	SettleThresholdDeg float64      `yaml:"settle_threshold_deg"`
	Profile            string       `yaml:"profile"`
	Store              StoreConfig  `yaml:"store"`
	Server             ServerConfig `yaml:"server"`
	Log                LogConfig    `yaml:"log"`
	DataDir            string       `yaml:"data_dir"`
	Theme              string       `yaml:"theme"`
}

type StoreConfig struct {
	// URL of the trial store; empty disables forwarding.
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Listen string `yaml:"listen"`
	// DB is a SQLite path; empty keeps trials in memory.
	DB string `yaml:"db"`
}

type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		Oscillations:       sim.DefaultOscillations,
		LengthCm:           sim.DefaultLengthCm,
		InitialAngleDeg:    sim.DefaultInitialAngleDeg,
		SettleThresholdDeg: sim.DefaultSettleThresholdDeg,
		Profile:            sim.ProfileStandard.Name,
		Store: StoreConfig{
			URL:     DefaultStoreURL,
			Timeout: DefaultStoreTimeout,
		},
		Server: ServerConfig{
			Listen: DefaultListenAddr,
		},
		Log: LogConfig{
			Level: DefaultLogLevel,
		},
		DataDir: DefaultDataDir,
		Theme:   DefaultTheme,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	cfg.Sanitize()
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Sanitize replaces invalid values with defaults in place.
func (c *Config) Sanitize() {
	p := c.Params()
	c.Oscillations = p.TargetOscillations
	c.LengthCm = p.LengthCm
	c.InitialAngleDeg = p.InitialAngleDeg
	c.SettleThresholdDeg = p.SettleThresholdDeg
	c.Profile = sim.ProfileByName(c.Profile).Name
	if c.Store.Timeout <= 0 {
		c.Store.Timeout = DefaultStoreTimeout
	}
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListenAddr
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.DataDir == "" {
		c.DataDir = DefaultDataDir
	}
	if c.Theme == "" {
		c.Theme = DefaultTheme
	}
}

// ApplyEnv overrides fields from the PENDULAB_* variables. A set but empty
// store URL disables forwarding.
func (c *Config) ApplyEnv() {
	if v, ok := os.LookupEnv(EnvStoreURL); ok {
		c.Store.URL = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvDataDir); v != "" {
		c.DataDir = v
	}
	if v := os.Getenv(EnvProfile); v != "" {
		c.Profile = v
	}
}

func (c *Config) Params() sim.Params {
	return sim.Params{
		TargetOscillations: c.Oscillations,
		LengthCm:           c.LengthCm,
		InitialAngleDeg:    c.InitialAngleDeg,
		SettleThresholdDeg: c.SettleThresholdDeg,
	}.Sanitize()
}

func (c *Config) SimProfile() sim.Profile {
	return sim.ProfileByName(c.Profile)
}

// ParseOscillations reads the oscillation target typed by the user.
// Anything that is not a positive finite number yields the default.
func ParseOscillations(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return sim.DefaultOscillations
	}
	return sim.Params{TargetOscillations: v}.Sanitize().TargetOscillations
}

// ParseLength reads the pendulum length in centimetres. Fractions are
// truncated the way an integer input field would.
func ParseLength(s string) int {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || v < 1 || v > 1e6 {
		return sim.DefaultLengthCm
	}
	return int(v)
}
