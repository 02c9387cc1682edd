// Package config loads handtouch settings from YAML, .env and the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables that override the file.
const (
	EnvCamera     = "HANDTOUCH_CAMERA"
	EnvAddr       = "HANDTOUCH_ADDR"
	EnvMQTTBroker = "HANDTOUCH_MQTT_BROKER"
)

// Config represents the complete handtouch configuration
type Config struct {
	Camera   CameraConfig   `yaml:"camera"`
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Tracking TrackingConfig `yaml:"tracking"`
	Detector DetectorConfig `yaml:"detector"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Tray     TrayConfig     `yaml:"tray"`
}

// CameraConfig contains camera settings
type CameraConfig struct {
	Source string `yaml:"source"` // device index ("0") or stream URL
}

// ServerConfig contains HTTP settings
type ServerConfig struct {
	Addr      string `yaml:"addr"`
	StaticDir string `yaml:"static_dir"`
}

// StoreConfig contains the touch journal location
type StoreConfig struct {
	Path string `yaml:"path"` // empty disables the journal
}

// TrackingConfig contains tracker and touch geometry in pixels
type TrackingConfig struct {
	Algorithm       string  `yaml:"algorithm"` // kcf, mil
	BoxSize         int     `yaml:"box_size"`
	MarkerRadius    int     `yaml:"marker_radius"`
	TouchRadius     float64 `yaml:"touch_radius"`
	SmoothingWindow int     `yaml:"smoothing_window"`
}

// DetectorConfig contains hand landmark settings
type DetectorConfig struct {
	MaxHands        int     `yaml:"max_hands"`
	MinConfidence   float64 `yaml:"min_confidence"`
	MinTrackingConf float64 `yaml:"min_tracking_confidence"`
}

// PipelineConfig contains loop timing and queue settings
type PipelineConfig struct {
	QueueCapacity int           `yaml:"queue_capacity"`
	PollTimeout   time.Duration `yaml:"poll_timeout"`
	JoinTimeout   time.Duration `yaml:"join_timeout"`
}

// MQTTConfig contains broker settings for touch notifications
type MQTTConfig struct {
	Broker   string `yaml:"broker"` // host:port, empty disables MQTT
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
}

// TrayConfig toggles the system tray
type TrayConfig struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Camera: CameraConfig{Source: "0"},
		Server: ServerConfig{Addr: ":8080"},
		Tracking: TrackingConfig{
			Algorithm:       "kcf",
			BoxSize:         100,
			MarkerRadius:    10,
			TouchRadius:     10,
			SmoothingWindow: 5,
		},
		Detector: DetectorConfig{
			MaxHands:        1,
			MinConfidence:   0.7,
			MinTrackingConf: 0.5,
		},
		Pipeline: PipelineConfig{
			QueueCapacity: 2,
			PollTimeout:   50 * time.Millisecond,
			JoinTimeout:   2 * time.Second,
		},
		MQTT: MQTTConfig{
			ClientID: "handtouch",
			Topic:    "handtouch/touch",
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies .env and
// environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// A missing .env is normal
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}
	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvCamera); v != "" {
		c.Camera.Source = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv(EnvMQTTBroker); v != "" {
		c.MQTT.Broker = v
	}
}

// Validate checks the configuration for values the pipeline cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Camera.Source == "" {
		errs = append(errs, errors.New("camera.source is required"))
	}
	switch c.Tracking.Algorithm {
	case "kcf", "mil":
	default:
		errs = append(errs, fmt.Errorf("tracking.algorithm must be kcf or mil, got %q", c.Tracking.Algorithm))
	}
	if c.Tracking.BoxSize <= 0 {
		errs = append(errs, errors.New("tracking.box_size must be positive"))
	}
	if c.Tracking.MarkerRadius <= 0 {
		errs = append(errs, errors.New("tracking.marker_radius must be positive"))
	}
	if c.Tracking.TouchRadius <= 0 {
		errs = append(errs, errors.New("tracking.touch_radius must be positive"))
	}
	if c.Tracking.SmoothingWindow <= 0 {
		errs = append(errs, errors.New("tracking.smoothing_window must be positive"))
	}
	if c.Detector.MaxHands <= 0 {
		errs = append(errs, errors.New("detector.max_hands must be positive"))
	}
	if c.Detector.MinConfidence < 0 || c.Detector.MinConfidence > 1 {
		errs = append(errs, errors.New("detector.min_confidence must be within [0,1]"))
	}
	if c.Pipeline.QueueCapacity <= 0 {
		errs = append(errs, errors.New("pipeline.queue_capacity must be positive"))
	}
	if c.Pipeline.PollTimeout <= 0 {
		errs = append(errs, errors.New("pipeline.poll_timeout must be positive"))
	}
	if c.Pipeline.JoinTimeout <= 0 {
		errs = append(errs, errors.New("pipeline.join_timeout must be positive"))
	}
	if c.MQTT.Broker != "" && c.MQTT.Topic == "" {
		errs = append(errs, errors.New("mqtt.topic is required when mqtt.broker is set"))
	}

	return errors.Join(errs...)
}
