// ABOUTME: YAML profile for the speechenc CLI
// ABOUTME: Loads encoder, source and server settings with defaults and env overrides
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Resonate-Protocol/speechenc/pkg/audio"
	"github.com/Resonate-Protocol/speechenc/pkg/audio/encode"
	"github.com/Resonate-Protocol/speechenc/pkg/speech"
)

type SourceConfig struct {
	SamplingFrequency int           `yaml:"sampling_frequency"`
	Period            int           `yaml:"period"`
	File              string        `yaml:"file"` // MP3 or FLAC; empty plays a tone
	ToneHz            float64       `yaml:"tone_hz"`
	Duration          time.Duration `yaml:"duration"`
}

// Condition returns the synthesis conditions for generated sources
func (s SourceConfig) Condition() speech.Condition {
	return speech.Condition{SamplingFrequency: s.SamplingFrequency, Period: s.Period}
}

type ServerConfig struct {
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	MDNS     bool   `yaml:"mdns"`
	Realtime bool   `yaml:"realtime"`
}

type LogConfig struct {
	File string `yaml:"file"`
}

type Config struct {
	Encoder encode.Config `yaml:"encoder"`
	Source  SourceConfig  `yaml:"source"`
	Server  ServerConfig  `yaml:"server"`
	Log     LogConfig     `yaml:"log"`
}

func Default() Config {
	return Config{
		Encoder: encode.Config{
			Type:     encode.TypeOpus,
			Channels: audio.Stereo,
			Mode:     encode.ModeVoIP,
		},
		Source: SourceConfig{
			SamplingFrequency: 48000,
			Period:            240,
			ToneHz:            440,
			Duration:          3 * time.Second,
		},
		Server: ServerConfig{
			Port:     8927,
			MDNS:     true,
			Realtime: true,
		},
		Log: LogConfig{
			File: "speechenc.log",
		},
	}
}

func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return cfg, fmt.Errorf("config file not found: %w", err)
			}
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return cfg, err
	}
	cfg.Encoder = cfg.Encoder.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) error {
	if value, ok := lookup("SPEECHENC_ENCODER_TYPE"); ok {
		typ, err := encode.ParseType(value)
		if err != nil {
			return fmt.Errorf("SPEECHENC_ENCODER_TYPE: %w", err)
		}
		cfg.Encoder.Type = typ
	}
	if value, ok := lookup("SPEECHENC_ENCODER_CHANNELS"); ok {
		channels, err := audio.ParseChannels(value)
		if err != nil {
			return fmt.Errorf("SPEECHENC_ENCODER_CHANNELS: %w", err)
		}
		cfg.Encoder.Channels = channels
	}
	if value, ok := lookup("SPEECHENC_ENCODER_MODE"); ok {
		cfg.Encoder.Mode = encode.Mode(strings.ToLower(value))
	}
	overrideInt(&cfg.Encoder.ChunkSize, "SPEECHENC_ENCODER_CHUNK_SIZE")
	overrideInt(&cfg.Encoder.Bitrate, "SPEECHENC_ENCODER_BITRATE")
	overrideInt(&cfg.Source.SamplingFrequency, "SPEECHENC_SOURCE_SAMPLING_FREQUENCY")
	overrideInt(&cfg.Source.Period, "SPEECHENC_SOURCE_PERIOD")
	overrideString(&cfg.Source.File, "SPEECHENC_SOURCE_FILE")
	overrideInt(&cfg.Server.Port, "SPEECHENC_SERVER_PORT")
	overrideString(&cfg.Server.Name, "SPEECHENC_SERVER_NAME")
	overrideBool(&cfg.Server.MDNS, "SPEECHENC_SERVER_MDNS")
	overrideBool(&cfg.Server.Realtime, "SPEECHENC_SERVER_REALTIME")
	overrideString(&cfg.Log.File, "SPEECHENC_LOG_FILE")
	return nil
}

func (c Config) Validate() error {
	var errs []error

	if err := c.Encoder.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("encoder: %w", err))
	}
	if err := c.Source.Condition().Validate(); err != nil {
		errs = append(errs, fmt.Errorf("source: %w", err))
	}
	if c.Source.File == "" {
		if c.Source.ToneHz <= 0 {
			errs = append(errs, fmt.Errorf("source: tone_hz must be positive, got %v", c.Source.ToneHz))
		}
		if c.Source.Duration <= 0 {
			errs = append(errs, fmt.Errorf("source: duration must be positive, got %v", c.Source.Duration))
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server: invalid port %d", c.Server.Port))
	}

	return errors.Join(errs...)
}

func lookup(envKey string) (string, bool) {
	value, ok := os.LookupEnv(envKey)
	if !ok || strings.TrimSpace(value) == "" {
		return "", false
	}
	return strings.TrimSpace(value), true
}

func overrideString(target *string, envKey string) {
	if value, ok := lookup(envKey); ok {
		*target = value
	}
}

func overrideInt(target *int, envKey string) {
	if value, ok := lookup(envKey); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			*target = parsed
		}
	}
}

func overrideBool(target *bool, envKey string) {
	if value, ok := lookup(envKey); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			*target = parsed
		}
	}
}
