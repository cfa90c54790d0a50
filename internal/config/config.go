// ABOUTME: Application configuration loading
// ABOUTME: Viper-backed YAML config with defaults and validation
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"

	"github.com/sessioncast/audiograph/pkg/recorder"
)

// AudioConfig selects capture inputs and rates.
type AudioConfig struct {
	SampleRate        uint32 `mapstructure:"sample_rate" yaml:"sample_rate"`
	BufferMs          int    `mapstructure:"buffer_ms" yaml:"buffer_ms"`
	EnableMicrophone  bool   `mapstructure:"enable_microphone" yaml:"enable_microphone"`
	MicrophoneDevice  string `mapstructure:"microphone_device" yaml:"microphone_device"`
	EnableSystemAudio bool   `mapstructure:"enable_system_audio" yaml:"enable_system_audio"`
	Balance           uint8  `mapstructure:"balance" yaml:"balance"`
}

// VADConfig controls silence detection.
type VADConfig struct {
	Enabled      bool    `mapstructure:"enabled" yaml:"enabled"`
	ThresholdDB  float32 `mapstructure:"threshold_db" yaml:"threshold_db"`
	MinSilenceMs int     `mapstructure:"min_silence_ms" yaml:"min_silence_ms"`
}

// OutputConfig controls where recordings land.
type OutputConfig struct {
	Directory string `mapstructure:"directory" yaml:"directory"`
}

// Config is the application configuration.
type Config struct {
	Audio    AudioConfig  `mapstructure:"audio" yaml:"audio"`
	VAD      VADConfig    `mapstructure:"vad" yaml:"vad"`
	Output   OutputConfig `mapstructure:"output" yaml:"output"`
	LogLevel string       `mapstructure:"log_level" yaml:"log_level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("audio.sample_rate", recorder.StandardSampleRate)
	v.SetDefault("audio.buffer_ms", 10)
	v.SetDefault("audio.enable_microphone", true)
	v.SetDefault("audio.enable_system_audio", false)
	v.SetDefault("audio.balance", 50)
	v.SetDefault("vad.enabled", true)
	v.SetDefault("vad.threshold_db", -45.0)
	v.SetDefault("vad.min_silence_ms", 2000)
	v.SetDefault("output.directory", "recordings")
	v.SetDefault("log_level", "info")
}

// Load reads the config file at path, or the default locations when
// path is empty. A missing file is fine; defaults apply.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", path, err)
		}
	} else {
		v.SetConfigName("audiograph")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home + "/.config")
		}
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshaling: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the recorder would refuse anyway, with
// clearer positions.
func (c *Config) Validate() error {
	if c.Audio.SampleRate == 0 || c.Audio.SampleRate > 192000 {
		return fmt.Errorf("config: audio.sample_rate %d outside (0, 192000]", c.Audio.SampleRate)
	}
	if c.Audio.BufferMs <= 0 || c.Audio.BufferMs > 1000 {
		return fmt.Errorf("config: audio.buffer_ms %d outside (0, 1000]", c.Audio.BufferMs)
	}
	if c.Audio.Balance > 100 {
		return fmt.Errorf("config: audio.balance %d outside [0, 100]", c.Audio.Balance)
	}
	if c.VAD.ThresholdDB > 0 {
		return fmt.Errorf("config: vad.threshold_db %.1f above full scale", c.VAD.ThresholdDB)
	}
	if c.VAD.MinSilenceMs <= 0 {
		return fmt.Errorf("config: vad.min_silence_ms %d must be positive", c.VAD.MinSilenceMs)
	}
	return nil
}

// RecorderConfig maps the file layout onto the recorder package.
func (c *Config) RecorderConfig() recorder.Config {
	return recorder.Config{
		SampleRate:        c.Audio.SampleRate,
		EnableMicrophone:  c.Audio.EnableMicrophone,
		MicrophoneDevice:  c.Audio.MicrophoneDevice,
		EnableSystemAudio: c.Audio.EnableSystemAudio,
		Balance:           c.Audio.Balance,
		VADEnabled:        c.VAD.Enabled,
		VADThresholdDB:    c.VAD.ThresholdDB,
		MinSilence:        time.Duration(c.VAD.MinSilenceMs) * time.Millisecond,
		BufferDuration:    time.Duration(c.Audio.BufferMs) * time.Millisecond,
		OutputDir:         c.Output.Directory,
	}
}
