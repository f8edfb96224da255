package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

const (
	DefaultPort         = 8000
	DefaultFragmentSize = 4096
	DefaultHost         = "0.0.0.0"
)

type Logcat struct {
	// Level is one of debug, info, warn, error. Empty means info.
	Level string `json:"level"`
	// File enables a rotating log file next to stdout when set.
	File string `json:"file"`
}

func (l Logcat) SLogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug", "verbose":
		return slog.LevelDebug
	case "info", "":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error", "fatal":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Options are the recognized server options.
type Options struct {
	Host string `json:"host"`
	// Port is the first port tried when binding. Taken ports are skipped.
	Port int `json:"port"`
	// Timeout in seconds for accept and for every read/write on the
	// accepted connection. Zero blocks indefinitely.
	Timeout int `json:"timeout"`
	// FragmentSize is the largest frame payload written by the frame layer.
	FragmentSize int `json:"fragment_size"`

	ProxyProtocol bool   `json:"proxy_protocol"`
	MetricsAddr   string `json:"metrics_addr"`

	Log Logcat `json:"log"`
}

func Default() Options {
	return Options{
		Host:         DefaultHost,
		Port:         DefaultPort,
		FragmentSize: DefaultFragmentSize,
		Log:          Logcat{Level: "info"},
	}
}

// TimeoutDuration returns Timeout as a duration, zero when unset.
func (o Options) TimeoutDuration() time.Duration {
	if o.Timeout <= 0 {
		return 0
	}
	return time.Duration(o.Timeout) * time.Second
}

func (o Options) Validate() error {
	var err error
	if o.Port < 1 || o.Port > 65535 {
		err = errors.Join(err, fmt.Errorf("invalid port %d", o.Port))
	}
	if o.Timeout < 0 {
		err = errors.Join(err, fmt.Errorf("invalid timeout %d", o.Timeout))
	}
	if o.FragmentSize < 0 {
		err = errors.Join(err, fmt.Errorf("invalid fragment size %d", o.FragmentSize))
	}
	return err
}

// Load reads a json file over the defaults. Missing keys keep their
// default value.
func Load(path string) (Options, error) {
	opts := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return opts, fmt.Errorf("read config %s failed: %w", path, err)
	}

	if err := json.Unmarshal(data, &opts); err != nil {
		return opts, fmt.Errorf("unmarshal config %s failed: %w", path, err)
	}

	if opts.FragmentSize == 0 {
		opts.FragmentSize = DefaultFragmentSize
	}

	if opts.Host == "" {
		opts.Host = DefaultHost
	}

	return opts, opts.Validate()
}
