// Package config loads the manager's configuration.
//
// The file lives at $PILOTMGR_CONFIG, falling back to
// /etc/pilotmgr/config.yaml. Missing files and missing fields fall back to
// the defaults in Default.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"pilotmgr/process"

	"gopkg.in/yaml.v3"
)

const DefaultPath = "/etc/pilotmgr/config.yaml"

// Paths are the filesystem locations the manager reads and writes.
type Paths struct {
	Params          string `yaml:"params"`
	Crashes         string `yaml:"crashes"`
	Shm             string `yaml:"shm"`
	PrebuiltMarker  string `yaml:"prebuilt_marker"`
	UninstallMarker string `yaml:"uninstall_marker"`
	LogFile         string `yaml:"log_file"`
	BusSocket       string `yaml:"bus_socket"`
	StatusSocket    string `yaml:"status_socket"`
}

// Config is the manager configuration.
type Config struct {
	Paths Paths `yaml:"paths"`

	LogLevel    string        `yaml:"log_level"`
	NTPServer   string        `yaml:"ntp_server"` // empty disables clock sync
	TickTimeout time.Duration `yaml:"tick_timeout"`

	// PowerActions enables reboot, shutdown and uninstall. Development
	// machines turn it off so shutdown flags are ignored.
	PowerActions bool `yaml:"power_actions"`
	// PC marks a desktop build: no update bookkeeping is seeded.
	PC bool `yaml:"pc"`

	Workers []process.Spec `yaml:"workers"`
}

// Default returns the configuration used for unset fields.
func Default() Config {
	return Config{
		Paths: Paths{
			Params:          "/data/params/params.db",
			Crashes:         "/data/community/crashes",
			Shm:             "/dev/shm/params",
			PrebuiltMarker:  "/data/openpilot/prebuilt",
			UninstallMarker: "/data/__system_reset__",
			LogFile:         "/data/log/pilotmgr.log",
			BusSocket:       "/run/pilotmgr/bus.sock",
			StatusSocket:    "/run/pilotmgr/status.sock",
		},
		LogLevel:     "info",
		NTPServer:    "pool.ntp.org",
		TickTimeout:  time.Second,
		PowerActions: true,
	}
}

// Path returns the config file location, honoring PILOTMGR_CONFIG.
func Path() string {
	if p := os.Getenv("PILOTMGR_CONFIG"); p != "" {
		return p
	}
	return DefaultPath
}

// Load reads the config at path. A missing file yields Default().
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Paths.Params == "" {
		return errors.New("paths.params is required")
	}
	if c.TickTimeout <= 0 {
		return fmt.Errorf("tick_timeout must be positive, got %s", c.TickTimeout)
	}
	seen := make(map[string]struct{}, len(c.Workers))
	for i, w := range c.Workers {
		if err := w.Validate(); err != nil {
			return fmt.Errorf("workers[%d]: %w", i, err)
		}
		if _, dup := seen[w.Name]; dup {
			return fmt.Errorf("workers[%d]: duplicate worker %q", i, w.Name)
		}
		seen[w.Name] = struct{}{}
	}
	return nil
}
