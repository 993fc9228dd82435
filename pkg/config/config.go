// Package config loads the daemon's YAML configuration document.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the daemon's full configuration surface.
type Config struct {
	Database       string `yaml:"database"`
	CommandSubject string `yaml:"command_subject"`
	NATSURL        string `yaml:"nats_url"`
	Opt82Subject   string `yaml:"opt82_subject"`

	// EmbeddedNATS starts an in-process broker bound to EmbeddedNATSBind
	// instead of requiring a separately operated NATS deployment. NATSURL
	// still names the address the daemon's own client dials, which should
	// point back at EmbeddedNATSBind when this is set.
	EmbeddedNATS     bool   `yaml:"embedded_nats"`
	EmbeddedNATSBind string `yaml:"embedded_nats_bind"`

	LiscainAdoptDN      string `yaml:"liscain_adopt_dn"`
	LiscainInitUsername string `yaml:"liscain_init_username"`
	LiscainInitPassword string `yaml:"liscain_init_password"`

	// DefaultDeviceClass is the device_class newly-discovered devices are
	// created with. Bootstrap can't tell device classes apart from a bare
	// TFTP request, so a freshly-seen device is always created as this
	// class; re-classing it is an operator-driven matter, not a bootstrap
	// one (see DESIGN.md).
	DefaultDeviceClass string `yaml:"default_device_class"`

	// DeviceSSHPort is the port liscaind dials for the sonic SSH tunnel. IOS
	// sessions do not use it; they always dial port 22.
	DeviceSSHPort int `yaml:"device_ssh_port"`

	AutoconfEnabled                bool   `yaml:"autoconf_enabled"`
	AutoconfMode                   string `yaml:"autoconf_mode"`
	AutoconfPath                   string `yaml:"autoconf_path"`
	AutoconfVersionWhitelistPrefix string `yaml:"autoconf_version_whitelist_prefix"`
	AutoconfCDPJaspyAPI            string `yaml:"autoconf_cdp_jaspy_api"`

	HTTPPort  int    `yaml:"http_port"`
	ServeHTTP bool   `yaml:"serve_http"`
	TFTPBind  string `yaml:"tftp_bind"`
}

// defaults mirrors the values the daemon falls back to when a key is absent
// from the YAML document, matching spec.md §6's documented defaults.
func defaults() Config {
	return Config{
		Database:           "/var/lib/liscain/liscain.db",
		CommandSubject:     "liscain.cmd",
		NATSURL:            "nats://127.0.0.1:4222",
		Opt82Subject:       "opt82.ingest",
		EmbeddedNATSBind:   "127.0.0.1:4222",
		AutoconfMode:       "opt82",
		DefaultDeviceClass: "sonic",
		DeviceSSHPort:      22,
		HTTPPort:           8080,
		TFTPBind:           "0.0.0.0:69",
	}
}

// Load parses the YAML document at path over the built-in defaults and
// validates the fields that matter before anything else starts.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Database == "" {
		return fmt.Errorf("database is required")
	}
	if cfg.NATSURL == "" {
		return fmt.Errorf("nats_url is required")
	}
	if cfg.AutoconfEnabled {
		switch cfg.AutoconfMode {
		case "opt82", "cdp":
		default:
			return fmt.Errorf("autoconf_mode must be 'opt82' or 'cdp', got %q", cfg.AutoconfMode)
		}
		if cfg.AutoconfMode == "cdp" && cfg.AutoconfCDPJaspyAPI == "" {
			return fmt.Errorf("autoconf_cdp_jaspy_api is required when autoconf_mode is 'cdp'")
		}
	}
	return nil
}
