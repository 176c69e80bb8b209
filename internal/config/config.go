// Package config handles configuration loading using viper.
package config

import (
	"net/netip"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/XaydBayeck/ipw/internal/core"
	"github.com/XaydBayeck/ipw/internal/log"
)

// EnvPrefix prefixes environment overrides, e.g. IPW_CAPTURE_CAPACITY.
const EnvPrefix = "IPW"

// Config is the complete tool configuration.
type Config struct {
	Interface string        `mapstructure:"interface"` // Empty = first interface with a hardware address
	Capture   CaptureConfig `mapstructure:"capture"`
	ARP       ARPConfig     `mapstructure:"arp"`
	Send      SendConfig    `mapstructure:"send"`
	Filter    FilterConfig  `mapstructure:"filter"`
	Log       log.Config    `mapstructure:"log"`
}

// CaptureConfig sizes the receive side of the raw socket.
type CaptureConfig struct {
	Capacity    int  `mapstructure:"capacity"` // Receive buffer, frames beyond it are cut
	Promiscuous bool `mapstructure:"promiscuous"`
}

// ARPConfig controls the request/reply exchange.
type ARPConfig struct {
	Timeout      time.Duration `mapstructure:"timeout"` // Per attempt; 0 = wait forever
	Retries      int           `mapstructure:"retries"`
	VerifySender bool          `mapstructure:"verify_sender"`
	SourceIP     netip.Addr    `mapstructure:"source_ip"` // Zero = first IPv4 of the interface
}

// SendConfig holds defaults for crafted IPv4 frames.
type SendConfig struct {
	TTL      uint8      `mapstructure:"ttl"`
	Radix    int        `mapstructure:"radix"`
	SourceIP netip.Addr `mapstructure:"source_ip"`
}

// FilterConfig selects how matching frames are printed.
type FilterConfig struct {
	Output string `mapstructure:"output"` // text | yaml
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"interface":   "interface",
	"capacity":    "capture.capacity",
	"promiscuous": "capture.promiscuous",
	"timeout":     "arp.timeout",
	"retries":     "arp.retries",
	"verify":      "arp.verify_sender",
	"ttl":         "send.ttl",
	"radix":       "send.radix",
	"output":      "filter.output",
	"log-level":   "log.level",
}

// Load merges defaults, the optional config file at path, IPW_* environment
// variables and any changed flags in flags, in increasing precedence.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrap(err, "failed to read config file")
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, errors.Wrapf(err, "bind flag %s", name)
				}
			}
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.TextUnmarshallerHookFunc(),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal config")
	}

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("interface", "")

	v.SetDefault("capture.capacity", 256)
	v.SetDefault("capture.promiscuous", false)

	v.SetDefault("arp.timeout", "3s")
	v.SetDefault("arp.retries", 2)
	v.SetDefault("arp.verify_sender", true)
	v.SetDefault("arp.source_ip", "")

	v.SetDefault("send.ttl", 64)
	v.SetDefault("send.radix", 16)
	v.SetDefault("send.source_ip", "")

	v.SetDefault("filter.output", "text")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pattern", "%time [%level] %msg %field\n")
	v.SetDefault("log.time", "2006-01-02 15:04:05.000")
	v.SetDefault("log.caller", false)
	v.SetDefault("log.file.enabled", false)
	v.SetDefault("log.file.path", "/var/log/ipw/ipw.log")
	v.SetDefault("log.file.max_size_mb", 100)
	v.SetDefault("log.file.max_age_days", 30)
	v.SetDefault("log.file.max_backups", 5)
	v.SetDefault("log.file.compress", true)
}

const (
	// Smallest buffer that holds an ARP reply frame.
	minCapacity = 42
	maxCapacity = 65535
)

// ValidateAndApplyDefaults rejects out-of-range values with
// core.ErrConfigInvalid.
func (cfg *Config) ValidateAndApplyDefaults() error {
	invalid := func(format string, args ...interface{}) error {
		return errors.Wrapf(core.ErrConfigInvalid, format, args...)
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	if !validLevels[cfg.Log.Level] {
		return invalid("log level %q (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.File.Enabled && cfg.Log.File.Path == "" {
		return invalid("log.file.path is required when log.file.enabled=true")
	}

	if cfg.Capture.Capacity < minCapacity || cfg.Capture.Capacity > maxCapacity {
		return invalid("capture.capacity %d (must be %d..%d)", cfg.Capture.Capacity, minCapacity, maxCapacity)
	}

	if cfg.ARP.Timeout < 0 {
		return invalid("arp.timeout %s", cfg.ARP.Timeout)
	}
	if cfg.ARP.Retries < 0 {
		return invalid("arp.retries %d", cfg.ARP.Retries)
	}
	if cfg.ARP.SourceIP.IsValid() && !cfg.ARP.SourceIP.Is4() {
		return invalid("arp.source_ip %s is not IPv4", cfg.ARP.SourceIP)
	}

	if cfg.Send.TTL == 0 {
		return invalid("send.ttl must be positive")
	}
	if cfg.Send.Radix < 2 || cfg.Send.Radix > 36 {
		return invalid("send.radix %d (must be 2..36)", cfg.Send.Radix)
	}
	if cfg.Send.SourceIP.IsValid() && !cfg.Send.SourceIP.Is4() {
		return invalid("send.source_ip %s is not IPv4", cfg.Send.SourceIP)
	}

	cfg.Filter.Output = strings.ToLower(cfg.Filter.Output)
	if cfg.Filter.Output != "text" && cfg.Filter.Output != "yaml" {
		return invalid("filter.output %q (must be text/yaml)", cfg.Filter.Output)
	}
	return nil
}
