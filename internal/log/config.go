package log

const (
	defaultPattern = "%time [%level] %msg %field\n"
	defaultTime    = "2006-01-02 15:04:05.000"
)

// Config selects level, layout and outputs of the logger.
type Config struct {
	Level   string     `mapstructure:"level" yaml:"level"`
	Pattern string     `mapstructure:"pattern" yaml:"pattern"`
	Time    string     `mapstructure:"time" yaml:"time"`
	Caller  bool       `mapstructure:"caller" yaml:"caller"`
	File    FileConfig `mapstructure:"file" yaml:"file"`
}

// FileConfig configures the rotating file appender.
type FileConfig struct {
	Enabled    bool   `mapstructure:"enabled" yaml:"enabled"`
	Path       string `mapstructure:"path" yaml:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

func DefaultConfig() Config {
	return Config{
		Level:   "info",
		Pattern: defaultPattern,
		Time:    defaultTime,
	}
}
