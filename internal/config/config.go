package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/viper"
)

const (
	MinFields = 1
	MaxFields = 12

	VerifySimulated = "simulated"
	VerifyExpected  = "expected"
)

// Config holds application configuration.
type Config struct {
	Field    FieldConfig    `mapstructure:"field" toml:"field"`
	Verify   VerifyConfig   `mapstructure:"verify" toml:"verify"`
	Database DatabaseConfig `mapstructure:"database" toml:"database"`
	Log      LogConfig      `mapstructure:"log" toml:"log"`
	Inbox    InboxConfig    `mapstructure:"inbox" toml:"inbox"`
}

// FieldConfig shapes the OTP field.
type FieldConfig struct {
	NumberOfFields int  `mapstructure:"number_of_fields" toml:"number_of_fields"`
	MinimumSpacing int  `mapstructure:"minimum_spacing" toml:"minimum_spacing"`
	HideIfFilled   bool `mapstructure:"hide_if_filled" toml:"hide_if_filled"`
}

// VerifyConfig selects how filled codes are checked.
type VerifyConfig struct {
	Mode         string        `mapstructure:"mode" toml:"mode"`
	Delay        time.Duration `mapstructure:"delay" toml:"delay"`
	ExpectedCode string        `mapstructure:"expected_code" toml:"expected_code"`
	Retention    time.Duration `mapstructure:"retention" toml:"retention"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path" toml:"path"`
}

// LogConfig holds logger settings. An empty File disables logging.
type LogConfig struct {
	Level  string `mapstructure:"level" toml:"level"`
	Format string `mapstructure:"format" toml:"format"`
	File   string `mapstructure:"file" toml:"file"`
}

// InboxConfig points at the file incoming SMS bodies are written to.
type InboxConfig struct {
	Enabled bool   `mapstructure:"enabled" toml:"enabled"`
	Path    string `mapstructure:"path" toml:"path"`
	Demo    bool   `mapstructure:"demo" toml:"demo"`
}

// Load reads configuration from file and env. Env var overrides use prefix OTPFIELD_.
func Load() (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("OTPFIELD_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(configDir())
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("OTPFIELD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	home := os.Getenv("HOME")
	v.SetDefault("field.number_of_fields", 4)
	v.SetDefault("field.minimum_spacing", 1)
	v.SetDefault("field.hide_if_filled", true)
	v.SetDefault("verify.mode", VerifySimulated)
	v.SetDefault("verify.delay", 1500*time.Millisecond)
	v.SetDefault("verify.expected_code", "")
	v.SetDefault("verify.retention", 30*24*time.Hour)
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "otpfield", "otpfield.db"))
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", filepath.Join(stateDir(), "otpfield.log"))
	v.SetDefault("inbox.enabled", true)
	v.SetDefault("inbox.path", filepath.Join(home, ".local", "share", "otpfield", "inbox.txt"))
	v.SetDefault("inbox.demo", false)
}

// Validate checks value ranges. All problems are reported together.
func (c Config) Validate() error {
	var errs []error
	if c.Field.NumberOfFields < MinFields || c.Field.NumberOfFields > MaxFields {
		errs = append(errs, fmt.Errorf("field.number_of_fields must be between %d and %d, got %d",
			MinFields, MaxFields, c.Field.NumberOfFields))
	}
	if c.Field.MinimumSpacing < 0 {
		errs = append(errs, fmt.Errorf("field.minimum_spacing must not be negative"))
	}
	switch c.Verify.Mode {
	case VerifySimulated:
	case VerifyExpected:
		if !allDigits(c.Verify.ExpectedCode) {
			errs = append(errs, fmt.Errorf("verify.expected_code must be digits, got %q", c.Verify.ExpectedCode))
		}
	default:
		errs = append(errs, fmt.Errorf("verify.mode must be %q or %q, got %q", VerifySimulated, VerifyExpected, c.Verify.Mode))
	}
	if c.Verify.Delay < 0 {
		errs = append(errs, fmt.Errorf("verify.delay must not be negative"))
	}
	if c.Database.Path == "" {
		errs = append(errs, fmt.Errorf("database.path is required"))
	}
	if c.Inbox.Enabled && c.Inbox.Path == "" {
		errs = append(errs, fmt.Errorf("inbox.path is required when the inbox is enabled"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Save writes the provided config as TOML, creating the config directory if needed.
func Save(cfg Config) error {
	path := os.Getenv("OTPFIELD_CONFIG")
	if path == "" {
		path = filepath.Join(configDir(), "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create config: %w", err)
	}
	if err := toml.NewEncoder(f).Encode(cfg); err != nil {
		f.Close()
		return fmt.Errorf("encode config: %w", err)
	}
	return f.Close()
}

func configDir() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "otpfield")
}

// stateDir follows XDG_STATE_HOME for log files.
func stateDir() string {
	if dir := os.Getenv("XDG_STATE_HOME"); dir != "" {
		return filepath.Join(dir, "otpfield")
	}
	return filepath.Join(os.Getenv("HOME"), ".local", "state", "otpfield")
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
