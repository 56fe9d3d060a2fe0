package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Global configuration structure. It is read at startup and never written.
type Global struct {
	// Preview grid
	PreviewRows int `mapstructure:"preview_rows" yaml:"preview_rows"`
	PreviewCols int `mapstructure:"preview_cols" yaml:"preview_cols"`

	// Charts
	HistogramBins int `mapstructure:"histogram_bins" yaml:"histogram_bins"`
	ChartWidth    int `mapstructure:"chart_width" yaml:"chart_width"`
	ChartHeight   int `mapstructure:"chart_height" yaml:"chart_height"`

	// Main window
	WindowWidth  int `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int `mapstructure:"window_height" yaml:"window_height"`

	LogLevel string `mapstructure:"log_level" yaml:"log_level"`
	LogDir   string `mapstructure:"log_dir" yaml:"log_dir"`
}

// Default returns the built-in configuration.
func Default() *Global {
	return &Global{
		PreviewRows:   10,
		PreviewCols:   5,
		HistogramBins: 20,
		ChartWidth:    800,
		ChartHeight:   600,
		WindowWidth:   850,
		WindowHeight:  600,
		LogLevel:      "warn",
	}
}

// Dir returns ~/.datalens.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".datalens"), nil
}

// Load loads configuration from file, env, and defaults.
// Precedence: env > config file > defaults. A missing config file is not an
// error; a malformed one is.
func Load(cfgFile string) (*Global, error) {
	v := viper.New()
	v.SetEnvPrefix("DATALENS")
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("preview_rows", d.PreviewRows)
	v.SetDefault("preview_cols", d.PreviewCols)
	v.SetDefault("histogram_bins", d.HistogramBins)
	v.SetDefault("chart_width", d.ChartWidth)
	v.SetDefault("chart_height", d.ChartHeight)
	v.SetDefault("window_width", d.WindowWidth)
	v.SetDefault("window_height", d.WindowHeight)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_dir", d.LogDir)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
		}
	} else {
		dir, err := Dir()
		if err != nil {
			return nil, err
		}
		v.AddConfigPath(dir)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var c Global
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate rejects sizes that cannot produce a preview or chart.
func (c *Global) Validate() error {
	checks := []struct {
		key string
		val int
	}{
		{"preview_rows", c.PreviewRows},
		{"preview_cols", c.PreviewCols},
		{"histogram_bins", c.HistogramBins},
		{"chart_width", c.ChartWidth},
		{"chart_height", c.ChartHeight},
		{"window_width", c.WindowWidth},
		{"window_height", c.WindowHeight},
	}
	for _, ch := range checks {
		if ch.val <= 0 {
			return fmt.Errorf("invalid %s: %d (must be positive)", ch.key, ch.val)
		}
	}
	return nil
}

// YAML renders the effective configuration.
func (c *Global) YAML() ([]byte, error) {
	b, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}
	return b, nil
}
