package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/CloudNativeWorks/etlctl/pkg/logger"
	"github.com/CloudNativeWorks/etlctl/pkg/models"
)

// Config holds all application configuration
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Paths    PathsConfig    `mapstructure:"paths"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Maps     MapsConfig     `mapstructure:"maps"`
	Firewall FirewallConfig `mapstructure:"firewall"`
	Server   ServerConfig   `mapstructure:"server"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	Console    bool   `mapstructure:"console"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// PathsConfig holds host locations the tool reads and writes
type PathsConfig struct {
	UnitDir     string `mapstructure:"unit_dir"`
	DownloadDir string `mapstructure:"download_dir"`
	InstallRoot string `mapstructure:"install_root"`
	VsftpdConf  string `mapstructure:"vsftpd_conf"`
	SshdConf    string `mapstructure:"sshd_conf"`
}

// CatalogConfig holds release discovery settings
type CatalogConfig struct {
	StableURL      string        `mapstructure:"stable_url"`
	DevelopmentURL string        `mapstructure:"development_url"`
	DevLimit       int           `mapstructure:"dev_limit"`
	Timeout        time.Duration `mapstructure:"timeout"`
	MaxRetryTime   time.Duration `mapstructure:"max_retry_time"`
}

// MapsConfig holds the map mirror settings
type MapsConfig struct {
	MirrorURL string  `mapstructure:"mirror_url"`
	Rate      float64 `mapstructure:"rate"`
	Burst     int     `mapstructure:"burst"`
}

// FirewallConfig selects the packet filter backend
type FirewallConfig struct {
	Backend    string `mapstructure:"backend"`
	AutoEnable bool   `mapstructure:"auto_enable"`
}

// ServerConfig holds settings shared by every installed instance
type ServerConfig struct {
	Group         string        `mapstructure:"group"`
	RestartTime   string        `mapstructure:"restart_time"`
	StartWait     time.Duration `mapstructure:"start_wait"`
	Packages      []string      `mapstructure:"packages"`
	KeepArtifacts bool          `mapstructure:"keep_artifacts"`
	Editor        string        `mapstructure:"editor"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")
	v.SetDefault("logging.file", logger.DefaultLogPath)
	v.SetDefault("logging.console", false)
	v.SetDefault("logging.max_size", 10)
	v.SetDefault("logging.max_age", 30)
	v.SetDefault("logging.max_backups", 3)
	v.SetDefault("logging.compress", true)

	v.SetDefault("paths.unit_dir", models.SystemdPath)
	v.SetDefault("paths.download_dir", models.DownloadPath)
	v.SetDefault("paths.install_root", models.DefaultInstall)
	v.SetDefault("paths.vsftpd_conf", models.VsftpdConfPath)
	v.SetDefault("paths.sshd_conf", models.SshdConfPath)

	v.SetDefault("catalog.stable_url", "https://www.etlegacy.com/download")
	v.SetDefault("catalog.development_url", "https://www.etlegacy.com/workflow-files")
	v.SetDefault("catalog.dev_limit", 4)
	v.SetDefault("catalog.timeout", "30s")
	v.SetDefault("catalog.max_retry_time", "20s")

	v.SetDefault("maps.mirror_url", "http://moestavern.site.nfoservers.com/downloads/et/etmain/")
	v.SetDefault("maps.rate", 2.0)
	v.SetDefault("maps.burst", 1)

	v.SetDefault("firewall.backend", "ufw")
	v.SetDefault("firewall.auto_enable", true)

	v.SetDefault("server.group", models.DefaultGroup)
	v.SetDefault("server.restart_time", "05:00:00")
	v.SetDefault("server.start_wait", "10s")
	v.SetDefault("server.packages", []string{"unzip", "wget"})
	v.SetDefault("server.keep_artifacts", true)
	v.SetDefault("server.editor", "nano")
}

// LoadConfig loads configuration from file
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("etlctl")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.etlctl")
		v.AddConfigPath(models.EtlctlPath)
	}

	v.SetEnvPrefix("ETLCTL")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) validate() error {
	switch c.Firewall.Backend {
	case "ufw", "iptables":
	default:
		return fmt.Errorf("unsupported firewall backend %q", c.Firewall.Backend)
	}
	if c.Catalog.DevLimit < 0 {
		return fmt.Errorf("catalog.dev_limit cannot be negative")
	}
	if _, err := time.Parse("15:04:05", c.Server.RestartTime); err != nil {
		return fmt.Errorf("server.restart_time must be HH:MM:SS: %w", err)
	}
	return nil
}

// LoggerConfig converts the logging section for pkg/logger
func (c *Config) LoggerConfig() logger.Config {
	return logger.Config{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		Module:     "main",
		File:       c.Logging.File,
		Console:    c.Logging.Console,
		MaxSize:    c.Logging.MaxSize,
		MaxAge:     c.Logging.MaxAge,
		MaxBackups: c.Logging.MaxBackups,
		Compress:   c.Logging.Compress,
	}
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	v := viper.New()
	setDefaults(v)
	var config Config
	// defaults always decode
	_ = v.Unmarshal(&config)
	return &config
}
