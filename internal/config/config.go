// Package config loads the daemon TOML configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ServerConfig configures the sockctld runtime. Absent fields keep their
// defaults; the admin HTTP surface stays disabled unless admin_addr is set.
type ServerConfig struct {
	Name          string   `toml:"name"`
	SocketPath    string   `toml:"socket_path"`
	AdminAddr     string   `toml:"admin_addr"`
	CorsOrigins   []string `toml:"cors_origins"`
	MaxLineBytes  int      `toml:"max_line_bytes"`
	ShutdownGrace string   `toml:"shutdown_grace"`
}

func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Name:          "sockctld",
		SocketPath:    "/tmp/sockctld.sock",
		MaxLineBytes:  1 << 20,
		ShutdownGrace: "5s",
	}
}

func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ServerConfig{}, err
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("server config missing name")
	}
	if strings.TrimSpace(cfg.SocketPath) == "" {
		return fmt.Errorf("server config missing socket_path")
	}
	if cfg.MaxLineBytes <= 0 {
		return fmt.Errorf("server config max_line_bytes must be positive")
	}
	if _, err := cfg.ShutdownGraceDuration(); err != nil {
		return err
	}
	return nil
}

// ShutdownGraceDuration parses the shutdown_grace field.
func (c ServerConfig) ShutdownGraceDuration() (time.Duration, error) {
	raw := strings.TrimSpace(c.ShutdownGrace)
	if raw == "" {
		return 5 * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("server config shutdown_grace: %w", err)
	}
	return d, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}
