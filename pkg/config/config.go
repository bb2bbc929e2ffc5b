package config

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the YAML server configuration. Environment variables with
// the FORUMSYNC_ prefix override file values; explicit flags win over
// both (resolved in ParseCommandFlags/LoadEffective).
type Config struct {
	Server struct {
		Address string `yaml:"address"`
		Port    int    `yaml:"port"`
		TLS     struct {
			CertFile string `yaml:"cert_file"`
			KeyFile  string `yaml:"key_file"`
		} `yaml:"tls"`
	} `yaml:"server"`
	Storage struct {
		DBPath string `yaml:"db_path"`
	} `yaml:"storage"`
	Security struct {
		APIKeys struct {
			Backend  []string `yaml:"backend"`
			Frontend []string `yaml:"frontend"`
			Admin    []string `yaml:"admin"`
		} `yaml:"api_keys"`
		SigningKeys []string `yaml:"signing_keys"`
		CORS        struct {
			AllowedOrigins []string `yaml:"allowed_origins"`
		} `yaml:"cors"`
		RateLimit struct {
			RPS   float64 `yaml:"rps"`
			Burst int     `yaml:"burst"`
		} `yaml:"rate_limit"`
		IPWhitelist []string `yaml:"ip_whitelist"`
	} `yaml:"security"`
	Forum struct {
		Emojis           []string      `yaml:"emojis"`
		MaxContentLength int           `yaml:"max_content_length"`
		PollInterval     time.Duration `yaml:"poll_interval"`
	} `yaml:"forum"`
	Logging struct {
		Level    string `yaml:"level"`
		AuditDir string `yaml:"audit_dir"`
	} `yaml:"logging"`
	Maintenance struct {
		Enabled bool   `yaml:"enabled"`
		Cron    string `yaml:"cron"`
	} `yaml:"maintenance"`
}

// Addr returns the listen address in host:port form.
func (c *Config) Addr() string {
	host := c.Server.Address
	port := c.Server.Port
	if port == 0 {
		port = 8080
	}
	return net.JoinHostPort(host, strconv.Itoa(port))
}

// Load reads and parses the YAML config file at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &c, nil
}

// ParseCommandFlags parses the server's command-line flags and reports
// which were explicitly set, so callers can give them precedence.
func ParseCommandFlags() (addr, dbPath, cfgPath string, set map[string]bool) {
	a := flag.String("addr", ":8080", "listen address")
	d := flag.String("db", "./data", "pebble database path")
	c := flag.String("config", "", "path to YAML config file")
	flag.Parse()
	set = map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return *a, *d, *c, set
}

// ResolveConfigPath picks the config file path: explicit flag wins, then
// FORUMSYNC_CONFIG, then the conventional ./forumsync.yaml if present.
func ResolveConfigPath(flagVal string, flagSet bool) string {
	if flagSet && flagVal != "" {
		return flagVal
	}
	if p := os.Getenv("FORUMSYNC_CONFIG"); p != "" {
		return p
	}
	if _, err := os.Stat("./forumsync.yaml"); err == nil {
		return "./forumsync.yaml"
	}
	return flagVal
}

// LoadEffective loads the config file (when present) and applies
// environment overrides. It reports whether any env override was used.
func LoadEffective(path string) (*Config, bool, error) {
	cfg := &Config{}
	if path != "" {
		if loaded, err := Load(path); err == nil {
			cfg = loaded
		} else if !os.IsNotExist(err) {
			return nil, false, err
		}
	}
	envUsed := false
	if v := os.Getenv("FORUMSYNC_SERVER_ADDRESS"); v != "" {
		cfg.Server.Address = v
		envUsed = true
	}
	if v := os.Getenv("FORUMSYNC_SERVER_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = p
			envUsed = true
		}
	}
	if v := os.Getenv("FORUMSYNC_DB_PATH"); v != "" {
		cfg.Storage.DBPath = v
		envUsed = true
	}
	if v := os.Getenv("FORUMSYNC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
		envUsed = true
	}
	if v := os.Getenv("FORUMSYNC_AUDIT_DIR"); v != "" {
		cfg.Logging.AuditDir = v
		envUsed = true
	}
	if v := os.Getenv("FORUMSYNC_BACKEND_KEYS"); v != "" {
		cfg.Security.APIKeys.Backend = splitCSV(v)
		envUsed = true
	}
	if v := os.Getenv("FORUMSYNC_FRONTEND_KEYS"); v != "" {
		cfg.Security.APIKeys.Frontend = splitCSV(v)
		envUsed = true
	}
	if v := os.Getenv("FORUMSYNC_ADMIN_KEYS"); v != "" {
		cfg.Security.APIKeys.Admin = splitCSV(v)
		envUsed = true
	}
	if v := os.Getenv("FORUMSYNC_SIGNING_KEYS"); v != "" {
		cfg.Security.SigningKeys = splitCSV(v)
		envUsed = true
	}
	if v := os.Getenv("FORUMSYNC_MAINTENANCE_CRON"); v != "" {
		cfg.Maintenance.Enabled = true
		cfg.Maintenance.Cron = v
		envUsed = true
	}
	return cfg, envUsed, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}
