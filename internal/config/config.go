package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yosuke-furukawa/json5/encoding/json5"
)

const (
	DirName        = "heyjobs"
	ConfigFileName = "config.json"
	DBFileName     = "heyjobs.db"
	LogDirName     = "logs"

	DefaultTargetURL = "https://jobs.heyjobs.co/en-de/jobs-in-Berlin?page=1"
)

// Config contains run settings. Empty paths are filled in from the data
// directory by Resolve.
type Config struct {
	TargetURL      string `json:"target_url"`
	DBPath         string `json:"db_path"`
	LogDir         string `json:"log_dir"`
	Proxy          string `json:"proxy,omitempty"`
	UserAgent      string `json:"user_agent,omitempty"`
	TimeoutSeconds int    `json:"timeout_seconds"`
	StrictExit     bool   `json:"strict_exit"`
}

func DefaultConfig() Config {
	return Config{TargetURL: DefaultTargetURL}.applyEnv()
}

// applyEnv overrides fields with any HEYJOBS_* variables that are set.
func (c Config) applyEnv() Config {
	c.TargetURL = envString("HEYJOBS_URL", c.TargetURL)
	c.DBPath = envString("HEYJOBS_DB", c.DBPath)
	c.LogDir = envString("HEYJOBS_LOG_DIR", c.LogDir)
	c.Proxy = envString("HEYJOBS_PROXY", c.Proxy)
	c.UserAgent = envString("HEYJOBS_USER_AGENT", c.UserAgent)
	c.TimeoutSeconds = envInt("HEYJOBS_TIMEOUT", c.TimeoutSeconds)
	c.StrictExit = envBool("HEYJOBS_STRICT_EXIT", c.StrictExit)
	return c
}

func ConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, DirName), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// DataDir is where the database and logs live unless configured otherwise.
func DataDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("XDG_DATA_HOME")); dir != "" {
		return filepath.Join(dir, DirName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".local", "share", DirName), nil
}

func Load() (Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return DefaultConfig(), err
	}
	return LoadFile(path)
}

// LoadFile reads a json5 config file over the defaults. A missing or empty
// file yields the defaults. HEYJOBS_* variables win over file values.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return cfg, nil
	}

	if err := json5.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}

	return cfg.applyEnv(), nil
}

// Resolve fills empty paths relative to dataDir.
func (c Config) Resolve(dataDir string) Config {
	if strings.TrimSpace(c.DBPath) == "" {
		c.DBPath = filepath.Join(dataDir, DBFileName)
	}
	if strings.TrimSpace(c.LogDir) == "" {
		c.LogDir = filepath.Join(dataDir, LogDirName)
	}
	if strings.TrimSpace(c.TargetURL) == "" {
		c.TargetURL = DefaultTargetURL
	}
	if c.TimeoutSeconds < 0 {
		c.TimeoutSeconds = 0
	}
	return c
}

// InitDir writes a default config.json into dir if it doesn't already exist.
func InitDir(dir string) ([]string, error) {
	var created []string

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return created, err
	}

	configPath := filepath.Join(dir, ConfigFileName)
	if _, err := os.Stat(configPath); errors.Is(err, os.ErrNotExist) {
		if err := writeConfig(configPath, DefaultConfig()); err != nil {
			return created, err
		}
		created = append(created, configPath)
	}

	return created, nil
}

func writeConfig(path string, cfg Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

func envString(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func envInt(key string, fallback int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
