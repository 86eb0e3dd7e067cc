package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/codefionn/codeflink/internal/consts"
)

// OpenAIConfig holds the OpenAI provider settings
type OpenAIConfig struct {
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

// Config represents application configuration
type Config struct {
	Model        string       `json:"model"`
	Temperature  float64      `json:"temperature"`
	MaxTokens    int          `json:"max_tokens,omitempty"`
	DatabasePath string       `json:"database_path"`
	LogLevel     string       `json:"log_level"` // debug, info, warn, error, none
	LogPath      string       `json:"log_path"`
	OpenAI       OpenAIConfig `json:"openai"`
}

func defaultConfigDir() string {
	switch runtime.GOOS {
	case "windows":
		if appData := strings.TrimSpace(os.Getenv("APPDATA")); appData != "" {
			return filepath.Join(appData, "codeflink")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Roaming", "codeflink")
	default:
		if configHome := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); configHome != "" {
			return filepath.Join(configHome, "codeflink")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".config", "codeflink")
	}
}

func defaultStateDir() string {
	switch runtime.GOOS {
	case "windows":
		if localAppData := strings.TrimSpace(os.Getenv("LOCALAPPDATA")); localAppData != "" {
			return filepath.Join(localAppData, "codeflink")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, "AppData", "Local", "codeflink")
	default:
		if stateHome := strings.TrimSpace(os.Getenv("XDG_STATE_HOME")); stateHome != "" {
			return filepath.Join(stateHome, "codeflink")
		}
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, ".local", "state", "codeflink")
	}
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	stateDir := defaultStateDir()

	return &Config{
		Model:        consts.DefaultModel,
		Temperature:  consts.DefaultTemperature,
		MaxTokens:    consts.DefaultMaxTokens,
		DatabasePath: filepath.Join(stateDir, "codeflink.db"),
		LogLevel:     "info",
		LogPath:      filepath.Join(stateDir, "codeflink.log"),
	}
}

// Load loads configuration from file, falling back to defaults for missing
// fields. Environment variables override the file afterwards.
func Load(path string) (*Config, error) {
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			config.applyEnvOverrides()
			return config, nil
		}
		return nil, err
	}

	if err := json.Unmarshal(data, config); err != nil {
		return nil, err
	}

	if config.Model == "" {
		config.Model = consts.DefaultModel
	}
	if config.DatabasePath == "" {
		config.DatabasePath = filepath.Join(defaultStateDir(), "codeflink.db")
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.LogPath == "" {
		config.LogPath = filepath.Join(defaultStateDir(), "codeflink.log")
	}

	config.applyEnvOverrides()
	return config, nil
}

func (c *Config) applyEnvOverrides() {
	if key := strings.TrimSpace(os.Getenv("OPENAI_API_KEY")); key != "" {
		c.OpenAI.APIKey = key
	}
	if level := strings.TrimSpace(os.Getenv("CODEFLINK_LOG_LEVEL")); level != "" {
		c.LogLevel = level
	}
	if path := strings.TrimSpace(os.Getenv("CODEFLINK_LOG_PATH")); path != "" {
		c.LogPath = path
	}
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// GetConfigPath returns the default config path
func GetConfigPath() string {
	return filepath.Join(defaultConfigDir(), "config.json")
}
