package config

import (
	"log"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/viper"

	"billpress/internal/common"
)

// Config holds application configuration
type Config struct {
	WorkingDir   string
	AppDataDir   string
	DatabasePath string
	LogDir       string

	// Compression defaults, overridable via billpress.yaml and, in the GUI,
	// by persisted user preferences.
	TargetKB   int
	MinQuality int
	MinScale   float64
}

// New creates a new configuration instance
func New() *Config {
	cfg := &Config{
		TargetKB:   common.DefaultTargetKB,
		MinQuality: 25,
		MinScale:   0.3,
	}

	cfg.setupDirectories()
	cfg.loadFile()

	return cfg
}

// TargetBytes returns the per-file budget in bytes.
func (c *Config) TargetBytes() int64 {
	return int64(c.TargetKB) * 1024
}

func (c *Config) setupDirectories() {
	// Working directory (temp files)
	c.WorkingDir = filepath.Join(os.TempDir(), "billpress")
	os.MkdirAll(c.WorkingDir, common.DefaultFilePermissions)

	// App data directory (database, settings, logs)
	c.AppDataDir = getAppDataDir()
	os.MkdirAll(c.AppDataDir, common.DefaultFilePermissions)

	c.DatabasePath = filepath.Join(c.AppDataDir, "database.sqlite3")
	c.LogDir = filepath.Join(c.AppDataDir, "logs")
	os.MkdirAll(c.LogDir, common.DefaultFilePermissions)
}

// loadFile overlays optional billpress.yaml settings from the app data
// directory or the current directory.
func (c *Config) loadFile() {
	v := viper.New()
	v.SetConfigName("billpress")
	v.SetConfigType("yaml")
	v.AddConfigPath(c.AppDataDir)
	v.AddConfigPath(".")

	v.SetDefault("target_kb", c.TargetKB)
	v.SetDefault("min_quality", c.MinQuality)
	v.SetDefault("min_scale", c.MinScale)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("Failed to read config file: %v", err)
		}
		return
	}

	c.TargetKB = v.GetInt("target_kb")
	c.MinQuality = v.GetInt("min_quality")
	c.MinScale = v.GetFloat64("min_scale")
}

func getAppDataDir() string {
	homeDir, _ := os.UserHomeDir()
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir, "Library", "Application Support", "BillPress")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "BillPress")
		}
		return filepath.Join(homeDir, "BillPress")
	default:
		return filepath.Join(homeDir, ".config", "billpress")
	}
}
