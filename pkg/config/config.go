// Package config loads the demo host settings from an INI file.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/gregLibert/sle4442/internal/syncutil"
	"github.com/rs/zerolog/log"
	"gopkg.in/ini.v1"
)

const (
	AppName = "sle4442"
	PathEnv = "SLE4442_CONFIG"
)

type ReaderConfig struct {
	Name           string `ini:"name"` // empty selects the first reader
	ShareExclusive bool   `ini:"share_exclusive"`
}

type CardConfig struct {
	ExperimentalModifyPIN bool `ini:"experimental_modify_pin"`
	TrustZeroRetryNibble  bool `ini:"trust_zero_retry_nibble"`
}

type LogConfig struct {
	File    string `ini:"file"`
	Debug   bool   `ini:"debug"`
	Console bool   `ini:"console"`
}

type Config struct {
	mu      syncutil.RWMutex
	IniPath string       `ini:"-"`
	Reader  ReaderConfig `ini:"reader"`
	Card    CardConfig   `ini:"card"`
	Log     LogConfig    `ini:"log"`
}

// Default returns the settings written on first run.
func Default() *Config {
	return &Config{
		Log: LogConfig{File: AppName + ".log"},
	}
}

func (c *Config) GetReader() ReaderConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Reader
}

func (c *Config) GetCard() CardConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Card
}

func (c *Config) GetLog() LogConfig {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.Log
}

func (c *Config) SetReaderName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Reader.Name = name
}

func (c *Config) SetDebug(debug bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Log.Debug = debug
}

func (c *Config) Load() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.IniPath == "" {
		return errors.New("config path not set")
	}

	cfg, err := ini.Load(c.IniPath)
	if err != nil {
		return err
	}

	return cfg.StrictMapTo(c)
}

func (c *Config) Save() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.IniPath == "" {
		return errors.New("config path not set")
	}

	cfg := ini.Empty()

	ini.PrettyEqual = true
	ini.PrettyFormat = false

	err := cfg.ReflectFrom(c)
	if err != nil {
		return err
	}

	return cfg.SaveTo(c.IniPath)
}

// New resolves the config file ($SLE4442_CONFIG, or sle4442.ini next to the
// executable) and loads it over defaults. A missing file is created from defaults.
func New(defaults *Config) (*Config, error) {
	iniPath := os.Getenv(PathEnv)
	if iniPath == "" {
		exePath, err := os.Executable()
		if err != nil {
			return defaults, err
		}
		iniPath = filepath.Join(filepath.Dir(exePath), AppName+".ini")
	}
	defaults.IniPath = iniPath

	if _, err := os.Stat(iniPath); errors.Is(err, os.ErrNotExist) {
		log.Info().Str("path", iniPath).Msg("saving new default config to disk")
		if err := defaults.Save(); err != nil {
			return defaults, err
		}
		return defaults, nil
	}

	if err := defaults.Load(); err != nil {
		return defaults, err
	}
	return defaults, nil
}
