package config

import (
	"os"
	"path/filepath"
)

const (
	defaultConfigDirName = "vvs"
	defaultConfigFile    = "config.yaml"
	defaultTokenFile     = "token.json"
)

func DefaultConfigPath() string {
	if env := os.Getenv("VVS_CONFIG"); env != "" {
		return env
	}
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultConfigFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vvs", defaultConfigFile)
}

func DefaultTokenPath() string {
	base, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(base, defaultConfigDirName, defaultTokenFile)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".vvs", defaultTokenFile)
}
