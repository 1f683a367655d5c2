package config

import (
	"os"
	"path/filepath"
)

func defaultChatDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "mmr")
	}
	return filepath.Join(os.TempDir(), "mmr")
}
