package util

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// DefaultEnvFile is the key/value file loaded at startup when no other path is given.
const DefaultEnvFile = ".env"

// LoadEnvFile populates the process environment from the key/value file at path.
//
// Behavior:
//   - Variables already present in the environment are NOT overwritten.
//   - A missing file is an error; the bot refuses to start without its local config.
//   - A malformed file is an error that names the path.
func LoadEnvFile(path string) error {
	if path == "" {
		path = DefaultEnvFile
	}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("env file %s not found", path)
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("env file %s is a directory", path)
	}

	// godotenv.Load will NOT override variables that are already set.
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
