package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDir       = "toolrent"
	sessionFile  = "session.json"
	blockedFile  = "local_blocked_ranges_v3.json"
	rentalsFile  = "rentals.db"
	configFile   = "config.yaml"
	configDirEnv = "TOOLRENT_CONFIG_DIR"
)

// ConfigDir is $TOOLRENT_CONFIG_DIR, or ~/.config/toolrent.
func ConfigDir() (string, error) {
	if dir := os.Getenv(configDirEnv); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appDir), nil
}

func SessionPath() (string, error) {
	return pathIn(sessionFile)
}

func BlockedRangesPath() (string, error) {
	return pathIn(blockedFile)
}

func RentalsPath() (string, error) {
	return pathIn(rentalsFile)
}

func ConfigPath() (string, error) {
	return pathIn(configFile)
}

func pathIn(name string) (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, name), nil
}

func ensureConfigDir() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// readJSON decodes path into dest. found is false when the file does not exist.
func readJSON(path string, dest any) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s is a directory", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	if err := json.NewDecoder(file).Decode(dest); err != nil {
		return true, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

// writeJSON replaces path atomically so a crash never leaves half a file behind.
func writeJSON(path string, v any, perm os.FileMode) error {
	if _, err := ensureConfigDir(); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	encoder := json.NewEncoder(tmp)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func removeFile(path string) error {
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return nil
}
