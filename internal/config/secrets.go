package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Secrets are the TDLib application credentials.
type Secrets struct {
	APIID   int32
	APIHash string
}

// LoadSecrets reads api_id and api_hash from dir. When cfg has no account,
// it is taken from the username file in the same directory.
func LoadSecrets(dir string, cfg *Config) (Secrets, error) {
	rawID, err := readSecret(dir, "api_id")
	if err != nil {
		return Secrets{}, err
	}
	id, err := strconv.ParseInt(rawID, 10, 32)
	if err != nil {
		return Secrets{}, fmt.Errorf("invalid api_id: %w", err)
	}

	hash, err := readSecret(dir, "api_hash")
	if err != nil {
		return Secrets{}, err
	}

	if strings.TrimSpace(cfg.Account) == "" {
		username, err := readSecret(dir, "username")
		if err != nil {
			return Secrets{}, err
		}
		cfg.Account = username
	}

	return Secrets{APIID: int32(id), APIHash: hash}, nil
}

func readSecret(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("read secret %s: %w", name, err)
	}
	value := strings.TrimSpace(string(data))
	if value == "" {
		return "", fmt.Errorf("secret %s is empty", name)
	}
	return value, nil
}
