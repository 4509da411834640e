// Package keyring loads Kraken API credentials from key files or the environment.
package keyring

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"krakenex/pkg/core"
)

const (
	// DefaultFile is the key file looked up when only a directory is given.
	DefaultFile = "kraken.key"

	EnvKey    = "KRAKEN_API_KEY"
	EnvSecret = "KRAKEN_API_SECRET"
)

var ErrIncomplete = errors.New("api key and secret are both required")

type APIKey struct {
	Key    string
	Secret string
}

// Load reads a key file made of "key = ..." and "secret = ..." lines.
// When path is a directory the file DefaultFile inside it is read.
func Load(path string) (*APIKey, error) {
	if path == "" {
		path = DefaultFile
	}
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, DefaultFile)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open key file: %w", err)
	}
	defer f.Close()

	k := &APIKey{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		name, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "key":
			k.Key = strings.TrimSpace(value)
		case "secret":
			k.Secret = strings.TrimSpace(value)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}

	if err := k.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return k, nil
}

// FromEnv reads KRAKEN_API_KEY and KRAKEN_API_SECRET. It returns nil, nil
// when neither is set.
func FromEnv() (*APIKey, error) {
	k := &APIKey{
		Key:    strings.TrimSpace(os.Getenv(EnvKey)),
		Secret: strings.TrimSpace(os.Getenv(EnvSecret)),
	}
	if k.Key == "" && k.Secret == "" {
		return nil, nil
	}
	if err := k.Validate(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	return k, nil
}

func (k *APIKey) Validate() error {
	if k.Key == "" || k.Secret == "" {
		return ErrIncomplete
	}
	if _, err := base64.StdEncoding.DecodeString(k.Secret); err != nil {
		return fmt.Errorf("secret is not valid base64: %w", err)
	}
	return nil
}

func (k *APIKey) Credentials() *core.Credentials {
	return &core.Credentials{APIKey: k.Key, SecretKey: k.Secret}
}

func (k *APIKey) String() string {
	return fmt.Sprintf("APIKey{Key:%s, Secret:****}", maskKey(k.Key))
}

func maskKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "****" + key[len(key)-4:]
}
