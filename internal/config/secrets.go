package config

import (
	"fmt"
	"os"
	"strings"
)

// ResolveSecret reads a secret using the *_FILE convention: envName+"_FILE" names a
// file holding the value and takes precedence over envName itself.
func ResolveSecret(envName string) (string, error) {
	fileEnv := envName + "_FILE"
	if path := os.Getenv(fileEnv); path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read secret from %s=%s: %w", fileEnv, path, err)
		}
		return strings.TrimSpace(string(content)), nil
	}
	return os.Getenv(envName), nil
}
