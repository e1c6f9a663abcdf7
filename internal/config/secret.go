package config

import (
	"fmt"
	"os"
	"strings"
)

// ResolveSecret returns a credential from its configured source: "env"
// reads envVar, "config" uses configValue, and "keyring" falls back to env
// until a keyring backend exists.
func ResolveSecret(source, configValue, envVar string) (string, error) {
	switch source {
	case "env", "keyring":
		return secretFromEnv(envVar)
	case "config":
		if strings.TrimSpace(configValue) == "" {
			return "", fmt.Errorf("secret source is \"config\" but no value is configured")
		}
		return configValue, nil
	default:
		return "", fmt.Errorf("unknown secret source %q", source)
	}
}

func secretFromEnv(envVar string) (string, error) {
	if envVar == "" {
		return "", fmt.Errorf("no environment variable name specified")
	}
	val := strings.TrimSpace(os.Getenv(envVar))
	if val == "" {
		return "", fmt.Errorf("environment variable %s is not set", envVar)
	}
	return val, nil
}
