package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const configFileHeader = `# Rentory Configuration File
#
# Values here are overridden by RENTORY_* environment variables.
# Example: RENTORY_LOGGING_LEVEL=DEBUG
#
`

// InitConfig writes a config file with all defaults to the default location.
//
// Returns the path of the written file. Refuses to overwrite an existing
// file unless force is true.
func InitConfig(force bool) (string, error) {
	configPath := GetDefaultConfigPath()

	if !force && ConfigExists() {
		return "", fmt.Errorf("config file already exists at %s (use force to overwrite)", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	body, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return "", fmt.Errorf("failed to marshal default config: %w", err)
	}

	content := append([]byte(configFileHeader), body...)
	if err := os.WriteFile(configPath, content, 0o644); err != nil {
		return "", fmt.Errorf("failed to write config file: %w", err)
	}

	return configPath, nil
}
