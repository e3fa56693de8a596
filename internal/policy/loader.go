package policy

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/grokify/releasetrain/pkg/model"
)

// LoadTrainFile loads a release train definition from a YAML file.
func LoadTrainFile(path string) (*model.TrainConfig, error) {
	cleanPath := filepath.Clean(path)
	data, err := os.ReadFile(cleanPath) // #nosec G304
	if err != nil {
		return nil, fmt.Errorf("failed to read train file: %w", err)
	}

	train, err := LoadTrainFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse train file %s: %w", cleanPath, err)
	}
	return train, nil
}

// LoadTrainFromBytes loads a release train definition from YAML bytes.
func LoadTrainFromBytes(data []byte) (*model.TrainConfig, error) {
	var train model.TrainConfig
	if err := yaml.Unmarshal(data, &train); err != nil {
		return nil, fmt.Errorf("failed to parse train: %w", err)
	}
	if train.Mode != "" {
		if _, err := ParseMode(train.Mode); err != nil {
			return nil, err
		}
	}
	return &train, nil
}

// SaveTrainFile saves a release train definition to a YAML file.
func SaveTrainFile(train *model.TrainConfig, path string) error {
	data, err := yaml.Marshal(train)
	if err != nil {
		return fmt.Errorf("failed to marshal train: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write train file: %w", err)
	}

	return nil
}
