// Package project loads the project metadata file that names the package
// being assembled and carries the optional external step commands.
package project

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"

	muleerrors "github.com/packmule-io/packmule/pkg/errors"
)

// Metadata is the parsed project metadata file.
//
// Required fields:
// - Name: package name, first component of the output filename
// - Version: package version string
//
// Optional fields:
// - Description: free-form package description
// - Build/Test: command lines for the external build and test steps
type Metadata struct {
	Name        string     `yaml:"name"`
	Version     string     `yaml:"version"`
	Description string     `yaml:"description,omitempty"`
	Build       StepConfig `yaml:"build,omitempty"`
	Test        StepConfig `yaml:"test,omitempty"`
}

// StepConfig configures one external step.
type StepConfig struct {
	Command string `yaml:"command,omitempty"`
}

// Load reads and validates a project metadata file. Missing required fields
// fail here, at load time, rather than at first use.
func Load(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reading project file %s: %v", muleerrors.ErrConfiguration, path, err)
	}

	var meta Metadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("%w: parsing project file %s: %v", muleerrors.ErrConfiguration, path, err)
	}

	if meta.Name == "" {
		return nil, fmt.Errorf("%w: project file %s missing required 'name' field", muleerrors.ErrConfiguration, path)
	}
	if meta.Version == "" {
		return nil, fmt.Errorf("%w: project file %s missing required 'version' field", muleerrors.ErrConfiguration, path)
	}

	return &meta, nil
}
