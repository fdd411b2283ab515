package model

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Image is catalog metadata for a deployable container image. The
// JSON field names are the storage/wire format shared with the node
// daemon's create request.
type Image struct {
	Name        string            `json:"Name" yaml:"name"`
	Image       string            `json:"Image" yaml:"image"`
	Env         map[string]string `json:"Env,omitempty" yaml:"env,omitempty"`
	Scripts     *ImageScripts     `json:"Scripts,omitempty" yaml:"scripts,omitempty"`
	AltImages   []string          `json:"AltImages,omitempty" yaml:"altImages,omitempty"`
	StopCommand string            `json:"StopCommand,omitempty" yaml:"stopCommand,omitempty"`
}

// ImageScripts holds the install steps a node runs when provisioning
// a volume for this image.
type ImageScripts struct {
	Install []InstallStep `json:"Install,omitempty" yaml:"install,omitempty"`
}

type InstallStep struct {
	URI  string `json:"Uri" yaml:"uri"`
	Path string `json:"Path" yaml:"path"`
}

// LoadImages reads an image catalog seed file.
func LoadImages(path string) ([]Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read images file: %w", err)
	}
	var images []Image
	if err := yaml.Unmarshal(data, &images); err != nil {
		return nil, fmt.Errorf("parse images file: %w", err)
	}
	return images, nil
}
