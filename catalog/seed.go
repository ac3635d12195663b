package catalog

import (
	"os"

	"github.com/pkg/errors"
	"sigs.k8s.io/yaml"

	"github.com/cloudfoundry-community/mockbroker"
)

// LoadFile reads a seed catalog document from disk. The file holds
// {"services": [...]} and may be JSON or YAML; YAML is converted through the
// JSON tags, so both spellings describe the same catalog.
func LoadFile(path string) ([]mockbroker.Service, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading catalog file %s", path)
	}

	var document struct {
		Services []mockbroker.Service `json:"services"`
	}
	if err := yaml.Unmarshal(raw, &document); err != nil {
		return nil, errors.Wrapf(err, "parsing catalog file %s", path)
	}

	if len(document.Services) == 0 {
		return nil, errors.Errorf("catalog file %s contains no services", path)
	}
	return document.Services, nil
}
