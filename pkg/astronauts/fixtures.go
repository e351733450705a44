package astronauts

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/agentstation/astronauts/pkg/errors"
)

//go:embed fixtures/astronauts.yaml
var embeddedFixtures []byte

// fixtureFile is the document layout of a seed file.
type fixtureFile struct {
	Astronauts []Astronaut `json:"astronauts" yaml:"astronauts"`
}

// Fixtures returns the embedded seed crew.
func Fixtures() ([]Astronaut, error) {
	return DecodeFixtures(embeddedFixtures, "embedded")
}

// LoadFixtures reads a seed file from disk. YAML and JSON are both accepted;
// the document is either a list of records or an object with an
// "astronauts" list.
func LoadFixtures(path string) ([]Astronaut, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("fixtures", "cannot read seed file "+path, err)
	}
	return DecodeFixtures(data, filepath.Base(path))
}

// DecodeFixtures decodes a seed document. name is used in error messages.
// Every record is validated and ids must be unique.
func DecodeFixtures(data []byte, name string) ([]Astronaut, error) {
	format := fixtureFormat(data)

	var records []Astronaut
	if isSequence(data) {
		if err := yaml.Unmarshal(data, &records); err != nil {
			return nil, errors.NewParseError(format, name, "invalid record list", err)
		}
	} else {
		var doc fixtureFile
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.NewParseError(format, name, "invalid fixture document", err)
		}
		records = doc.Astronauts
	}

	seen := make(map[string]struct{}, len(records))
	for i := range records {
		if err := records[i].Validate(); err != nil {
			return nil, errors.NewParseError(format, name, "invalid record", err)
		}
		if _, dup := seen[records[i].ID]; dup {
			return nil, errors.NewParseError(format, name, "duplicate record",
				errors.NewAlreadyExistsError(Resource, records[i].ID))
		}
		seen[records[i].ID] = struct{}{}
		records[i] = records[i].Clone()
	}

	return records, nil
}

// EncodeFixtures renders records as a seed document in the given format
// ("yaml" or "json").
func EncodeFixtures(records []Astronaut, format string) ([]byte, error) {
	doc := fixtureFile{Astronauts: records}
	if doc.Astronauts == nil {
		doc.Astronauts = []Astronaut{}
	}

	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		return yaml.Marshal(doc)
	case "json":
		return json.MarshalIndent(doc, "", "  ")
	default:
		return nil, errors.NewValidationError("format", format, "must be yaml or json")
	}
}

func fixtureFormat(data []byte) string {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return "json"
	}
	return "yaml"
}

// isSequence reports whether the first significant line of data opens a list.
func isSequence(data []byte) bool {
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") || line == "---" {
			continue
		}
		return strings.HasPrefix(line, "[") || strings.HasPrefix(line, "- ") || line == "-"
	}
	return false
}
