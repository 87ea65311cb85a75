package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// File is the on-disk form of an additional task catalog.
//
//	tasks:
//	  - name: p12_custom
//	    pack_glob: pack12*
//	    answer_path: answers.json
//	    answer_key_path: [custom]
//	    prompt: Return JSON with ...
//	    extractor: {kind: round_fields, fields: [total], places: 2}
type File struct {
	Tasks []Task `yaml:"tasks"`
}

// LoadFile reads and validates a YAML task catalog.
func LoadFile(path string) ([]Task, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	tasks, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return tasks, nil
}

// Parse decodes a YAML task catalog and validates it.
func Parse(data []byte) ([]Task, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if result := Validate(f.Tasks); !result.Valid() {
		return nil, result
	}
	return f.Tasks, nil
}
