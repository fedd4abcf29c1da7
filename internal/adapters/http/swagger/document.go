package swagger

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the subset of the OpenAPI document the server inspects.
type Document struct {
	OpenAPI string `yaml:"openapi"`
	Info    struct {
		Title   string `yaml:"title"`
		Version string `yaml:"version"`
	} `yaml:"info"`
	Paths map[string]map[string]yaml.Node `yaml:"paths"`
}

// Parse decodes the embedded document.
func Parse() (*Document, error) {
	var doc Document
	if err := yaml.Unmarshal(OpenAPI, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if doc.OpenAPI == "" || len(doc.Paths) == 0 {
		return nil, fmt.Errorf("%w: missing openapi version or paths", ErrInvalidDocument)
	}
	return &doc, nil
}

// Routes returns "METHOD path" for every documented operation, sorted.
func (d *Document) Routes() []string {
	var routes []string
	for path, ops := range d.Paths {
		for method := range ops {
			routes = append(routes, fmt.Sprintf("%s %s", strings.ToUpper(method), path))
		}
	}
	sort.Strings(routes)
	return routes
}

// JSON renders the embedded YAML document as JSON.
func JSON() ([]byte, error) {
	var v any
	if err := yaml.Unmarshal(OpenAPI, &v); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	out, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return out, nil
}
