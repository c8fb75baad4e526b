package output

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Formatter defines the interface for output formatting
type Formatter interface {
	// Format takes data and returns a formatted string
	Format(data any) (string, error)
	// FormatList takes a slice of data and returns a formatted string
	FormatList(data any) (string, error)
}

// NewFormatter creates a formatter based on the format type
func NewFormatter(format string) (Formatter, error) {
	switch format {
	case "text":
		return NewTextFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "yaml":
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: text, json, yaml)", format)
	}
}

// JSONFormatter formats data as indented JSON
type JSONFormatter struct{}

func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

func (f *JSONFormatter) Format(data any) (string, error) {
	return marshalJSON(data)
}

func (f *JSONFormatter) FormatList(data any) (string, error) {
	return marshalJSON(data)
}

func marshalJSON(data any) (string, error) {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}

	return string(bytes) + "\n", nil
}

// YAMLFormatter formats data as YAML
type YAMLFormatter struct{}

func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

func (f *YAMLFormatter) Format(data any) (string, error) {
	return marshalYAML(data)
}

func (f *YAMLFormatter) FormatList(data any) (string, error) {
	return marshalYAML(data)
}

func marshalYAML(data any) (string, error) {
	bytes, err := yaml.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}

	return string(bytes), nil
}
