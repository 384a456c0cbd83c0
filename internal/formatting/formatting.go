// Package formatting renders command output as a table, JSON or YAML.
package formatting

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects how command output is rendered.
type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat validates an --output flag value. Empty means table.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatTable:
		return FormatTable, nil
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (use table, json or yaml)", s)
	}
}

// Write renders data in the structured formats. For FormatTable it calls
// renderTable instead.
func Write(out io.Writer, format Format, data interface{}, renderTable func(io.Writer)) error {
	switch format {
	case FormatJSON:
		_, err := fmt.Fprintln(out, PrettyJSON(data))
		return err
	case FormatYAML:
		s, err := toYAML(data)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, s)
		return err
	default:
		renderTable(out)
		return nil
	}
}

// toYAML goes through JSON first so YAML keys match the JSON field names.
func toYAML(data interface{}) (string, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to encode output: %w", err)
	}
	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return "", fmt.Errorf("failed to encode output: %w", err)
	}
	b, err := yaml.Marshal(generic)
	if err != nil {
		return "", fmt.Errorf("failed to encode output: %w", err)
	}
	return string(b), nil
}
