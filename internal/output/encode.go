package output

import (
	"encoding/json"
	"fmt"
	"io"

	"sigs.k8s.io/yaml"
)

// WriteDocument encodes v as YAML or JSON. Field names follow the json tags
// of v in both formats.
func WriteDocument(w io.Writer, v any, format Format) error {
	var (
		data []byte
		err  error
	)

	switch format {
	case FormatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
		data = append(data, '\n')
	case FormatYAML:
		data, err = yaml.Marshal(v)
	default:
		return fmt.Errorf("format %s not supported for document output", format)
	}
	if err != nil {
		return fmt.Errorf("encoding %s: %w", format, err)
	}

	_, err = w.Write(data)
	return err
}
