package output

import (
	"bytes"
	"fmt"

	"github.com/gonvenience/ytbx"
	"github.com/homeport/dyff/pkg/dyff"
)

// DiffYAML renders a human-readable dyff report between two YAML documents.
// An empty string means the documents are equal.
func DiffYAML(fromName string, from []byte, toName string, to []byte, useColor bool) (string, error) {
	fromInput, err := yamlInput(fromName, from)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", fromName, err)
	}
	toInput, err := yamlInput(toName, to)
	if err != nil {
		return "", fmt.Errorf("parsing %s: %w", toName, err)
	}

	report, err := dyff.CompareInputFiles(fromInput, toInput)
	if err != nil {
		return "", fmt.Errorf("comparing YAML: %w", err)
	}
	if len(report.Diffs) == 0 {
		return "", nil
	}

	var buf bytes.Buffer
	writer := &dyff.HumanReport{
		Report:            report,
		DoNotInspectCerts: true,
		NoTableStyle:      !useColor,
		OmitHeader:        true,
	}
	if err := writer.WriteReport(&buf); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	return buf.String(), nil
}

func yamlInput(name string, data []byte) (ytbx.InputFile, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ytbx.InputFile{Location: name}, nil
	}

	docs, err := ytbx.LoadYAMLDocuments(data)
	if err != nil {
		return ytbx.InputFile{}, err
	}
	return ytbx.InputFile{Location: name, Documents: docs}, nil
}
