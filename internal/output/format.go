package output

import "strings"

// Format specifies the report output format.
type Format string

const (
	// FormatYAML outputs in YAML format.
	FormatYAML Format = "yaml"

	// FormatJSON outputs in JSON format.
	FormatJSON Format = "json"

	// FormatTable outputs a styled summary table.
	FormatTable Format = "table"
)

// String returns the string representation of the output format.
func (f Format) String() string {
	return string(f)
}

// IsValid checks if the output format is valid.
func (f Format) IsValid() bool {
	switch f {
	case FormatYAML, FormatJSON, FormatTable:
		return true
	default:
		return false
	}
}

// ParseFormat parses a string into a Format. The second return value is
// false when s is not a known format.
func ParseFormat(s string) (Format, bool) {
	switch strings.ToLower(s) {
	case "", "yaml", "yml":
		return FormatYAML, true
	case "json":
		return FormatJSON, true
	case "table":
		return FormatTable, true
	default:
		return FormatYAML, false
	}
}

// ValidFormats returns a slice of valid output format strings.
func ValidFormats() []string {
	return []string{"yaml", "json", "table"}
}
