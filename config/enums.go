package config

import (
	"fmt"
	"strings"
)

// Specification of requested style command output.
type OutputFormat int

const (
	OutputFormatTree OutputFormat = iota
	OutputFormatJSON
	OutputFormatTemplate
)

var outputFormatNames = []string{"tree", "json", "template"}

// OutputFormatNames returns the list of possible string values of OutputFormat.
func OutputFormatNames() []string {
	return append([]string(nil), outputFormatNames...)
}

func (f OutputFormat) String() string {
	if f.IsValid() {
		return outputFormatNames[f]
	}
	return fmt.Sprintf("OutputFormat(%d)", int(f))
}

// IsValid reports whether f is one of the defined formats.
func (f OutputFormat) IsValid() bool {
	return f >= 0 && int(f) < len(outputFormatNames)
}

// ParseOutputFormat converts a string to OutputFormat, case insensitive.
func ParseOutputFormat(name string) (OutputFormat, error) {
	for i, n := range outputFormatNames {
		if strings.EqualFold(n, name) {
			return OutputFormat(i), nil
		}
	}
	return 0, fmt.Errorf("%s is not a valid OutputFormat, try [%s]", name, strings.Join(outputFormatNames, ", "))
}

func (f OutputFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *OutputFormat) UnmarshalText(text []byte) error {
	v, err := ParseOutputFormat(string(text))
	if err != nil {
		return err
	}
	*f = v
	return nil
}
