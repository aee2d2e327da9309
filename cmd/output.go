package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"
)

const (
	outputTable = "table"
	outputYAML  = "yaml"
	outputJSON  = "json"
)

// printStructured writes v as yaml or json. It returns false for the table
// format, which each command renders itself.
func printStructured(w io.Writer, format string, v any) (bool, error) {
	switch format {
	case "", outputTable:
		return false, nil
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return true, enc.Encode(v)
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	default:
		return true, fmt.Errorf("unsupported output format %q", format)
	}
}

func parsePort(arg string) (uint16, error) {
	n, err := strconv.ParseUint(arg, 10, 16)
	if err != nil || n == 0 {
		return 0, fmt.Errorf("invalid port %q", arg)
	}
	return uint16(n), nil
}
