package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/cuemby/cattle-tools/pkg/types"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// printDocument writes v in the format selected by --output. Documents go
// through their JSON form first so unmodelled attributes are printed too.
func printDocument(cmd *cobra.Command, v interface{}) error {
	format, _ := cmd.Flags().GetString("output")
	return writeDocument(cmd.OutOrStdout(), format, v)
}

func writeDocument(w io.Writer, format string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}

	switch format {
	case "json":
		var buf bytes.Buffer
		if err := json.Indent(&buf, data, "", "  "); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(w)
		return err
	case "yaml", "":
		// json.Number keeps integers from turning into floats
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		var generic interface{}
		if err := dec.Decode(&generic); err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// overridesFile is the YAML accepted by --overrides
type overridesFile struct {
	Config       map[string]interface{} `yaml:"config"`
	LaunchConfig map[string]interface{} `yaml:"launchConfig"`
}

// loadOverrides reads an overrides file; an empty path yields no overrides
func loadOverrides(path string) (config, launchConfig types.Overrides, err error) {
	if path == "" {
		return nil, nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read overrides: %w", err)
	}

	var f overridesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("failed to parse overrides %s: %w", path, err)
	}

	return types.Overrides(f.Config), types.Overrides(f.LaunchConfig), nil
}
