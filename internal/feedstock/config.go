// Package feedstock patches a feedstock's conda-forge.yml in place while
// preserving everything else in the file.
package feedstock

import (
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	dserrors "github.com/condaops/cirotate/internal/errors"
)

// ConfigFileName is the per-feedstock configuration file.
const ConfigFileName = "conda-forge.yml"

//go:embed schema.json
var schemaJSON string

// ConfigPath returns the conda-forge.yml location inside dir.
func ConfigPath(dir string) string {
	return filepath.Join(dir, ConfigFileName)
}

// PatchConfig loads conda-forge.yml from dir (an absent file is treated as
// an empty document), applies patch to the parsed mapping, validates the
// provider blocks, and writes the result back. The file is only held open
// for the read and the write; the write happens on every non-error exit.
func PatchConfig(dir string, patch func(cfg map[string]interface{}) error) error {
	path := ConfigPath(dir)

	mode := fs.FileMode(0o644)
	cfg := map[string]interface{}{}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if info, statErr := os.Stat(path); statErr == nil {
			mode = info.Mode().Perm()
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return dserrors.UserError{
				Message:    fmt.Sprintf("Could not parse %s", path),
				Suggestion: "Check the file for YAML syntax errors",
				Err:        err,
			}
		}
		if cfg == nil {
			cfg = map[string]interface{}{}
		}
	case os.IsNotExist(err):
		// start from an empty document
	default:
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := patch(cfg); err != nil {
		return err
	}

	if err := validate(cfg); err != nil {
		return err
	}

	out, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}

	if err := os.WriteFile(path, out, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

// SetSecureVariable inserts or overwrites the nested key
// provider → secure → name with value, creating the intermediate mappings
// as needed and leaving all other content alone.
func SetSecureVariable(dir, provider, name, value string) error {
	return PatchConfig(dir, func(cfg map[string]interface{}) error {
		block, err := childMap(cfg, provider)
		if err != nil {
			return err
		}
		secureBlock, err := childMap(block, "secure")
		if err != nil {
			return fmt.Errorf("%s: %w", provider, err)
		}
		secureBlock[name] = value
		return nil
	})
}

// childMap returns parent[key] as a mapping, creating it when absent.
func childMap(parent map[string]interface{}, key string) (map[string]interface{}, error) {
	existing, ok := parent[key]
	if !ok || existing == nil {
		child := map[string]interface{}{}
		parent[key] = child
		return child, nil
	}
	child, ok := existing.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("key %q holds a %T, expected a mapping", key, existing)
	}
	return child, nil
}

// validate checks the patched document's provider blocks against the
// embedded schema. Unknown top-level keys pass untouched.
func validate(cfg map[string]interface{}) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemaJSON),
		gojsonschema.NewGoLoader(cfg),
	)
	if err != nil {
		return fmt.Errorf("failed to validate %s: %w", ConfigFileName, err)
	}
	if !result.Valid() {
		first := result.Errors()[0]
		return dserrors.UserError{
			Message:    fmt.Sprintf("Invalid %s after patch", ConfigFileName),
			Details:    first.String(),
			Suggestion: "Fix the provider block by hand and re-run",
		}
	}
	return nil
}
