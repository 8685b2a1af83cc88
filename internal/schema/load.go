package schema

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"

	"github.com/tordrt/erdschema/internal/errors"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// UnmarshalJSON accepts a default given as a JSON number or boolean and keeps its literal text.
func (f *Field) UnmarshalJSON(data []byte) error {
	var aux struct {
		Name      string              `json:"name"`
		Type      string              `json:"type"`
		Default   jsoniter.RawMessage `json:"default"`
		Check     string              `json:"check"`
		Primary   bool                `json:"primary"`
		Unique    bool                `json:"unique"`
		NotNull   bool                `json:"notNull"`
		Increment bool                `json:"increment"`
		Comment   string              `json:"comment"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	*f = Field{
		Name:      aux.Name,
		Type:      aux.Type,
		Check:     aux.Check,
		Primary:   aux.Primary,
		Unique:    aux.Unique,
		NotNull:   aux.NotNull,
		Increment: aux.Increment,
		Comment:   aux.Comment,
	}

	raw := bytes.TrimSpace(aux.Default)
	switch {
	case len(raw) == 0 || string(raw) == "null":
	case raw[0] == '"':
		return json.Unmarshal(raw, &f.Default)
	default:
		f.Default = string(raw)
	}
	return nil
}

// Decode reads a schema in the given format ("json" or "yaml")
func Decode(r io.Reader, format string) (*Schema, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInput, "failed to read schema")
	}

	s := &Schema{}
	switch format {
	case "json":
		err = json.Unmarshal(data, s)
	case "yaml":
		err = yaml.Unmarshal(data, s)
	default:
		return nil, errors.Newf(errors.ErrTypeInput, "unsupported schema format: %s", format)
	}
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrTypeInput, "failed to decode %s schema", format)
	}

	return s, nil
}

// LoadFile reads a JSON or YAML schema file, picking the format from the extension
func LoadFile(path string) (*Schema, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrTypeInput, "failed to open schema file")
	}
	defer func() { _ = f.Close() }()

	s, err := Decode(f, format)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return s, nil
}

// FormatFromPath maps a file extension to a decoder format
func FormatFromPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return "json", nil
	case ".yaml", ".yml":
		return "yaml", nil
	default:
		return "", errors.Newf(errors.ErrTypeInput, "unsupported schema file extension: %q", filepath.Ext(path))
	}
}
