// Package glossary reads human readable column descriptions.
package glossary

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dbask/dbask/core"
)

// ErrParse is returned for glossary input that could not be read. Callers
// treat it as an empty glossary.
var ErrParse = errors.New("glossary parse error")

// Glossary maps column names to descriptions.
type Glossary map[string]string

// Filter returns the descriptions of columns present in schema, keyed by the
// column names as the schema spells them. Keys match case insensitively.
func (g Glossary) Filter(schema core.Schema) Glossary {
	out := make(Glossary, len(g))
	for name, desc := range g {
		col, ok := schema.Lookup(name)
		if !ok {
			continue
		}
		if _, exact := g[col.Name]; exact && col.Name != name {
			continue
		}
		out[col.Name] = desc
	}
	return out
}

// Parse reads a glossary from v. Accepted are nil, a map or a string. A string
// ending in .json, .yaml or .yml is a file path, any other string is inline
// JSON, or YAML when it is not JSON. On error the returned glossary is empty,
// never nil.
func Parse(v any) (Glossary, error) {
	switch val := v.(type) {
	case nil:
		return Glossary{}, nil
	case Glossary:
		return val, nil
	case map[string]string:
		return Glossary(val), nil
	case map[string]any:
		return fromAny(val)
	case string:
		return parseString(val)
	}

	return Glossary{}, fmt.Errorf("%w: unsupported type %T", ErrParse, v)
}

func parseString(s string) (Glossary, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Glossary{}, nil
	}

	switch strings.ToLower(filepath.Ext(s)) {
	case ".json", ".yaml", ".yml":
		return parseFile(s)
	}

	return parseInline(s)
}

func parseFile(path string) (Glossary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Glossary{}, fmt.Errorf("%w: %w", ErrParse, err)
	}

	var raw map[string]any
	if strings.EqualFold(filepath.Ext(path), ".json") {
		err = json.Unmarshal(data, &raw)
	} else {
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return Glossary{}, fmt.Errorf("%w: %s: %w", ErrParse, path, err)
	}

	return fromAny(raw)
}

func parseInline(s string) (Glossary, error) {
	var raw map[string]any
	if strings.HasPrefix(s, "{") {
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			return Glossary{}, fmt.Errorf("%w: %w", ErrParse, err)
		}
		return fromAny(raw)
	}

	if err := yaml.Unmarshal([]byte(s), &raw); err != nil {
		return Glossary{}, fmt.Errorf("%w: %w", ErrParse, err)
	}
	if raw == nil {
		return Glossary{}, fmt.Errorf("%w: not a mapping", ErrParse)
	}
	return fromAny(raw)
}

// fromAny accepts string descriptions and renders scalars as text.
func fromAny(raw map[string]any) (Glossary, error) {
	out := make(Glossary, len(raw))
	for name, v := range raw {
		switch d := v.(type) {
		case string:
			out[name] = d
		case nil:
			out[name] = ""
		case bool, int, int64, float64:
			out[name] = fmt.Sprint(d)
		default:
			return Glossary{}, fmt.Errorf("%w: description of %q is a %T", ErrParse, name, v)
		}
	}
	return out, nil
}
