// Package contracts validates site map documents against their JSON schema
// before they are decoded into the layout model.
package contracts

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// SiteMapV1 is the schema key for the persisted site map document.
const SiteMapV1 = "sitemap.v1"

// ErrInvalidDocument wraps every schema violation.
var ErrInvalidDocument = errors.New("contracts: document does not match schema")

// Registry holds compiled schemas keyed by file name without extension.
type Registry struct {
	schemas map[string]*jsonschema.Schema
}

// Load compiles every embedded schema.
func Load() (*Registry, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft7

	var names []string
	err := fs.WalkDir(schemaFS, "schemas", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(p, ".json") {
			return nil
		}
		raw, err := schemaFS.ReadFile(p)
		if err != nil {
			return err
		}
		name := path.Base(p)
		if err := compiler.AddResource(name, bytes.NewReader(raw)); err != nil {
			return fmt.Errorf("contracts: add %s: %w", name, err)
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, err
	}

	reg := &Registry{schemas: make(map[string]*jsonschema.Schema, len(names))}
	for _, name := range names {
		schema, err := compiler.Compile(name)
		if err != nil {
			return nil, fmt.Errorf("contracts: compile %s: %w", name, err)
		}
		reg.schemas[strings.TrimSuffix(name, ".json")] = schema
	}
	return reg, nil
}

// MustLoad is Load for process start-up.
func MustLoad() *Registry {
	reg, err := Load()
	if err != nil {
		panic(err)
	}
	return reg
}

// Validate checks raw JSON against the named schema.
func (r *Registry) Validate(key string, raw []byte) error {
	schema, ok := r.schemas[key]
	if !ok {
		return fmt.Errorf("contracts: unknown schema %q", key)
	}
	// jsonschema v5 expects the instance decoded with json.Number.
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var doc any
	err := dec.Decode(&doc)
	if err == nil {
		if t, _ := dec.Token(); t != nil {
			err = fmt.Errorf("invalid character %v after top-level value", t)
		}
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if err := schema.Validate(doc); err != nil {
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("%w: %s", ErrInvalidDocument, describe(verr))
		}
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return nil
}

// describe flattens the deepest causes into "location: message" pairs.
func describe(verr *jsonschema.ValidationError) string {
	var parts []string
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			parts = append(parts, loc+": "+e.Message)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	return strings.Join(parts, "; ")
}
