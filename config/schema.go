package config

import (
	"encoding/json"
	"sort"
	"sync"

	"github.com/invopop/jsonschema"
)

var (
	extensionsMu sync.RWMutex
	extensions   = map[string]interface{}{}
)

// RegisterExtension declares a top-level section owned by another package.
// prototype is a zero value of the section's Go type; its schema is merged
// into the configuration schema so the section validates.
func RegisterExtension(name string, prototype interface{}) {
	extensionsMu.Lock()
	defer extensionsMu.Unlock()
	extensions[name] = prototype
}

func newReflector() *jsonschema.Reflector {
	return &jsonschema.Reflector{
		// Unknown top-level keys must belong to a registered extension.
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		Anonymous:                  true,
		FieldNameTag:               "yaml",
	}
}

// Schema builds the configuration JSON Schema including registered extensions.
func Schema() *jsonschema.Schema {
	r := newReflector()

	type BaseConfig struct {
		Host    string      `yaml:"host,omitempty" jsonschema:"description=Interface to listen on (default 127.0.0.1)"`
		Port    int         `yaml:"port,omitempty" jsonschema:"minimum=0,maximum=65535,description=Listening port (default 8080)"`
		PidFile string      `yaml:"pid_file,omitempty" jsonschema:"description=Path of the relay pid file"`
		Relay   RelayConfig `yaml:"relay,omitempty" jsonschema:"description=Transport tuning"`
	}

	schema := r.Reflect(&BaseConfig{})
	schema.Title = "ply relay configuration"
	schema.Description = "Schema for ply.yml / ply.toml."

	extensionsMu.RLock()
	names := make([]string, 0, len(extensions))
	for name := range extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		sub := newReflector()
		sub.DoNotReference = true
		section := sub.Reflect(extensions[name])
		section.Version = ""
		schema.Properties.Set(name, section)
	}
	extensionsMu.RUnlock()

	return schema
}

// GenerateSchema returns the configuration schema as indented JSON.
func GenerateSchema() ([]byte, error) {
	return json.MarshalIndent(Schema(), "", "  ")
}
