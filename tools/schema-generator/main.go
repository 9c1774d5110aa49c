// Command schema-generator regenerates schema/niribar.schema.json from the
// config and logging types.
package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/grovetools/niribar/config"
	"github.com/grovetools/niribar/logging"
	"github.com/grovetools/niribar/schema"
	"github.com/invopop/jsonschema"
)

// durationPattern matches Go duration strings such as "250ms" or "1m30s".
const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

var durationType = reflect.TypeOf(time.Duration(0))

// fileConfig is the on-disk layout: the core sections plus the `logging`
// extension.
type fileConfig struct {
	config.Config `yaml:",inline"`
	Logging       logging.Config `yaml:"logging" jsonschema:"description=Logging configuration"`
}

func generate() ([]byte, error) {
	r := &jsonschema.Reflector{
		AllowAdditionalProperties:  false,
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
		FieldNameTag:               "yaml",
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			if t == durationType {
				return &jsonschema.Schema{Type: "string", Pattern: durationPattern}
			}
			return nil
		},
	}

	s := r.Reflect(&fileConfig{})
	s.Version = "https://json-schema.org/draft/2020-12/schema"
	s.ID = ""
	s.Title = "niribar configuration"
	s.Description = "Schema for niribar's config.yml / config.toml."
	// Unknown top-level keys are extensions.
	s.AdditionalProperties = nil

	return json.MarshalIndent(s, "", "  ")
}

func main() {
	schemaBytes, err := generate()
	if err != nil {
		log.Fatalf("Error generating schema: %v", err)
	}

	outputPath := filepath.Join("schema", schema.SchemaFile)
	if err := os.WriteFile(outputPath, append(schemaBytes, '\n'), 0644); err != nil {
		log.Fatalf("Error writing schema file: %v", err)
	}

	log.Printf("Successfully generated schema at %s", outputPath)
}
