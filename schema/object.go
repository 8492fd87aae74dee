package schema

import (
	log "github.com/sirupsen/logrus"
	"github.com/xeipuuv/gojsonschema"
)

// RootPath is the error path used when a validation issue has no field path.
const RootPath = "root-object"

// Object is a compiled JSON schema bound to a route at registration time.
type Object struct {
	doc      Map
	compiled *gojsonschema.Schema
}

// MustObject compiles the given JSON schema document. Schemas are static route
// configuration, a document that does not compile is a programming error.
func MustObject(doc Map) *Object {
	if _, ok := doc["type"]; !ok {
		doc["type"] = "object"
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc))
	if err != nil {
		log.Fatalf("invalid route schema: %v", err)
	}
	return &Object{doc: doc, compiled: compiled}
}

// Validate checks data against the schema. On failure it returns every issue,
// grouped by field path (RootPath when an issue carries none). On success it
// returns the data with schema defaults applied for absent properties.
func (s *Object) Validate(data any) (any, map[string][]string) {
	result, err := s.compiled.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, map[string][]string{RootPath: {err.Error()}}
	}
	if !result.Valid() {
		issues := make(map[string][]string)
		for _, issue := range result.Errors() {
			path := issue.Field()
			if path == "" || path == "(root)" {
				path = RootPath
			}
			issues[path] = append(issues[path], issue.Description())
		}
		return nil, issues
	}
	return s.applyDefaults(data), nil
}

func (s *Object) applyDefaults(data any) any {
	values, ok := data.(map[string]any)
	if !ok {
		return data
	}
	props, ok := s.doc["properties"].(Map)
	if !ok {
		return data
	}
	for name, raw := range props {
		prop, ok := raw.(Map)
		if !ok {
			continue
		}
		if def, ok := prop["default"]; ok {
			if _, present := values[name]; !present {
				values[name] = def
			}
		}
	}
	return values
}
