package form

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// Source is where the value of an external component key comes from
type Source string

const (
	SourceDocument        Source = "doc"
	SourceProcessVariable Source = "pv"
)

// ParseKey splits an external component key such as "doc:/person/name" or "pv:approved".
// "case:" is an alias of "doc:". Plain keys report ok=false.
func ParseKey(key string) (Source, string, bool) {
	prefix, rest, found := strings.Cut(key, ":")
	if !found || rest == "" {
		return "", "", false
	}
	switch prefix {
	case "doc", "case":
		return SourceDocument, rest, true
	case "pv":
		return SourceProcessVariable, rest, true
	}
	return "", "", false
}

// PrefillData holds the values a form is filled with
type PrefillData struct {
	DocumentContent  json.RawMessage
	ProcessVariables map[string]any
}

// Prefill returns a copy of the form definition with defaultValue set on every
// component whose key resolves to a value in data. Components without a value are left unchanged.
func Prefill(definition json.RawMessage, data PrefillData) (json.RawMessage, error) {
	var tree any
	if err := json.Unmarshal(definition, &tree); err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Form definition is not valid JSON")
	}

	walkComponents(tree, func(component map[string]any) {
		key, _ := component["key"].(string)
		source, path, ok := ParseKey(key)
		if !ok {
			return
		}
		if value, found := lookup(source, path, data); found {
			component["defaultValue"] = value
		}
	})

	return json.Marshal(tree)
}

func lookup(source Source, path string, data PrefillData) (any, bool) {
	switch source {
	case SourceDocument:
		if len(data.DocumentContent) == 0 {
			return nil, false
		}
		res := gjson.GetBytes(data.DocumentContent, shared.GJSONPath(path))
		if !res.Exists() {
			return nil, false
		}
		return res.Value(), true
	case SourceProcessVariable:
		v, ok := data.ProcessVariables[path]
		return v, ok
	}
	return nil, false
}

// walkComponents visits every object carrying a "key", descending into
// components, columns and rows (which may nest arrays of cells).
func walkComponents(node any, visit func(map[string]any)) {
	switch n := node.(type) {
	case []any:
		for _, item := range n {
			walkComponents(item, visit)
		}
	case map[string]any:
		if _, ok := n["key"].(string); ok {
			visit(n)
		}
		for _, child := range []string{"components", "columns", "rows"} {
			if v, ok := n[child]; ok {
				walkComponents(v, visit)
			}
		}
	}
}
