package form

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/valtimo-platform/valtimo-backend-libraries-sub003/internal/domain/shared"
)

// Submission is the data of a submitted form split by destination
type Submission struct {
	// DocumentContent is a partial document built from doc: keys
	DocumentContent  json.RawMessage
	ProcessVariables map[string]any
}

// HasDocumentContent reports whether any doc: key was submitted
func (s Submission) HasDocumentContent() bool {
	return len(s.DocumentContent) > 0 && !bytes.Equal(s.DocumentContent, []byte(`{}`))
}

// ExtractSubmission reads the "data" object of a form.io submission (or the
// object itself when it has no "data") and sorts the values by key prefix.
// Keys without a known prefix are dropped.
func ExtractSubmission(raw json.RawMessage) (Submission, error) {
	if !gjson.ValidBytes(raw) {
		return Submission{}, shared.NewDomainError("INVALID_INPUT", "Submission is not valid JSON")
	}
	data := gjson.ParseBytes(raw)
	if d := data.Get("data"); d.IsObject() {
		data = d
	}
	if !data.IsObject() {
		return Submission{}, shared.NewDomainError("INVALID_INPUT", "Submission data must be a JSON object")
	}

	sub := Submission{DocumentContent: json.RawMessage(`{}`), ProcessVariables: map[string]any{}}
	var err error
	data.ForEach(func(k, v gjson.Result) bool {
		source, path, ok := ParseKey(k.String())
		if !ok {
			return true
		}
		switch source {
		case SourceDocument:
			gpath := shared.GJSONPath(path)
			if gpath == "" {
				return true
			}
			sub.DocumentContent, err = sjson.SetRawBytes(sub.DocumentContent, gpath, []byte(v.Raw))
		case SourceProcessVariable:
			sub.ProcessVariables[path] = v.Value()
		}
		return err == nil
	})
	if err != nil {
		return Submission{}, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	return sub, nil
}

// MergeContent deep-merges patch into content: objects are merged key by key,
// any other value in patch replaces the value in content.
func MergeContent(content, patch json.RawMessage) (json.RawMessage, error) {
	if len(bytes.TrimSpace(content)) == 0 {
		content = json.RawMessage(`{}`)
	}
	result := []byte(content)
	var err error
	var merge func(prefix string, value gjson.Result)
	merge = func(prefix string, value gjson.Result) {
		value.ForEach(func(k, v gjson.Result) bool {
			path := escapeKey(k.String())
			if prefix != "" {
				path = prefix + "." + path
			}
			if v.IsObject() && gjson.GetBytes(result, path).IsObject() {
				merge(path, v)
				return err == nil
			}
			result, err = sjson.SetRawBytes(result, path, []byte(v.Raw))
			return err == nil
		})
	}
	p := gjson.ParseBytes(patch)
	if !p.IsObject() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Content patch must be a JSON object")
	}
	merge("", p)
	if err != nil {
		return nil, shared.NewDomainError("INVALID_INPUT", err.Error())
	}
	return result, nil
}

func escapeKey(key string) string {
	return shared.GJSONPath("/" + strings.ReplaceAll(strings.ReplaceAll(key, "~", "~0"), "/", "~1"))
}
