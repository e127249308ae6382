package document

import (
	"encoding/json"
	"reflect"
	"sort"
	"strings"
)

// ChangeOp is the kind of change at a path
type ChangeOp string

const (
	ChangeAdd     ChangeOp = "add"
	ChangeReplace ChangeOp = "replace"
	ChangeRemove  ChangeOp = "remove"
)

// Change is one modification of document content, addressed by JSON pointer
type Change struct {
	Op    ChangeOp `json:"op"`
	Path  string   `json:"path"`
	Value any      `json:"value,omitempty"`
}

// Diff compares two JSON documents and returns the changed leaves, ordered by path.
// Arrays are compared as a whole.
func Diff(before, after json.RawMessage) ([]Change, error) {
	var a, b any
	if len(before) > 0 {
		if err := json.Unmarshal(before, &a); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal(after, &b); err != nil {
		return nil, err
	}

	var changes []Change
	diffValue("", a, b, &changes)
	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

func diffValue(path string, a, b any, changes *[]Change) {
	am, aIsMap := a.(map[string]any)
	bm, bIsMap := b.(map[string]any)
	if aIsMap && bIsMap {
		for k, av := range am {
			child := path + "/" + escapePointer(k)
			bv, ok := bm[k]
			if !ok {
				*changes = append(*changes, Change{Op: ChangeRemove, Path: child})
				continue
			}
			diffValue(child, av, bv, changes)
		}
		for k, bv := range bm {
			if _, ok := am[k]; !ok {
				*changes = append(*changes, Change{Op: ChangeAdd, Path: path + "/" + escapePointer(k), Value: bv})
			}
		}
		return
	}

	if reflect.DeepEqual(a, b) {
		return
	}
	*changes = append(*changes, Change{Op: ChangeReplace, Path: pathOrRoot(path), Value: b})
}

func pathOrRoot(path string) string {
	if path == "" {
		return "/"
	}
	return path
}

func escapePointer(key string) string {
	key = strings.ReplaceAll(key, "~", "~0")
	return strings.ReplaceAll(key, "/", "~1")
}
