package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
)

// Server-populated fields dropped from generated output.
var omittedFields = [][]string{
	{"status"},
	{"metadata", "creationTimestamp"},
	{"spec", "template", "metadata", "creationTimestamp"},
}

// Encode renders the bundle in the given format. Both formats are produced
// from the same unstructured form of each resource, so they decode to equal
// object graphs. Encoding is deterministic.
func Encode(b *Bundle, f Format) ([]byte, error) {
	switch f {
	case FormatJSON, FormatYAML:
	default:
		return nil, &SerializationError{Format: f, Reason: "unsupported format"}
	}

	items, err := toUnstructured(b, f)
	if err != nil {
		return nil, err
	}

	if f == FormatJSON {
		return encodeJSON(items)
	}
	return encodeYAML(items)
}

// EncodeAll renders the bundle in every supported format.
func EncodeAll(b *Bundle) (map[Format][]byte, error) {
	out := make(map[Format][]byte, len(Formats))
	for _, f := range Formats {
		data, err := Encode(b, f)
		if err != nil {
			return nil, err
		}
		out[f] = data
	}
	return out, nil
}

func toUnstructured(b *Bundle, f Format) ([]map[string]any, error) {
	if b == nil {
		return nil, &SerializationError{Format: f, Reason: "nil bundle"}
	}

	items := make([]map[string]any, 0, len(b.resources))
	for i, obj := range b.resources {
		name := resourceName(obj, i)

		if obj.GetObjectKind().GroupVersionKind().Kind == "" {
			return nil, &SerializationError{Format: f, Resource: name, Reason: "missing kind"}
		}

		m, err := runtime.DefaultUnstructuredConverter.ToUnstructured(obj)
		if err != nil {
			return nil, &SerializationError{Format: f, Resource: name, Err: err}
		}

		for _, path := range omittedFields {
			unstructured.RemoveNestedField(m, path...)
		}

		items = append(items, m)
	}

	return items, nil
}

func encodeJSON(items []map[string]any) ([]byte, error) {
	list := map[string]any{
		"apiVersion": "v1",
		"kind":       "List",
		"items":      items,
	}

	data, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return nil, &SerializationError{Format: FormatJSON, Err: err}
	}

	return append(data, '\n'), nil
}

func encodeYAML(items []map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	for i, item := range items {
		if err := enc.Encode(item); err != nil {
			return nil, &SerializationError{Format: FormatYAML, Resource: fmt.Sprintf("#%d", i), Err: err}
		}
	}

	if err := enc.Close(); err != nil {
		return nil, &SerializationError{Format: FormatYAML, Err: err}
	}

	return buf.Bytes(), nil
}

func resourceName(obj runtime.Object, index int) string {
	kind := obj.GetObjectKind().GroupVersionKind().Kind
	if kind == "" {
		kind = fmt.Sprintf("%T", obj)
	}

	if m, ok := obj.(interface{ GetName() string }); ok && m.GetName() != "" {
		return fmt.Sprintf("%s/%s", kind, m.GetName())
	}
	return fmt.Sprintf("%s#%d", kind, index)
}
