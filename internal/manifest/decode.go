package manifest

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/equality"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	utiljson "k8s.io/apimachinery/pkg/util/json"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
	"sigs.k8s.io/yaml"
)

// Decode parses manifests written by Encode, or by any tool producing a
// Kubernetes List (JSON) or a multi-document stream (YAML). Resource order
// is preserved.
func Decode(data []byte, f Format) ([]*unstructured.Unstructured, error) {
	switch f {
	case FormatJSON:
		return decodeJSON(data)
	case FormatYAML:
		return decodeYAML(data)
	default:
		return nil, &SerializationError{Format: f, Reason: "unsupported format"}
	}
}

// DecodeFile reads and decodes a manifest file, picking the format from its extension.
func DecodeFile(path string) ([]*unstructured.Unstructured, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	return Decode(data, f)
}

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", &SerializationError{Resource: path, Reason: "no file extension"}
	}
	return ParseFormat(ext)
}

func decodeJSON(data []byte) ([]*unstructured.Unstructured, error) {
	var doc map[string]any
	if err := utiljson.Unmarshal(data, &doc); err != nil {
		return nil, &SerializationError{Format: FormatJSON, Reason: "decode", Err: err}
	}

	return expandList(doc, FormatJSON)
}

func decodeYAML(data []byte) ([]*unstructured.Unstructured, error) {
	reader := utilyaml.NewYAMLReader(bufio.NewReader(bytes.NewReader(data)))

	var out []*unstructured.Unstructured
	for i := 0; ; i++ {
		chunk, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &SerializationError{Format: FormatYAML, Reason: "read document", Err: err}
		}

		if len(bytes.TrimSpace(chunk)) == 0 {
			continue
		}

		jsonDoc, err := yaml.YAMLToJSON(chunk)
		if err != nil {
			return nil, &SerializationError{Format: FormatYAML, Resource: fmt.Sprintf("document %d", i), Err: err}
		}
		if bytes.Equal(bytes.TrimSpace(jsonDoc), []byte("null")) {
			continue
		}

		var doc map[string]any
		if err := utiljson.Unmarshal(jsonDoc, &doc); err != nil {
			return nil, &SerializationError{Format: FormatYAML, Resource: fmt.Sprintf("document %d", i), Err: err}
		}

		items, err := expandList(doc, FormatYAML)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}

	return out, nil
}

// expandList returns the items of a List document, or the document itself.
func expandList(doc map[string]any, f Format) ([]*unstructured.Unstructured, error) {
	u := &unstructured.Unstructured{Object: doc}
	if !u.IsList() && u.GetKind() != "List" {
		if u.GetKind() == "" {
			return nil, &SerializationError{Format: f, Reason: "document has no kind"}
		}
		return []*unstructured.Unstructured{u}, nil
	}

	rawItems, _, err := unstructured.NestedSlice(doc, "items")
	if err != nil {
		return nil, &SerializationError{Format: f, Reason: "list items", Err: err}
	}

	out := make([]*unstructured.Unstructured, 0, len(rawItems))
	for i, raw := range rawItems {
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, &SerializationError{Format: f, Resource: fmt.Sprintf("item %d", i), Reason: "not an object"}
		}
		item := &unstructured.Unstructured{Object: m}
		if item.GetKind() == "" {
			return nil, &SerializationError{Format: f, Resource: fmt.Sprintf("item %d", i), Reason: "no kind"}
		}
		out = append(out, item)
	}

	return out, nil
}

// ToTyped converts decoded resources into typed Deployments and Services.
func ToTyped(items []*unstructured.Unstructured) ([]runtime.Object, error) {
	out := make([]runtime.Object, 0, len(items))
	for i, u := range items {
		var obj runtime.Object
		switch u.GetKind() {
		case "Deployment":
			obj = &appsv1.Deployment{}
		case "Service":
			obj = &corev1.Service{}
		default:
			return nil, &SerializationError{
				Resource: fmt.Sprintf("%s#%d", u.GetKind(), i),
				Reason:   "unsupported kind",
			}
		}

		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, obj); err != nil {
			return nil, &SerializationError{Resource: fmt.Sprintf("%s/%s", u.GetKind(), u.GetName()), Err: err}
		}
		out = append(out, obj)
	}
	return out, nil
}

// Equivalent reports whether two decoded resource lists describe the same
// object graph: same length, same order, semantically equal resources.
func Equivalent(a, b []*unstructured.Unstructured) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !equality.Semantic.DeepEqual(a[i].Object, b[i].Object) {
			return false
		}
	}
	return true
}
