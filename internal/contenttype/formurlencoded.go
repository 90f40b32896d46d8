package contenttype

import (
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/kestrun/kestrun/schema"
)

// FormURLEncodedDecoder decodes an application/x-www-form-urlencoded body
// into the language-neutral value tree described by §4.2, recognizing
// PHP-style bracket notation (`a[0]=x`, `b[key]=y`) as nested structure,
// then conforming the tree to a declared schema.Type exactly as the JSON
// decoder does.
type FormURLEncodedDecoder struct {
	objects map[string]schema.ObjectType
}

// NewFormURLEncodedDecoder creates a form-urlencoded decoder that resolves
// named object types against objects.
func NewFormURLEncodedDecoder(objects map[string]schema.ObjectType) *FormURLEncodedDecoder {
	return &FormURLEncodedDecoder{objects: objects}
}

var bracketSegment = regexp.MustCompile(`\[([^\]]*)\]`)

// Decode parses the urlencoded body and conforms it to resultType.
func (c *FormURLEncodedDecoder) Decode(r io.Reader, resultType schema.Type) (any, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	values, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, err
	}

	tree := make(map[string]any)
	for key, vals := range values {
		setFormPath(tree, splitFormKey(key), vals)
	}
	arrayifyChildren(tree)

	underlyingType, _, err := schema.UnwrapNullableType(resultType)
	if err != nil {
		return nil, err
	}

	return c.evalSchemaType(tree, underlyingType, []string{})
}

// splitFormKey splits "a[0][b]" into ["a", "0", "b"].
func splitFormKey(key string) []string {
	root := key
	var segments []string

	if idx := indexOfFirstBracket(key); idx >= 0 {
		root = key[:idx]

		for _, m := range bracketSegment.FindAllStringSubmatch(key[idx:], -1) {
			segments = append(segments, m[1])
		}
	}

	return append([]string{root}, segments...)
}

func indexOfFirstBracket(key string) int {
	for i, r := range key {
		if r == '[' {
			return i
		}
	}

	return -1
}

// setFormPath assigns vals into tree at the nested path described by
// path, building intermediate maps (and, for numeric segments, arrays)
// as needed.
func setFormPath(tree map[string]any, path []string, vals []string) {
	if len(path) == 1 {
		if len(vals) > 1 {
			list := make([]any, len(vals))
			for i, v := range vals {
				list[i] = v
			}
			tree[path[0]] = list

			return
		}

		tree[path[0]] = vals[0]

		return
	}

	head, rest := path[0], path[1:]

	child, ok := tree[head].(map[string]any)
	if !ok {
		child = make(map[string]any)
		tree[head] = child
	}

	setFormPath(child, rest, vals)
}

// arrayifyChildren rewrites any nested map[string]any whose keys are
// exactly "0".."n-1" into a []any, so bracket-indexed form keys
// (`tags[0]=a&tags[1]=b`) decode as arrays rather than index-keyed
// objects.
func arrayifyChildren(tree map[string]any) {
	for key, value := range tree {
		tree[key] = arrayify(value)
	}
}

func arrayify(value any) any {
	m, ok := value.(map[string]any)
	if !ok {
		return value
	}

	arrayifyChildren(m)

	if isSequentialIndexMap(m) {
		return mapToSlice(m)
	}

	return m
}

func isSequentialIndexMap(m map[string]any) bool {
	for i := range m {
		if _, err := strconv.Atoi(i); err != nil {
			return false
		}
	}

	for i := 0; i < len(m); i++ {
		if _, ok := m[strconv.Itoa(i)]; !ok {
			return false
		}
	}

	return true
}

func mapToSlice(m map[string]any) []any {
	result := make([]any, len(m))
	for i := range result {
		result[i] = m[strconv.Itoa(i)]
	}

	return result
}

func (c *FormURLEncodedDecoder) evalSchemaType(value any, schemaType schema.Type, fieldPaths []string) (any, error) {
	if value == nil {
		return nil, nil
	}

	if len(fieldPaths) > maxConformDepth {
		return nil, fmt.Errorf("%s: exceeded maximum binding depth of %d", strings.Join(fieldPaths, "."), maxConformDepth)
	}

	switch t := schemaType.Interface().(type) {
	case *schema.NullableType:
		return c.evalSchemaType(value, t.UnderlyingType, fieldPaths)
	case *schema.ArrayType:
		return c.evalArrayType(value, t, fieldPaths)
	case *schema.NamedType:
		return c.evalNamedType(value, t, fieldPaths)
	default:
		return value, nil
	}
}

func (c *FormURLEncodedDecoder) evalArrayType(value any, arrayType *schema.ArrayType, fieldPaths []string) (any, error) {
	arrayValue, ok := value.([]any)
	if !ok {
		arrayValue = []any{value}
	}

	results := make([]any, len(arrayValue))
	for i, item := range arrayValue {
		result, err := c.evalSchemaType(item, arrayType.ElementType, append(fieldPaths, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		results[i] = result
	}

	return results, nil
}

func (c *FormURLEncodedDecoder) evalNamedType(value any, namedType *schema.NamedType, fieldPaths []string) (any, error) {
	objectType, ok := c.objects[namedType.Name]
	if !ok {
		return c.evalScalarType(value, namedType.Name)
	}

	objectValue, ok := value.(map[string]any)
	if !ok {
		return value, nil
	}

	results := make(map[string]any)
	for key, field := range objectType.Fields {
		fieldValue, ok := lookupCaseInsensitive(objectValue, key)
		if !ok {
			continue
		}

		result, err := c.evalSchemaType(fieldValue, field.Type, append(fieldPaths, key))
		if err != nil {
			return nil, err
		}

		results[key] = result
	}

	return results, nil
}

func (c *FormURLEncodedDecoder) evalScalarType(value any, scalarName string) (any, error) {
	switch schema.ScalarKind(scalarName) {
	case schema.ScalarBoolean:
		return decodeBoolean(value)
	case schema.ScalarNumber:
		return decodeFloat(value)
	case schema.ScalarInteger:
		return decodeInt(value)
	default:
		return value, nil
	}
}
