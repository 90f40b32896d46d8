package contenttype

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kestrun/kestrun/schema"
)

// XMLDecoder decodes an XML body into the language-neutral value tree
// described by §4.2, resolving named object/scalar types against a
// schema-wide object registry.
type XMLDecoder struct {
	objects map[string]schema.ObjectType
	decoder *xml.Decoder
}

// NewXMLDecoder creates an XML decoder that resolves named object types
// against objects. A nil or empty objects map falls back to the
// schema-less tree returned by DecodeArbitraryXML.
func NewXMLDecoder(objects map[string]schema.ObjectType) *XMLDecoder {
	return &XMLDecoder{objects: objects}
}

// Decode unmarshals XML bytes, conforming the result to resultType.
func (c *XMLDecoder) Decode(r io.Reader, resultType schema.Type) (any, error) {
	c.decoder = xml.NewDecoder(r)

	for {
		token, err := c.decoder.Token()
		if err != nil {
			return nil, err
		}
		if token == nil {
			break
		}

		if se, ok := token.(xml.StartElement); ok {
			xmlTree := createXMLBlock(se)
			if err := evalXMLTree(c.decoder, xmlTree); err != nil {
				return nil, fmt.Errorf("failed to decode the xml result: %w", err)
			}

			if len(c.objects) == 0 {
				return decodeArbitraryXMLBlock(xmlTree), nil
			}

			result, err := c.evalXMLField(xmlTree, "", schema.ObjectField{Type: resultType}, []string{})
			if err != nil {
				return nil, fmt.Errorf("failed to decode the xml result: %w", err)
			}

			return result, nil
		}
	}

	return nil, nil
}

func (c *XMLDecoder) evalXMLField(block *xmlBlock, fieldName string, field schema.ObjectField, fieldPaths []string) (any, error) {
	switch t := field.Type.Interface().(type) {
	case *schema.NullableType:
		return c.evalXMLField(block, fieldName, schema.ObjectField{Type: t.UnderlyingType, XML: field.XML, ItemsXML: field.ItemsXML}, fieldPaths)
	case *schema.ArrayType:
		return c.evalArrayField(block, fieldName, field, t, fieldPaths)
	case *schema.NamedType:
		return c.evalNamedField(block, t, fieldPaths)
	default:
		return nil, fmt.Errorf("%s: unsupported type", strings.Join(fieldPaths, "."))
	}
}

func (c *XMLDecoder) getArrayItemObjectField(field schema.ObjectField, t *schema.ArrayType) schema.ObjectField {
	return schema.ObjectField{
		Type: t.ElementType,
		XML:  field.ItemsXML,
	}
}

func (c *XMLDecoder) evalArrayField(block *xmlBlock, fieldName string, field schema.ObjectField, t *schema.ArrayType, fieldPaths []string) (any, error) {
	if block.Fields == nil {
		return nil, nil
	}
	if len(block.Fields) == 0 {
		return []any{}, nil
	}

	var elements []xmlBlock
	itemTokenName := fieldName
	wrapped := len(fieldPaths) == 0
	fieldItem := c.getArrayItemObjectField(field, t)

	if field.XML != nil {
		wrapped = wrapped || field.XML.Wrapped
	}
	if field.ItemsXML != nil && field.ItemsXML.Name != "" {
		itemTokenName = field.ItemsXML.Name
	}

	if wrapped {
		for _, elems := range block.Fields {
			if len(elems) > 0 {
				elements = elems

				break
			}
		}
	} else if elems, ok := block.Fields[itemTokenName]; ok {
		elements = elems
	}

	return c.evalArrayElements(elements, itemTokenName, fieldItem, fieldPaths)
}

func (c *XMLDecoder) evalArrayElements(elements []xmlBlock, itemTokenName string, fieldItem schema.ObjectField, fieldPaths []string) ([]any, error) {
	if len(elements) == 0 {
		return []any{}, nil
	}

	results := make([]any, len(elements))
	for i, elem := range elements {
		result, err := c.evalXMLField(&elem, itemTokenName, fieldItem, append(fieldPaths, strconv.Itoa(i)))
		if err != nil {
			return nil, err
		}
		results[i] = result
	}

	return results, nil
}

func (c *XMLDecoder) evalNamedField(block *xmlBlock, t *schema.NamedType, fieldPaths []string) (any, error) {
	if isScalarKind(t.Name) {
		return c.decodeSimpleScalarValue(block, schema.ScalarKind(t.Name), fieldPaths)
	}

	objectType, ok := c.objects[t.Name]
	if !ok {
		return nil, fmt.Errorf("%s: invalid response type %q", strings.Join(fieldPaths, "."), t.Name)
	}

	result := map[string]any{}

	for _, attr := range block.Start.Attr {
		for key, objectField := range objectType.Fields {
			if objectField.XML == nil || !objectField.XML.Attribute {
				continue
			}

			xmlKey := key
			if objectField.XML.Name != "" {
				xmlKey = objectField.XML.Name
			}
			if attr.Name.Local != xmlKey {
				continue
			}

			attrValue, err := c.evalAttribute(objectField.Type, attr, append(fieldPaths, key))
			if err != nil {
				return nil, err
			}

			result[key] = attrValue

			break
		}
	}

	_, textFieldName, isLeaf := findXMLLeafObjectField(objectType)
	if isLeaf {
		textValue, err := c.decodeSimpleScalarValue(block, schema.ScalarString, fieldPaths)
		if err != nil {
			return nil, err
		}

		result[textFieldName] = textValue

		return result, nil
	}

	for key, objectField := range objectType.Fields {
		xmlKey := key
		if objectField.XML != nil {
			if objectField.XML.Attribute {
				continue
			}

			xmlKey = getXMLName(objectField.XML, key)
		}

		fieldElems, ok := block.Fields[xmlKey]
		if !ok || fieldElems == nil {
			continue
		}

		switch len(fieldElems) {
		case 0:
			result[key] = []any{}
		case 1:
			propPaths := append(fieldPaths, key)
			if objectField.XML != nil && objectField.XML.Wrapped {
				fieldResult, err := c.evalXMLField(&fieldElems[0], xmlKey, objectField, propPaths)
				if err != nil {
					return nil, err
				}

				result[key] = fieldResult

				continue
			}

			at, nt, err := getArrayOrNamedType(objectField.Type)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", strings.Join(propPaths, "."), err)
			}

			switch {
			case at != nil:
				fieldItem := c.getArrayItemObjectField(objectField, at)
				fieldResult, err := c.evalArrayElements(fieldElems, xmlKey, fieldItem, propPaths)
				if err != nil {
					return nil, err
				}

				result[key] = fieldResult
			case nt != nil:
				fieldResult, err := c.evalNamedField(&fieldElems[0], nt, propPaths)
				if err != nil {
					return nil, err
				}

				result[key] = fieldResult
			}
		default:
			fieldResult, err := c.evalXMLField(&xmlBlock{
				Start: fieldElems[0].Start,
				Fields: map[string][]xmlBlock{
					xmlKey: fieldElems,
				},
			}, xmlKey, objectField, append(fieldPaths, key))
			if err != nil {
				return nil, err
			}

			result[key] = fieldResult
		}
	}

	return result, nil
}

func (c *XMLDecoder) evalAttribute(fieldType schema.Type, attr xml.Attr, fieldPaths []string) (any, error) {
	switch t := fieldType.Interface().(type) {
	case *schema.NullableType:
		return c.evalAttribute(t.UnderlyingType, attr, fieldPaths)
	case *schema.ArrayType:
		var result any
		if err := json.Unmarshal([]byte(attr.Value), &result); err != nil {
			return nil, fmt.Errorf("%s: failed to decode xml attribute, %w", strings.Join(fieldPaths, ","), err)
		}

		return result, nil
	case *schema.NamedType:
		if isScalarKind(t.Name) {
			return c.decodeSimpleScalarValue(&xmlBlock{Data: attr.Value}, schema.ScalarKind(t.Name), fieldPaths)
		}

		var result any
		if err := json.Unmarshal([]byte(attr.Value), &result); err != nil {
			return nil, fmt.Errorf("%s: failed to decode xml attribute, %w", strings.Join(fieldPaths, ","), err)
		}

		return result, nil
	default:
		return nil, fmt.Errorf("%s: unsupported attribute type", strings.Join(fieldPaths, "."))
	}
}

func (c *XMLDecoder) decodeSimpleScalarValue(block *xmlBlock, kind schema.ScalarKind, fieldPaths []string) (any, error) {
	var result any
	var err error

	switch kind {
	case schema.ScalarString:
		result = block.Data
	case schema.ScalarBoolean:
		if len(block.Data) > 0 {
			result, err = strconv.ParseBool(block.Data)
		}
	case schema.ScalarInteger:
		if len(block.Data) > 0 {
			result, err = strconv.ParseInt(block.Data, 10, 64)
		}
	case schema.ScalarNumber:
		if len(block.Data) > 0 {
			result, err = strconv.ParseFloat(block.Data, 64)
		}
	case schema.ScalarObject:
		result = decodeArbitraryXMLBlock(block)
	default:
		if len(block.Data) > 0 {
			result = block.Data
		}
	}

	if err != nil {
		return nil, fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
	}

	return result, nil
}

func isScalarKind(name string) bool {
	switch schema.ScalarKind(name) {
	case schema.ScalarInteger, schema.ScalarNumber, schema.ScalarBoolean, schema.ScalarString, schema.ScalarObject, schema.ScalarNone:
		return true
	default:
		return false
	}
}

func decodeArbitraryXMLBlock(block *xmlBlock) any {
	if len(block.Start.Attr) == 0 && len(block.Fields) == 0 {
		return block.Data
	}

	result := make(map[string]any)
	if len(block.Start.Attr) > 0 {
		attributes := make(map[string]string)
		for _, attr := range block.Start.Attr {
			attributes[attr.Name.Local] = attr.Value
		}
		result["attributes"] = attributes
	}

	if len(block.Fields) == 0 {
		result["content"] = block.Data

		return result
	}

	for key, field := range block.Fields {
		switch len(field) {
		case 0:
		case 1:
			// limitation: we can't know if the array is wrapped
			result[key] = decodeArbitraryXMLBlock(&field[0])
		default:
			items := make([]any, len(field))
			for i, f := range field {
				items[i] = decodeArbitraryXMLBlock(&f)
			}
			result[key] = items
		}
	}

	return result
}

type xmlBlock struct {
	Start  xml.StartElement
	Data   string
	Fields map[string][]xmlBlock
}

func createXMLBlock(start xml.StartElement) *xmlBlock {
	return &xmlBlock{
		Start:  start,
		Fields: map[string][]xmlBlock{},
	}
}

func evalXMLTree(decoder *xml.Decoder, block *xmlBlock) error {
L:
	for {
		nextToken, err := decoder.Token()
		if err != nil {
			return err
		}

		if nextToken == nil {
			return nil
		}

		switch tok := nextToken.(type) {
		case xml.StartElement:
			childBlock := createXMLBlock(tok)
			if err := evalXMLTree(decoder, childBlock); err != nil {
				return err
			}
			block.Fields[tok.Name.Local] = append(block.Fields[tok.Name.Local], *childBlock)
		case xml.CharData:
			block.Data = string(tok)
		case xml.EndElement:
			break L
		}
	}

	return nil
}

// DecodeArbitraryXML decodes arbitrary XML from a reader stream without a
// target schema, producing the raw block tree per §4.2's "element with no
// children and no attributes → string" rule.
func DecodeArbitraryXML(r io.Reader) (any, error) {
	decoder := xml.NewDecoder(r)

	for {
		token, err := decoder.Token()
		if err != nil {
			return nil, err
		}
		if token == nil {
			break
		}

		if se, ok := token.(xml.StartElement); ok {
			xmlTree := createXMLBlock(se)
			if err := evalXMLTree(decoder, xmlTree); err != nil {
				return nil, fmt.Errorf("failed to decode the xml result: %w", err)
			}

			return decodeArbitraryXMLBlock(xmlTree), nil
		}
	}

	return nil, nil
}

func findXMLLeafObjectField(objectType schema.ObjectType) (*schema.ObjectField, string, bool) {
	var f *schema.ObjectField
	var fieldName string
	for key, field := range objectType.Fields {
		field := field
		if field.XML == nil {
			return nil, "", false
		}
		if field.XML.Text {
			f = &field
			fieldName = key
		} else if !field.XML.Attribute {
			return nil, "", false
		}
	}

	return f, fieldName, true
}

func getXMLName(xmlSchema *schema.XMLSchema, defaultName string) string {
	if xmlSchema != nil {
		if xmlSchema.Name != "" {
			return xmlSchema.GetFullName()
		}

		if xmlSchema.Prefix != "" {
			return xmlSchema.Prefix + ":" + defaultName
		}
	}

	return defaultName
}

func getArrayOrNamedType(fieldType schema.Type) (*schema.ArrayType, *schema.NamedType, error) {
	switch t := fieldType.Interface().(type) {
	case *schema.NullableType:
		return getArrayOrNamedType(t.UnderlyingType)
	case *schema.ArrayType:
		return t, nil, nil
	case *schema.NamedType:
		return nil, t, nil
	default:
		return nil, nil, nil
	}
}
