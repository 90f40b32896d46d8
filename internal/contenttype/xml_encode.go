package contenttype

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/kestrun/kestrun/internal/util"
	"github.com/kestrun/kestrun/schema"
)

// XMLEncoder serializes the language-neutral value tree described by §4.2
// back to XML, used by the response adapter (C7) to render a postponed
// write whose recorded media type is application/xml.
type XMLEncoder struct {
	objects map[string]schema.ObjectType
}

// NewXMLEncoder creates an XML encoder that resolves named object types
// against objects.
func NewXMLEncoder(objects map[string]schema.ObjectType) *XMLEncoder {
	return &XMLEncoder{objects: objects}
}

// Encode marshals value, conformed to valueType, to XML bytes.
func (c *XMLEncoder) Encode(valueType schema.Type, value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	err := c.evalXMLField(enc, "root", schema.ObjectField{Type: valueType}, value, []string{})
	if err != nil {
		return nil, err
	}

	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return append([]byte(xml.Header), buf.Bytes()...), nil
}

// EncodeArbitrary serializes value to XML without a declared schema,
// inferring structure from Go's native map/slice/scalar shapes.
func (c *XMLEncoder) EncodeArbitrary(value any) ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)

	if err := c.encodeSimpleScalar(enc, "root", reflect.ValueOf(value), nil, []string{}); err != nil {
		return nil, err
	}

	if err := enc.Flush(); err != nil {
		return nil, err
	}

	return append([]byte(xml.Header), buf.Bytes()...), nil
}

func (c *XMLEncoder) evalXMLField(enc *xml.Encoder, name string, field schema.ObjectField, value any, fieldPaths []string) error {
	switch t := field.Type.Interface().(type) {
	case *schema.NullableType:
		if value == nil {
			return nil
		}

		return c.evalXMLField(enc, name, schema.ObjectField{Type: t.UnderlyingType, XML: field.XML}, value, fieldPaths)
	case *schema.ArrayType:
		if value == nil {
			return fmt.Errorf("%s: expect an array, got null", strings.Join(fieldPaths, "."))
		}

		values, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%s: expect an array, got %v", strings.Join(fieldPaths, "."), value)
		}

		var wrapped bool
		xmlName := name
		if field.XML != nil {
			wrapped = field.XML.Wrapped
			if field.XML.Name != "" {
				xmlName = field.XML.Name
			}
		}

		if wrapped {
			if err := enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: xmlName}}); err != nil {
				return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
			}
		}

		for i, v := range values {
			err := c.evalXMLField(enc, name, schema.ObjectField{Type: t.ElementType, XML: field.ItemsXML}, v, append(fieldPaths, strconv.Itoa(i)))
			if err != nil {
				return err
			}
		}

		if wrapped {
			if err := enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: xmlName}}); err != nil {
				return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
			}
		}

		return nil
	case *schema.NamedType:
		if value == nil {
			return fmt.Errorf("%s: expect a non-null value, got null", strings.Join(fieldPaths, "."))
		}

		xmlName := getXMLName(field.XML, name)

		if isScalarKind(t.Name) {
			if err := c.encodeSimpleScalar(enc, xmlName, reflect.ValueOf(value), nil, fieldPaths); err != nil {
				return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
			}

			return nil
		}

		objectType, ok := c.objects[t.Name]
		if !ok {
			return fmt.Errorf("%s: invalid type %s", strings.Join(fieldPaths, "."), t.Name)
		}

		values, ok := value.(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected a map, got %v", strings.Join(fieldPaths, "."), value)
		}

		var attributes []xml.Attr
		if objectType.XML != nil && objectType.XML.Namespace != "" {
			attributes = append(attributes, objectType.XML.GetNamespaceAttribute())
		}

		attrs, fieldKeys, err := c.evalAttributes(objectType, util.GetSortedKeys(objectType.Fields), values, fieldPaths)
		if err != nil {
			return err
		}
		attributes = append(attributes, attrs...)

		err = enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: xmlName}, Attr: attributes})
		if err != nil {
			return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
		}

		if leafField, leafName, isLeaf := findXMLLeafObjectField(objectType); isLeaf && leafField != nil {
			if fieldValue, ok := values[leafName]; ok && fieldValue != nil {
				textValue, err := c.encodeXMLText(leafField.Type, reflect.ValueOf(fieldValue), append(fieldPaths, leafName))
				if err != nil {
					return err
				}

				if textValue != nil {
					if err := enc.EncodeToken(xml.CharData(*textValue)); err != nil {
						return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
					}
				}
			}
		} else {
			for _, key := range fieldKeys {
				objectField := objectType.Fields[key]
				fieldValue := values[key]
				if err := c.evalXMLField(enc, key, objectField, fieldValue, append(fieldPaths, key)); err != nil {
					return err
				}
			}
		}

		if err := enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: xmlName}}); err != nil {
			return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
		}

		return nil
	default:
		return fmt.Errorf("%s: unsupported type", strings.Join(fieldPaths, "."))
	}
}

func (c *XMLEncoder) evalAttributes(objectType schema.ObjectType, keys []string, values map[string]any, fieldPaths []string) ([]xml.Attr, []string, error) {
	var attrs []xml.Attr
	remainKeys := make([]string, 0, len(keys))

	for _, key := range keys {
		objectField := objectType.Fields[key]
		if objectField.XML == nil || !objectField.XML.Attribute {
			remainKeys = append(remainKeys, key)

			continue
		}

		value, ok := values[key]
		if !ok || value == nil {
			continue
		}

		str, err := c.encodeXMLText(objectField.Type, reflect.ValueOf(value), append(fieldPaths, key))
		if err != nil {
			return nil, nil, err
		}
		if str == nil {
			continue
		}

		attrs = append(attrs, xml.Attr{
			Name:  xml.Name{Local: getXMLName(objectField.XML, key)},
			Value: *str,
		})
	}

	return attrs, remainKeys, nil
}

func (c *XMLEncoder) encodeXMLText(valueType schema.Type, value reflect.Value, fieldPaths []string) (*string, error) {
	switch t := valueType.Interface().(type) {
	case *schema.NullableType:
		if !value.IsValid() || (value.Kind() == reflect.Ptr && value.IsNil()) {
			return nil, nil
		}

		return c.encodeXMLText(t.UnderlyingType, value, fieldPaths)
	case *schema.ArrayType:
		resultBytes, err := json.Marshal(value.Interface())
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode xml attribute, %w", strings.Join(fieldPaths, "."), err)
		}

		result := string(resultBytes)

		return &result, nil
	case *schema.NamedType:
		if isScalarKind(t.Name) {
			str, err := StringifySimpleScalar(value, value.Kind())
			if err != nil {
				return nil, err
			}

			return &str, nil
		}

		resultBytes, err := json.Marshal(value.Interface())
		if err != nil {
			return nil, fmt.Errorf("%s: failed to encode xml attribute, %w", strings.Join(fieldPaths, "."), err)
		}

		result := string(resultBytes)

		return &result, nil
	default:
		return nil, fmt.Errorf("%s: failed to encode xml attribute, unsupported schema type", strings.Join(fieldPaths, "."))
	}
}

func (c *XMLEncoder) encodeSimpleScalar(enc *xml.Encoder, name string, reflectValue reflect.Value, attributes []xml.Attr, fieldPaths []string) error {
	if !reflectValue.IsValid() {
		return nil
	}

	kind := reflectValue.Kind()
	switch kind {
	case reflect.Slice, reflect.Array:
		if len(fieldPaths) == 0 {
			if err := enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}}); err != nil {
				return err
			}
		}

		for i := 0; i < reflectValue.Len(); i++ {
			item := reflectValue.Index(i)
			if err := c.encodeSimpleScalar(enc, name, item, attributes, append(fieldPaths, strconv.Itoa(i))); err != nil {
				return err
			}
		}

		if len(fieldPaths) == 0 {
			if err := enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}}); err != nil {
				return err
			}
		}

		return nil
	case reflect.Map:
		valueMap, ok := reflectValue.Interface().(map[string]any)
		if !ok {
			return fmt.Errorf("%s: expected map[string]any, got: %v", strings.Join(fieldPaths, "."), reflectValue.Interface())
		}

		return c.encodeScalarMap(enc, name, valueMap, attributes, fieldPaths)
	case reflect.Interface:
		if valueMap, ok := reflectValue.Interface().(map[string]any); ok {
			return c.encodeScalarMap(enc, name, valueMap, attributes, fieldPaths)
		}

		return c.encodeScalarString(enc, name, reflectValue, kind, attributes, fieldPaths)
	default:
		return c.encodeScalarString(enc, name, reflectValue, kind, attributes, fieldPaths)
	}
}

func (c *XMLEncoder) encodeScalarMap(enc *xml.Encoder, name string, valueMap map[string]any, attributes []xml.Attr, fieldPaths []string) error {
	if err := enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attributes}); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
	}

	for _, key := range util.GetSortedKeys(valueMap) {
		item := valueMap[key]
		if err := c.encodeSimpleScalar(enc, key, reflect.ValueOf(item), nil, append(fieldPaths, key)); err != nil {
			return err
		}
	}

	if err := enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}}); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
	}

	return nil
}

func (c *XMLEncoder) encodeScalarString(enc *xml.Encoder, name string, reflectValue reflect.Value, kind reflect.Kind, attributes []xml.Attr, fieldPaths []string) error {
	str, err := StringifySimpleScalar(reflectValue, kind)
	if err != nil {
		return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
	}

	if err := enc.EncodeToken(xml.StartElement{Name: xml.Name{Local: name}, Attr: attributes}); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
	}

	if err := enc.EncodeToken(xml.CharData(str)); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
	}

	if err := enc.EncodeToken(xml.EndElement{Name: xml.Name{Local: name}}); err != nil {
		return fmt.Errorf("%s: %w", strings.Join(fieldPaths, "."), err)
	}

	return nil
}
