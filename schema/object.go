package schema

import "encoding/xml"

// ObjectType describes a complex target type a parameter or body can be
// bound to, per §4.3 step 6's "complex-type mapping".
type ObjectType struct {
	Description string
	Fields      map[string]ObjectField
	XML         *XMLSchema
}

// ObjectField is a single named field of an ObjectType.
type ObjectField struct {
	Description string
	Type        Type
	// PartAttribute marks this field as bound from a named multipart part
	// rather than from a decoded tree value (§4.3 step 7).
	PartAttribute string
	// XML carries this field's XML projection metadata (element/attribute
	// name, namespace, wrapped-array flag, text-content flag).
	XML *XMLSchema
	// ItemsXML carries XML metadata for this field's array element, when
	// Type is an ArrayType (e.g. an <item> name distinct from the field's
	// own element name).
	ItemsXML *XMLSchema
}

// TypeSchema is a serializable, OpenAPI-shaped validation schema attached
// to a parameter or field: bounds, format, and the XML projection.
type TypeSchema struct {
	Type        []string
	Format      string
	Pattern     string
	Maximum     *float64
	Minimum     *float64
	MaxLength   *int64
	MinLength   *int64
	Items       *TypeSchema
	XML         *XMLSchema
	Description string
	ReadOnly    bool
	WriteOnly   bool
}

// XMLSchema adds XML-representation metadata to an object type or field,
// per §4.2's XML decode rule and §9's wrapped-array open question.
type XMLSchema struct {
	// Name replaces the element/attribute name. When set on an array type,
	// it names the wrapping element if Wrapped is true and the repeated
	// item elements if Wrapped is false.
	Name string
	// Prefix is the namespace prefix used alongside Name.
	Prefix string
	// Namespace is the absolute URI of the namespace definition.
	Namespace string
	// Wrapped signifies whether an array is wrapped
	// (<books><book/><book/></books>) or unwrapped (<book/><book/>).
	Wrapped bool
	// Attribute declares this field translates to an XML attribute
	// instead of a child element.
	Attribute bool
	// Text marks this field as the element's text content.
	Text bool
}

// GetFullName returns the prefixed element/attribute name.
func (xs XMLSchema) GetFullName() string {
	if xs.Prefix == "" {
		return xs.Name
	}

	return xs.Prefix + ":" + xs.Name
}

// GetNamespaceAttribute builds the xmlns declaration attribute for this
// schema's namespace.
func (xs XMLSchema) GetNamespaceAttribute() xml.Attr {
	name := "xmlns"
	if xs.Prefix != "" {
		name += ":" + xs.Prefix
	}

	return xml.Attr{
		Name:  xml.Name{Local: name},
		Value: xs.Namespace,
	}
}
