package contenttype

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"os"

	"github.com/kestrun/kestrun/schema"
)

// maxMultipartPartDepth bounds nested multipart/mixed recursion per §4.3
// step 7; a part tree deeper than this is truncated rather than rejected.
const maxMultipartPartDepth = 4

// RawPart is a single decoded multipart part: its field name, declared
// content type, and either a spooled temp file path or a decoded nested
// payload (when the part is itself multipart/mixed).
type RawPart struct {
	Name          string
	ContentType   string
	TempPath      string
	NestedPayload []RawPart
	Data          []byte
}

// MultipartFormDecoder parses a multipart/form-data or multipart/mixed
// body into the raw-part list described by §4.3 step 7, then binds named
// parts onto a target ObjectType.
type MultipartFormDecoder struct {
	objects map[string]schema.ObjectType
}

// NewMultipartFormDecoder creates a multipart decoder that resolves named
// object types against objects.
func NewMultipartFormDecoder(objects map[string]schema.ObjectType) *MultipartFormDecoder {
	return &MultipartFormDecoder{objects: objects}
}

// ParseParts reads every part of reader into a RawPart list, spooling part
// bodies larger than spoolThreshold to temporary files and recursing into
// nested multipart/mixed parts up to maxMultipartPartDepth.
func ParseParts(reader *multipart.Reader, spoolThreshold int64) ([]RawPart, error) {
	return parsePartsDepth(reader, spoolThreshold, 0)
}

func parsePartsDepth(reader *multipart.Reader, spoolThreshold int64, depth int) ([]RawPart, error) {
	var parts []RawPart

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read multipart part: %w", err)
		}

		raw, err := readPart(part, spoolThreshold, depth)
		part.Close()
		if err != nil {
			return nil, err
		}

		parts = append(parts, raw)
	}

	return parts, nil
}

func readPart(part *multipart.Part, spoolThreshold int64, depth int) (RawPart, error) {
	raw := RawPart{
		Name:        part.FormName(),
		ContentType: part.Header.Get("Content-Type"),
	}
	if raw.Name == "" {
		raw.Name = part.FileName()
	}

	if isMultipartContentType(raw.ContentType) && depth < maxMultipartPartDepth {
		_, params, err := mime.ParseMediaType(raw.ContentType)
		if err == nil && params["boundary"] != "" {
			nested, err := parsePartsDepth(multipart.NewReader(part, params["boundary"]), spoolThreshold, depth+1)
			if err != nil {
				return RawPart{}, err
			}

			raw.NestedPayload = nested

			return raw, nil
		}
	}

	data, tempPath, err := spoolPart(part, spoolThreshold)
	if err != nil {
		return RawPart{}, err
	}

	raw.Data = data
	raw.TempPath = tempPath

	return raw, nil
}

func spoolPart(part *multipart.Part, spoolThreshold int64) ([]byte, string, error) {
	var buf bytes.Buffer

	n, err := io.CopyN(&buf, part, spoolThreshold+1)
	if err != nil && err != io.EOF {
		return nil, "", fmt.Errorf("%s: %w", part.FormName(), err)
	}
	if n <= spoolThreshold {
		return buf.Bytes(), "", nil
	}

	f, err := os.CreateTemp("", "kestrun-part-*")
	if err != nil {
		return nil, "", fmt.Errorf("%s: failed to spool part: %w", part.FormName(), err)
	}
	defer f.Close()

	if _, err := f.Write(buf.Bytes()); err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(f, part); err != nil {
		return nil, "", err
	}

	return nil, f.Name(), nil
}

func isMultipartContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)

	return err == nil && (mediaType == "multipart/mixed" || mediaType == "multipart/form-data")
}

// Bind maps a flat raw-part list onto resultType: named object fields
// tagged with a PartAttribute are populated from the part of the same
// name; string fields read UTF-8 text; nested multipart fields recurse;
// every unmatched part goes into the __additionalProperties bag, decoded
// as JSON when its data parses as JSON and kept as a string otherwise.
func (c *MultipartFormDecoder) Bind(parts []RawPart, resultType schema.Type) (map[string]any, error) {
	underlyingType, _, err := schema.UnwrapNullableType(resultType)
	if err != nil {
		return nil, err
	}

	namedType, ok := underlyingType.(*schema.NamedType)
	if !ok {
		return nil, fmt.Errorf("multipart body must bind to a named object type")
	}

	objectType, ok := c.objects[namedType.Name]
	if !ok {
		return nil, fmt.Errorf("invalid multipart body type %q", namedType.Name)
	}

	result := make(map[string]any)
	matched := make(map[string]bool)

	for key, field := range objectType.Fields {
		partName := key
		if field.PartAttribute != "" {
			partName = field.PartAttribute
		}

		for _, part := range parts {
			if part.Name != partName {
				continue
			}

			value, err := c.bindPart(part, field, []string{key})
			if err != nil {
				return nil, err
			}

			result[key] = value
			matched[partName] = true

			break
		}
	}

	additional := make(map[string]any)
	for _, part := range parts {
		if matched[part.Name] {
			continue
		}

		var decoded any
		if err := json.Unmarshal(part.Data, &decoded); err == nil {
			additional[part.Name] = decoded
		} else {
			additional[part.Name] = string(part.Data)
		}
	}
	if len(additional) > 0 {
		result["__additionalProperties"] = additional
	}

	return result, nil
}

func (c *MultipartFormDecoder) bindPart(part RawPart, field schema.ObjectField, fieldPaths []string) (any, error) {
	underlyingType, _, err := schema.UnwrapNullableType(field.Type)
	if err != nil {
		return nil, err
	}

	if named, ok := underlyingType.(*schema.NamedType); ok {
		if objectType, ok := c.objects[named.Name]; ok {
			if len(part.NestedPayload) > 0 {
				result := make(map[string]any)
				for key, nestedField := range objectType.Fields {
					partName := key
					if nestedField.PartAttribute != "" {
						partName = nestedField.PartAttribute
					}

					for _, nested := range part.NestedPayload {
						if nested.Name != partName {
							continue
						}

						value, err := c.bindPart(nested, nestedField, append(fieldPaths, key))
						if err != nil {
							return nil, err
						}

						result[key] = value

						break
					}
				}

				return result, nil
			}
		}

		if isScalarKind(named.Name) && schema.ScalarKind(named.Name) != schema.ScalarString {
			var decoded any
			if err := json.Unmarshal(part.Data, &decoded); err != nil {
				return nil, fmt.Errorf("%s: %w", joinPath(fieldPaths), err)
			}

			return decoded, nil
		}
	}

	if part.TempPath != "" {
		return part.TempPath, nil
	}

	return string(part.Data), nil
}

func joinPath(fieldPaths []string) string {
	result := ""
	for i, p := range fieldPaths {
		if i > 0 {
			result += "."
		}
		result += p
	}

	return result
}
