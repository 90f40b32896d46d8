package binder

import (
	"bytes"
	"fmt"
	"io"

	"github.com/kestrun/kestrun/internal/apperror"
	"github.com/kestrun/kestrun/internal/contenttype"
	"github.com/kestrun/kestrun/internal/negotiate"
	"github.com/kestrun/kestrun/schema"
)

// Logger is the structured logging sink Bind reports each resolved
// binding to at debug level, per §4.3's "every parameter binding is
// recorded at debug level with (name, schema, clr-type, location)".
type Logger interface {
	Debug(msg string, keysAndValues ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}

// Decoder is the C2 contract every body decoder in this package
// implements: parse raw bytes into the language-neutral value tree,
// already conformed to resultType.
type Decoder interface {
	Decode(r io.Reader, resultType schema.Type) (any, error)
}

// Registry maps a canonical media type to the decoder responsible for it.
type Registry map[string]Decoder

// NewDefaultRegistry builds the standard Decoder set for the canonical
// media types that have a tree decoder (JSON, YAML, XML, form-urlencoded,
// BSON, CBOR, CSV), resolving named object types against objects.
// Multipart bodies are bound through the separate MultipartFormDecoder;
// application/octet-stream has no entry.
func NewDefaultRegistry(objects map[string]schema.ObjectType) Registry {
	return Registry{
		"application/json":                  contenttype.NewJSONDecoder(objects),
		"application/yaml":                  contenttype.NewYAMLDecoder(objects),
		"application/xml":                   contenttype.NewXMLDecoder(objects),
		"application/x-www-form-urlencoded": contenttype.NewFormURLEncodedDecoder(objects),
		"application/bson":                  contenttype.NewBSONDecoder(objects),
		"application/cbor":                  contenttype.NewCBORDecoder(objects),
		"text/csv":                          contenttype.NewCSVDecoder(objects),
	}
}

// Bind resolves every parameter in params against req, per §4.3's
// per-parameter algorithm. Parameters are bound independently; a failure
// on any one aborts the whole bind with a parameter-binding-failure
// error naming that parameter.
func Bind(req *RawRequest, params []schema.ParameterDescriptor, decoders Registry, multipartDecoder *contenttype.MultipartFormDecoder, logger Logger) (map[string]any, error) {
	if logger == nil {
		logger = noopLogger{}
	}

	result := make(map[string]any, len(params))

	for _, param := range params {
		value, err := bindOne(req, param, decoders, multipartDecoder)
		if err != nil {
			return nil, apperror.ParameterBindingFailure(param.Name, err)
		}

		logger.Debug("parameter_bound", "name", param.Name, "kind", string(param.Kind), "location", string(param.Location))

		result[param.Name] = value
	}

	return result, nil
}

func bindOne(req *RawRequest, param schema.ParameterDescriptor, decoders Registry, multipartDecoder *contenttype.MultipartFormDecoder) (any, error) {
	single, multi, found := locate(req, param)

	if !found {
		if param.HasDefault {
			return applyDefault(req, param)
		}

		return nil, nil
	}

	return coerce(req, param, single, multi, decoders, multipartDecoder)
}

// locate implements §4.3 step 1.
func locate(req *RawRequest, param schema.ParameterDescriptor) (single string, multi []string, found bool) {
	switch param.Location {
	case schema.LocationPath:
		v, ok := req.pathValue(param.Name)

		return v, nil, ok
	case schema.LocationQuery:
		values, ok := req.queryValues(param.Name)
		if !ok || len(values) == 0 {
			return "", nil, false
		}

		return values[0], values, true
	case schema.LocationHeader:
		values, ok := req.headerValues(param.Name)
		if !ok || len(values) == 0 {
			return "", nil, false
		}

		return values[0], values, true
	case schema.LocationCookie:
		v, ok := req.cookieValue(param.Name)

		return v, nil, ok
	default: // LocationBody or unset: handled by coerce directly via req.Body
		return "", nil, req.HasBody || len(req.MultipartParts) > 0
	}
}

// applyDefault implements §4.3 step 2.
func applyDefault(req *RawRequest, param schema.ParameterDescriptor) (any, error) {
	if getter, ok := param.DefaultValue.(DefaultValueGetter); ok {
		return getter.GetValue(req.headerMap(), param.Kind)
	}

	return param.DefaultValue, nil
}

// coerce implements §4.3 steps 3-7.
func coerce(req *RawRequest, param schema.ParameterDescriptor, single string, multi []string, decoders Registry, multipartDecoder *contenttype.MultipartFormDecoder) (any, error) {
	switch param.Kind {
	case schema.ScalarInteger:
		return coerceStringToScalarKind(single, schema.ScalarInteger)
	case schema.ScalarNumber:
		return coerceStringToScalarKind(single, schema.ScalarNumber)
	case schema.ScalarBoolean:
		return coerceStringToScalarKind(single, schema.ScalarBoolean)
	case schema.ScalarUUID:
		return coerceStringToScalarKind(single, schema.ScalarUUID)
	case schema.ScalarArray:
		if param.Location == schema.LocationBody {
			return bindBody(req, param, decoders, multipartDecoder)
		}

		if len(multi) > 0 {
			result := make([]any, len(multi))
			for i, v := range multi {
				result[i] = v
			}

			return result, nil
		}

		return []any{single}, nil
	case schema.ScalarObject:
		if param.Location == schema.LocationBody {
			return bindBody(req, param, decoders, multipartDecoder)
		}

		if param.Style == schema.StyleForm && param.Explode {
			values := req.Query
			if param.Location == schema.LocationHeader {
				values = req.Headers
			}

			if exploded, ok := explodeObjectFromFields(values, param.ObjectType); ok {
				return exploded, nil
			}
		}

		return coerceStringToScalarKind(single, schema.ScalarObject)
	default: // ScalarString, ScalarNone
		if param.Location == schema.LocationBody && req.Body != nil {
			raw, err := io.ReadAll(req.Body)
			if err != nil {
				return nil, err
			}

			return string(raw), nil
		}

		return single, nil
	}
}

// bindBody implements §4.3 steps 5 and 7 for an object-kind body
// parameter: decide the content type, dispatch to multipart binding or
// the matching C2 decoder.
func bindBody(req *RawRequest, param schema.ParameterDescriptor, decoders Registry, multipartDecoder *contenttype.MultipartFormDecoder) (any, error) {
	if param.FormOptions != nil {
		if multipartDecoder == nil {
			return nil, fmt.Errorf("route declares multipart form options but no multipart decoder is configured")
		}

		return multipartDecoder.Bind(req.MultipartParts, param.Type)
	}

	contentType, err := resolveBodyContentType(req, param)
	if err != nil {
		return nil, err
	}

	decoder, ok := decoders[contentType]
	if !ok {
		return nil, apperror.UnsupportedContentType(req.ContentType, param.ContentTypes)
	}

	body := req.Body
	if body == nil {
		body = bytes.NewReader(nil)
	}

	return decoder.Decode(body, param.Type)
}

// resolveBodyContentType implements §4.3 step 5.
func resolveBodyContentType(req *RawRequest, param schema.ParameterDescriptor) (string, error) {
	if req.ContentType != "" {
		canonical, err := negotiate.Canonicalize(req.ContentType)
		if err != nil {
			return "", apperror.MalformedContentType(req.ContentType)
		}

		return canonical, nil
	}

	if len(param.ContentTypes) == 1 {
		canonical, err := negotiate.Canonicalize(param.ContentTypes[0])
		if err != nil {
			return "", apperror.MalformedContentType(param.ContentTypes[0])
		}

		return canonical, nil
	}

	return "", apperror.MissingContentType(param.ContentTypes)
}
