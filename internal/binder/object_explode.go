package binder

import (
	"github.com/kestrun/kestrun/internal/contenttype"
	"github.com/kestrun/kestrun/schema"
)

// explodeObjectFromFields implements form-style explode=true binding for
// an object-kind query/header parameter: each declared field of
// param.ObjectType is looked up as its own key in values (the object's
// property name, not the parameter's own name), per the "Form" member of
// §3's style enum. Grounded on the teacher's
// contenttype.ParameterItems/Key ordered key-value vocabulary, used here
// to collect each field's values before folding them into the plain map
// the script runtime expects.
func explodeObjectFromFields(values map[string][]string, objectType *schema.ObjectType) (map[string]any, bool) {
	if objectType == nil || len(objectType.Fields) == 0 {
		return nil, false
	}

	var items contenttype.ParameterItems
	found := false

	for fieldName := range objectType.Fields {
		fieldValues, ok := lookupCaseInsensitiveSlice(values, fieldName)
		if !ok || len(fieldValues) == 0 {
			continue
		}

		found = true
		items.Add([]contenttype.Key{contenttype.NewKey(fieldName)}, fieldValues)
	}

	if !found {
		return nil, false
	}

	result := make(map[string]any, len(items))
	for _, item := range items {
		name := item.Keys().String()
		vals := item.Values()

		if len(vals) == 1 {
			result[name] = vals[0]
		} else {
			result[name] = vals
		}
	}

	return result, true
}
