package output

import (
	"bytes"
	"encoding/json"
	"reflect"
	"strings"
)

// DeterministicEncode produces byte-identical compact JSON output.
func DeterministicEncode(v interface{}) ([]byte, error) {
	normalized, err := normalizeValue(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(normalized); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DeterministicEncodeIndented produces indented byte-identical JSON output.
func DeterministicEncodeIndented(v interface{}, indent string) ([]byte, error) {
	normalized, err := normalizeValue(v)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", indent)
	if err := encoder.Encode(normalized); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

var marshalerType = reflect.TypeOf((*json.Marshaler)(nil)).Elem()

// normalizeValue turns v into maps, slices and scalars that encoding/json
// writes in a stable order.
func normalizeValue(v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	val := reflect.ValueOf(v)

	if val.Type().Implements(marshalerType) {
		if val.Kind() == reflect.Ptr && val.IsNil() {
			return nil, nil
		}
		return viaMarshaler(v.(json.Marshaler))
	}

	for val.Kind() == reflect.Ptr || val.Kind() == reflect.Interface {
		if val.IsNil() {
			return nil, nil
		}
		val = val.Elem()
		if val.CanInterface() && val.Type().Implements(marshalerType) {
			return viaMarshaler(val.Interface().(json.Marshaler))
		}
	}

	switch val.Kind() {
	case reflect.Map:
		return normalizeMap(val)
	case reflect.Slice, reflect.Array:
		if val.Kind() == reflect.Slice && val.Type().Elem().Kind() == reflect.Uint8 {
			return val.Interface(), nil
		}
		return normalizeSlice(val)
	case reflect.Struct:
		return normalizeStruct(val)
	default:
		return val.Interface(), nil
	}
}

// viaMarshaler re-decodes a value's own JSON so its keys can be sorted too.
func viaMarshaler(m json.Marshaler) (interface{}, error) {
	data, err := m.MarshalJSON()
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func normalizeMap(val reflect.Value) (interface{}, error) {
	if val.IsNil() {
		return nil, nil
	}
	// encoding/json sorts map keys, so a string-keyed map is enough.
	result := make(map[string]interface{}, val.Len())
	iter := val.MapRange()
	for iter.Next() {
		value, err := normalizeValue(iter.Value().Interface())
		if err != nil {
			return nil, err
		}
		if value != nil {
			result[keyString(iter.Key())] = value
		}
	}
	return result, nil
}

func keyString(k reflect.Value) string {
	if k.Kind() == reflect.String {
		return k.String()
	}
	data, err := json.Marshal(k.Interface())
	if err != nil {
		return ""
	}
	return strings.Trim(string(data), `"`)
}

func normalizeSlice(val reflect.Value) (interface{}, error) {
	if val.Kind() == reflect.Slice && val.IsNil() {
		return nil, nil
	}
	result := make([]interface{}, val.Len())
	for i := range result {
		item, err := normalizeValue(val.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		result[i] = item
	}
	return result, nil
}

func normalizeStruct(val reflect.Value) (interface{}, error) {
	result := make(map[string]interface{})
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		if !field.IsExported() {
			continue
		}
		name, omitEmpty, skip := jsonFieldName(field)
		if skip {
			continue
		}

		fieldVal := val.Field(i)
		if field.Anonymous && field.Tag.Get("json") == "" && indirectKind(fieldVal) == reflect.Struct {
			embedded, err := normalizeValue(fieldVal.Interface())
			if err != nil {
				return nil, err
			}
			// Outer fields shadow promoted ones.
			if m, ok := embedded.(map[string]interface{}); ok {
				for k, v := range m {
					if _, exists := result[k]; !exists {
						result[k] = v
					}
				}
			}
			continue
		}
		if omitEmpty && fieldVal.IsZero() {
			continue
		}
		if omitEmpty && (fieldVal.Kind() == reflect.Slice || fieldVal.Kind() == reflect.Map) && fieldVal.Len() == 0 {
			continue
		}

		normalized, err := normalizeValue(fieldVal.Interface())
		if err != nil {
			return nil, err
		}
		if normalized != nil {
			result[name] = normalized
		}
	}
	return result, nil
}

func indirectKind(v reflect.Value) reflect.Kind {
	for v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return reflect.Invalid
		}
		v = v.Elem()
	}
	return v.Kind()
}

func jsonFieldName(field reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := field.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = field.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}
