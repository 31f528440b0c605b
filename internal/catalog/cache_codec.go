package catalog

import "encoding/json"

// encodeCached/decodeCached serialize the generic withCache payload to and
// from the persistent tier's opaque []byte storage.
func encodeCached[T any](value T) ([]byte, bool) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, false
	}
	return raw, true
}

func decodeCached[T any](raw []byte) (T, bool) {
	var value T
	if err := json.Unmarshal(raw, &value); err != nil {
		var zero T
		return zero, false
	}
	return value, true
}
