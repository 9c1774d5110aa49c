package niri

import (
	"bytes"
	"encoding/json"
)

// object is a lazily decoded JSON object. Field accessors never fail: a
// missing, null or mistyped field reads as absent.
type object map[string]json.RawMessage

func parseObject(raw json.RawMessage) (object, bool) {
	if len(raw) == 0 || isNull(raw) {
		return nil, false
	}
	var o object
	if err := json.Unmarshal(raw, &o); err != nil {
		return nil, false
	}
	return o, o != nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeInt(raw json.RawMessage) (int64, bool) {
	if len(raw) == 0 || isNull(raw) {
		return 0, false
	}
	var v int64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}

func (o object) getInt(key string) (int64, bool) {
	return decodeInt(o[key])
}

// optInt reads missing and null alike as nil.
func (o object) optInt(key string) *int64 {
	v, ok := o.getInt(key)
	if !ok {
		return nil
	}
	return &v
}

func (o object) optString(key string) (string, bool) {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func (o object) getString(key string) string {
	s, _ := o.optString(key)
	return s
}

func (o object) getBool(key string) bool {
	raw, ok := o[key]
	if !ok {
		return false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false
	}
	return b
}

func (o object) getArray(key string) []json.RawMessage {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

func (o object) getPair(key string) (Vec2, bool) {
	raw, ok := o[key]
	if !ok || isNull(raw) {
		return Vec2{}, false
	}
	var arr []float64
	if err := json.Unmarshal(raw, &arr); err != nil || len(arr) != 2 {
		return Vec2{}, false
	}
	return Vec2{X: arr[0], Y: arr[1]}, true
}
