package flatten

// The upstream API wraps its payloads inconsistently. Most endpoints return
// {"success":true,"data":[...]}, sources sometimes double-nests the array
// ({"data":[[...]]}), single objects arrive bare, and the rooms endpoint
// returns one {"propertyID":..,"rooms":[...]} wrapper per property. These
// helpers reduce every shape to a plain []any of candidate records.

// dataList extracts the record list from a list-shaped body: a bare array,
// or a map whose "data" holds an array (unwrapping [[...]] double nesting).
// Reports false for every other shape.
func dataList(body any) ([]any, bool) {
	switch v := body.(type) {
	case map[string]any:
		d, ok := v["data"].([]any)
		if !ok {
			return nil, false
		}
		if len(d) > 0 {
			if first, ok := d[0].([]any); ok {
				return first, true
			}
		}
		return d, true
	case []any:
		return v, true
	}
	return nil, false
}

// Records extracts the record slice from a decoded response body.
//
// Shapes handled:
//   - map with "data" whose value is [[...]]  -> the inner array
//   - map with "data" whose value is [...]    -> that array
//   - map with "data" holding a single value  -> one-element slice
//   - bare array                              -> as is
//   - any other non-nil value                 -> one-element slice
func Records(body any) []any {
	if list, ok := dataList(body); ok {
		return list
	}
	switch v := body.(type) {
	case map[string]any:
		inner, has := v["data"]
		if !has {
			return []any{v}
		}
		if inner == nil {
			return nil
		}
		return []any{inner}
	case nil:
		return nil
	default:
		return []any{v}
	}
}

// ListRecords extracts records from list-shaped bodies only. A single
// object under "data", a map without a record list, or a bare scalar all
// yield no records instead of a one-element wrap. Sources use this shape:
// a non-list payload means no sources, and wrapping it would fabricate an
// all-empty row.
func ListRecords(body any) []any {
	list, _ := dataList(body)
	return list
}

// Unnest handles responses wrapped one level deeper than usual: when the
// extracted slice is a single object that itself carries a "data" key (the
// payment-methods shape), the inner records are extracted from it. Any
// other input is returned unchanged.
func Unnest(records []any) []any {
	if len(records) != 1 {
		return records
	}
	wrapper, ok := records[0].(map[string]any)
	if !ok {
		return records
	}
	if _, has := wrapper["data"]; !has {
		return records
	}
	return Records(wrapper)
}

// RoomRecords extracts individual room records from a rooms response body.
// The endpoint nests an array of per-property wrappers and only the inner
// "rooms" arrays are the actual input sequence, concatenated across all
// property entries. Wrappers without a rooms array contribute nothing.
func RoomRecords(body any) []any {
	var rooms []any
	for _, entry := range Records(body) {
		wrapper, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		inner, ok := wrapper["rooms"].([]any)
		if !ok {
			continue
		}
		rooms = append(rooms, inner...)
	}
	return rooms
}
