package flatten

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// field returns rec[key], defaulting to "" when the key is missing or the
// record itself is nil. Mirrors the safe-access rule every kind shares.
func field(rec Record, key string) any {
	if rec == nil {
		return ""
	}
	if v, ok := rec[key]; ok && v != nil {
		return v
	}
	return ""
}

// Stringify renders a value the way it should appear in a cell: strings
// pass through, integral floats print without a trailing ".0", nil becomes
// "", and residual nested structures render as compact JSON.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case json.Number:
		return t.String()
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}

// sourceFields are copied verbatim from a source record, missing values
// defaulting to "".
var sourceFields = []string{
	"propertyID", "sourceID", "sourceName", "isThirdParty",
	"status", "commission", "paymentCollect",
}

var taxSubFields = []string{"taxID", "name", "amount", "amountType", "type"}
var feeSubFields = []string{"feeID", "name", "amount", "amountType", "type"}

// flattenSource flattens one source record: seven scalar fields plus
// positionally-numbered tax_{n}_* and fee_{n}_* groups.
//
// Numbering follows the entry's position in the original sequence, not the
// count of valid entries: a null second tax still consumes index 2, leaving
// that slot absent rather than renumbering later entries.
func flattenSource(rec Record) []Row {
	row := make(Row, len(sourceFields))
	for _, f := range sourceFields {
		row[f] = field(rec, f)
	}
	expandSubList(row, rec, "taxes", "tax", taxSubFields)
	expandSubList(row, rec, "fees", "fee", feeSubFields)
	return []Row{row}
}

// expandSubList emits prefix_{index+1}_{field} entries for each dict-shaped
// element of rec[key]. Null or non-dict elements are skipped but still
// consume their index.
func expandSubList(row Row, rec Record, key, prefix string, fields []string) {
	list, ok := rec[key].([]any)
	if !ok {
		return
	}
	for i, entry := range list {
		sub, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		for _, f := range fields {
			row[fmt.Sprintf("%s_%d_%s", prefix, i+1, f)] = field(sub, f)
		}
	}
}

// flattenGeneric copies every key of the record; values that are themselves
// objects or arrays are stringified rather than expanded. Used for the
// taxes-and-fees endpoint whose records have no fixed schema.
func flattenGeneric(rec Record) []Row {
	row := make(Row, len(rec))
	for k, v := range rec {
		switch v.(type) {
		case map[string]any, []any:
			row[k] = Stringify(v)
		default:
			row[k] = v
		}
	}
	return []Row{row}
}

// flattenPaymentMethods expands one payment-methods record into at most one
// "Gateway" row plus one "Payment Method" row per entry in methods. The
// gateway context is duplicated onto each method row.
func flattenPaymentMethods(rec Record) []Row {
	var rows []Row

	gateway, hasGateway := rec["gateway"].(map[string]any)
	gatewayName := field(gateway, "name")
	gatewayCurrency := field(gateway, "currency")

	if hasGateway {
		rows = append(rows, Row{
			"data_type":        "Gateway",
			"propertyID":       field(rec, "propertyID"),
			"gateway_name":     gatewayName,
			"gateway_currency": gatewayCurrency,
		})
	}

	methods, _ := rec["methods"].([]any)
	for _, entry := range methods {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		rows = append(rows, Row{
			"data_type":        "Payment Method",
			"propertyID":       field(rec, "propertyID"),
			"gateway_name":     gatewayName,
			"gateway_currency": gatewayCurrency,
			"method_type":      field(m, "type"),
			"method_code":      field(m, "code"),
			"method_name":      field(m, "name"),
			"card_types":       joinCardTypes(m["cardTypes"]),
		})
	}

	return rows
}

// joinCardTypes renders a cardTypes array as a comma-joined
// "{cardName} ({cardCode})" string. Entries without a name are dropped.
func joinCardTypes(v any) string {
	list, ok := v.([]any)
	if !ok {
		return ""
	}
	var out string
	for _, entry := range list {
		ct, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		name := Stringify(field(ct, "cardName"))
		if name == "" {
			continue
		}
		if out != "" {
			out += ", "
		}
		out += fmt.Sprintf("%s (%s)", name, Stringify(field(ct, "cardCode")))
	}
	return out
}

// itemFields are copied verbatim from an item record.
var itemFields = []string{
	"id", "type", "sku", "code", "name",
	"categoryID", "categoryName", "description",
	"price", "stock", "totalTaxes", "totalFees",
	"priceWithoutFeesAndTaxes", "grandTotal",
}

// flattenItem flattens one item record: named scalar fields plus
// tax_{n}_{name,value} and fee_{n}_{name,value} groups. Fee entries use
// feeName/feeValue when present, falling back to name/value.
func flattenItem(rec Record) []Row {
	row := make(Row, len(itemFields))
	for _, f := range itemFields {
		row[f] = field(rec, f)
	}

	if taxes, ok := rec["taxes"].([]any); ok {
		for i, entry := range taxes {
			tax, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			row[fmt.Sprintf("tax_%d_name", i+1)] = field(tax, "name")
			row[fmt.Sprintf("tax_%d_value", i+1)] = field(tax, "value")
		}
	}

	if fees, ok := rec["fees"].([]any); ok {
		for i, entry := range fees {
			fee, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			name := fee["feeName"]
			if name == nil {
				name = field(fee, "name")
			}
			value := fee["feeValue"]
			if value == nil {
				value = field(fee, "value")
			}
			row[fmt.Sprintf("fee_%d_name", i+1)] = name
			row[fmt.Sprintf("fee_%d_value", i+1)] = value
		}
	}

	return []Row{row}
}

// FlattenRooms builds the two-level room hierarchy: one "Room Type" row per
// room type, followed by one "Room" row for every room whose roomTypeID
// stringifies equal to the room type's. The comparison is on strings so
// mixed int/string typing from the API still matches.
//
// A room that matches several room types is emitted under each of them;
// upstream data that inconsistent produces duplicate room rows and that is
// accepted as is.
func FlattenRooms(roomTypes, rooms []any) []Row {
	var out []Row

	for _, rtEntry := range roomTypes {
		rt, ok := rtEntry.(map[string]any)
		if !ok {
			continue
		}

		rtRow := Row{"data_type": "Room Type"}
		for k, v := range rt {
			rtRow["roomtype_"+k] = v
		}
		out = append(out, rtRow)

		rtID := Stringify(field(rt, "roomTypeID"))
		for _, roomEntry := range rooms {
			room, ok := roomEntry.(map[string]any)
			if !ok {
				continue
			}
			if Stringify(field(room, "roomTypeID")) != rtID {
				continue
			}
			row := Row{"data_type": "Room"}
			for k, v := range rt {
				row["roomtype_"+k] = v
			}
			for k, v := range room {
				row["room_"+k] = v
			}
			out = append(out, row)
		}
	}

	return out
}
