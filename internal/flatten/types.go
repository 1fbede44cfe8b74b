// Package flatten turns the nested, inconsistently-shaped JSON records
// returned by the PMS API into uniform tables: every row carries the same
// ordered set of columns, with deterministic column ordering and empty-string
// defaults for missing fields. This package has no HTTP or UI dependencies.
package flatten

// Record is one raw upstream record as decoded by encoding/json:
// values are nil, string, float64, bool, map[string]any or []any.
type Record = map[string]any

// Row is a flattened record. Values are scalars only; nested structures
// have either been expanded into path-derived keys (tax_1_amount) or
// stringified, depending on the resource kind.
type Row = map[string]any

// Table is the result of a build: an ordered column set plus rows that have
// been normalized against it. Every row has a value (possibly "") for every
// column.
type Table struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Kind selects which schema-specific flattening rules apply.
type Kind string

const (
	KindSources        Kind = "sources"
	KindTaxesFees      Kind = "taxes-fees"
	KindRooms          Kind = "rooms"
	KindPaymentMethods Kind = "payment-methods"
	KindItems          Kind = "items"
)

// Definition describes one resource kind: how its rows are named in JSON
// responses and export filenames, which columns are pinned to the front of
// the table, and how a single record flattens.
//
// Flatten returns zero or more rows for one record; payment methods expand
// a single record into a gateway row plus one row per method. Rooms are the
// exception: their two-collection hierarchy is built by Builder.BuildRooms
// and their Flatten is nil.
type Definition struct {
	Kind       Kind
	Label      string
	PayloadKey string   // key for the row slice in JSON API responses
	FilePrefix string   // export filename prefix
	Priority   []string // columns pinned to the front of the table
	Flatten    func(rec Record) []Row
}

var definitions = map[Kind]Definition{
	KindSources: {
		Kind:       KindSources,
		Label:      "Sources",
		PayloadKey: "sources",
		FilePrefix: "sources",
		Priority: []string{
			"propertyID", "sourceID", "sourceName", "isThirdParty",
			"status", "commission", "paymentCollect",
		},
		Flatten: flattenSource,
	},
	KindTaxesFees: {
		Kind:       KindTaxesFees,
		Label:      "Taxes & Fees",
		PayloadKey: "items",
		FilePrefix: "taxes_fees",
		Priority:   []string{"data_type", "propertyID"},
		Flatten:    flattenGeneric,
	},
	KindRooms: {
		Kind:       KindRooms,
		Label:      "Rooms",
		PayloadKey: "items",
		FilePrefix: "rooms",
		Priority: []string{
			"data_type", "propertyID", "roomtype_roomTypeID",
			"roomtype_roomTypeName", "room_roomID", "room_roomName",
		},
	},
	KindPaymentMethods: {
		Kind:       KindPaymentMethods,
		Label:      "Payment Methods",
		PayloadKey: "items",
		FilePrefix: "payment_methods",
		Priority: []string{
			"data_type", "propertyID", "gateway_name", "gateway_currency",
			"method_type", "method_code", "method_name", "card_types",
		},
		Flatten: flattenPaymentMethods,
	},
	KindItems: {
		Kind:       KindItems,
		Label:      "Items",
		PayloadKey: "items",
		FilePrefix: "items",
		Priority: []string{
			"id", "type", "sku", "code", "name",
			"categoryID", "categoryName",
		},
		Flatten: flattenItem,
	},
}

// Lookup returns the definition for a kind key (the value used in URLs,
// e.g. "taxes-fees"). Returns false for unknown kinds.
func Lookup(kind string) (Definition, bool) {
	def, ok := definitions[Kind(kind)]
	return def, ok
}

// Kinds returns all known kind keys in a fixed presentation order.
func Kinds() []Kind {
	return []Kind{KindSources, KindTaxesFees, KindRooms, KindPaymentMethods, KindItems}
}
