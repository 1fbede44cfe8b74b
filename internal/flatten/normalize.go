package flatten

// Normalize fills missing column keys with an empty-string default so every
// row has every column. Rows are mutated in place and returned for
// convenience. Normalizing an already-normalized row set is a no-op.
func Normalize(rows []Row, columns []string) []Row {
	for _, row := range rows {
		for _, col := range columns {
			if _, ok := row[col]; !ok {
				row[col] = ""
			}
		}
	}
	return rows
}
