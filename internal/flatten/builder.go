package flatten

import "log/slog"

// Builder orchestrates flatten, column computation and normalization for a
// batch of raw records. A single Builder is safe for concurrent use; it
// holds no per-build state.
type Builder struct {
	log *slog.Logger
}

// NewBuilder creates a Builder. A nil logger falls back to slog.Default.
func NewBuilder(log *slog.Logger) *Builder {
	if log == nil {
		log = slog.Default()
	}
	return &Builder{log: log}
}

// Build flattens a batch of raw records for the given definition and returns
// a ready-to-render table.
//
// Null and non-object top-level records are skipped with a diagnostic, and a
// panic while flattening a single record skips just that record; one bad
// record never aborts the batch. Consequently the output row count is at
// most the input record count.
func (b *Builder) Build(def Definition, records []any) Table {
	var rows []Row
	for i, raw := range records {
		if raw == nil {
			b.log.Warn("skipping null record", "kind", def.Kind, "index", i)
			continue
		}
		rec, ok := raw.(map[string]any)
		if !ok {
			b.log.Warn("skipping non-object record", "kind", def.Kind, "index", i)
			continue
		}
		flattened, err := b.flattenOne(def, rec)
		if err != nil {
			b.log.Warn("skipping malformed record",
				"kind", def.Kind, "index", i, "error", err)
			continue
		}
		rows = append(rows, flattened...)
	}
	return b.finish(def, rows)
}

// BuildRooms builds the two-level room-type/room hierarchy table. Both
// inputs are raw record slices; null entries on either side are tolerated
// by the flattener itself.
func (b *Builder) BuildRooms(roomTypes, rooms []any) Table {
	def := definitions[KindRooms]
	return b.finish(def, FlattenRooms(roomTypes, rooms))
}

func (b *Builder) finish(def Definition, rows []Row) Table {
	cols := Columns(rows, def.Priority)
	Normalize(rows, cols)
	return Table{Columns: cols, Rows: rows}
}

// flattenOne runs the kind flattener with a recover guard so a malformed
// record surfaces as an error instead of taking down the batch.
func (b *Builder) flattenOne(def Definition, rec Record) (rows []Row, err error) {
	defer func() {
		if r := recover(); r != nil {
			rows = nil
			err = &RecordError{Kind: def.Kind, Cause: r}
		}
	}()
	if def.Flatten == nil {
		return nil, &RecordError{Kind: def.Kind, Cause: "kind has no record flattener"}
	}
	return def.Flatten(rec), nil
}
