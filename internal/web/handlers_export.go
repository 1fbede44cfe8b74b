package web

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/lodgeops/propex/internal/export"
	"github.com/lodgeops/propex/internal/flatten"
	"github.com/lodgeops/propex/internal/logging"
)

// handleExport returns the download handler for one file format ("csv" or
// "xlsx"). Unlike the JSON API, export failures use real status codes with
// plain-text bodies: 400 for bad input, 404 for an empty result, 502 when
// the upstream call fails.
func (s *Server) handleExport(format string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		kindKey := r.URL.Query().Get("type")
		if kindKey == "" {
			kindKey = string(flatten.KindSources)
		}
		def, ok := flatten.Lookup(kindKey)
		if !ok {
			http.Error(w, "Invalid data type", http.StatusBadRequest)
			return
		}

		creds, err := s.credentials(r)
		if err != nil {
			http.Error(w, "Could not load settings", http.StatusInternalServerError)
			return
		}
		if creds.AccessToken == "" {
			http.Error(w, "Access token not configured", http.StatusBadRequest)
			return
		}

		var (
			table     flatten.Table
			propLabel string
			failedIDs []string
		)

		if bulk := strings.TrimSpace(r.URL.Query().Get("bulkPropertyIds")); bulk != "" {
			ids := splitIDs(bulk)
			table, failedIDs = s.buildBulk(r.Context(), def, creds.AccessToken, ids)
			propLabel = "bulk"
		} else {
			batch, err := s.fetchBatch(r.Context(), def, creds.AccessToken, creds.PropertyID)
			if err != nil {
				log.Warn("export fetch failed", "kind", def.Kind, "error", err)
				s.recordHistory(def, creds.PropertyID, format, 0, err)
				http.Error(w, "Export error: "+err.Error(), http.StatusBadGateway)
				return
			}
			table = s.buildTable(def, batch)
			propLabel = creds.PropertyID
		}

		if len(table.Rows) == 0 {
			http.Error(w, "No data to export", http.StatusNotFound)
			return
		}

		filename := export.Filename(def.FilePrefix, propLabel, format)
		log.Info("exporting", "kind", def.Kind, "format", format,
			"rows", len(table.Rows), "filename", filename)

		var writeErr error
		switch format {
		case "xlsx":
			writeErr = export.WriteXLSX(w, table, filename)
		default:
			writeErr = export.WriteCSV(w, table, filename)
		}
		if writeErr != nil {
			// Headers are gone by now; all we can do is log.
			log.Error("writing export failed", "format", format, "error", writeErr)
			return
		}

		if len(failedIDs) > 0 {
			s.recordPartial(def, propLabel, format, len(table.Rows), failedIDs)
		} else {
			s.recordHistory(def, propLabel, format, len(table.Rows), nil)
		}
	}
}

// buildBulk fetches one property at a time, sequentially, and builds a
// single table from the concatenation. A property whose call fails is
// logged and dropped; the export still succeeds with the remaining
// properties' rows, and the dropped ids are returned so the history entry
// can note them. Records are sorted by stringified propertyID before the
// build so the output groups by property.
func (s *Server) buildBulk(ctx context.Context, def flatten.Definition, token string, ids []string) (flatten.Table, []string) {
	log := logging.FromContext(ctx)

	var combined rawBatch
	var failed []string
	for _, id := range ids {
		batch, err := s.fetchBatch(ctx, def, token, id)
		if err != nil {
			log.Warn("bulk export: skipping property", "kind", def.Kind,
				"property_id", id, "error", err)
			failed = append(failed, id)
			continue
		}
		combined.merge(batch)
	}

	sortByProperty(combined.records)
	sortByProperty(combined.roomTypes)
	sortByProperty(combined.rooms)

	return s.buildTable(def, combined), failed
}

// splitIDs parses a comma-separated id list, dropping empties.
func splitIDs(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sortByProperty stably sorts raw records by their stringified propertyID.
// Records without one sort first under the empty string.
func sortByProperty(records []any) {
	sort.SliceStable(records, func(i, j int) bool {
		return recordPropertyID(records[i]) < recordPropertyID(records[j])
	})
}

func recordPropertyID(v any) string {
	rec, ok := v.(map[string]any)
	if !ok {
		return ""
	}
	return flatten.Stringify(rec["propertyID"])
}
