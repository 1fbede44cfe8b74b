package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/lodgeops/propex/internal/flatten"
	"github.com/lodgeops/propex/internal/history"
	"github.com/lodgeops/propex/internal/logging"
	"github.com/lodgeops/propex/internal/settings"
	"github.com/lodgeops/propex/internal/upstream"
)

// kindEndpoints maps single-call resource kinds to their upstream endpoint.
// Rooms is absent: it needs two calls and is handled separately.
var kindEndpoints = map[flatten.Kind]string{
	flatten.KindSources:        upstream.EndpointSources,
	flatten.KindTaxesFees:      upstream.EndpointTaxesFees,
	flatten.KindPaymentMethods: upstream.EndpointPaymentMethods,
	flatten.KindItems:          upstream.EndpointItems,
}

// rawBatch holds the raw records fetched for one property before building.
// Rooms populate roomTypes/rooms, every other kind populates records.
type rawBatch struct {
	records   []any
	roomTypes []any
	rooms     []any
}

func (b *rawBatch) merge(other rawBatch) {
	b.records = append(b.records, other.records...)
	b.roomTypes = append(b.roomTypes, other.roomTypes...)
	b.rooms = append(b.rooms, other.rooms...)
}

// credentials loads the stored credentials, letting ?propertyID= override
// the saved property for this request.
func (s *Server) credentials(r *http.Request) (settings.Credentials, error) {
	creds, err := s.store.Load()
	if err != nil {
		return creds, err
	}
	if pid := strings.TrimSpace(r.URL.Query().Get("propertyID")); pid != "" {
		creds.PropertyID = pid
	}
	return creds, nil
}

// fetchBatch performs the upstream call(s) for one kind and one property and
// extracts the raw record sequence from the response shape.
//
// For rooms the room-types call runs first and either call's failure aborts
// the batch; the error message is prefixed so the user can tell which call
// failed.
func (s *Server) fetchBatch(ctx context.Context, def flatten.Definition, token, propertyID string) (rawBatch, error) {
	if def.Kind == flatten.KindRooms {
		rtBody, err := s.client.Fetch(ctx, upstream.EndpointRoomTypes, token, propertyID)
		if err != nil {
			return rawBatch{}, fmt.Errorf("Room types: %w", err)
		}
		rBody, err := s.client.Fetch(ctx, upstream.EndpointRooms, token, propertyID)
		if err != nil {
			return rawBatch{}, fmt.Errorf("Rooms: %w", err)
		}
		return rawBatch{
			roomTypes: flatten.Records(rtBody),
			rooms:     flatten.RoomRecords(rBody),
		}, nil
	}

	body, err := s.client.Fetch(ctx, kindEndpoints[def.Kind], token, propertyID)
	if err != nil {
		return rawBatch{}, err
	}

	var recs []any
	switch def.Kind {
	case flatten.KindSources:
		recs = flatten.ListRecords(body)
	case flatten.KindPaymentMethods:
		recs = flatten.Unnest(flatten.Records(body))
	default:
		recs = flatten.Records(body)
	}
	return rawBatch{records: recs}, nil
}

// buildTable turns a raw batch into a normalized table.
func (s *Server) buildTable(def flatten.Definition, batch rawBatch) flatten.Table {
	if def.Kind == flatten.KindRooms {
		return s.builder.BuildRooms(batch.roomTypes, batch.rooms)
	}
	return s.builder.Build(def, batch.records)
}

// handleResource returns the handler for one resource kind: fetch, flatten,
// normalize, respond. The JSON payload carries the rows under the kind's
// payload key plus columns, count, and kind-specific counts.
func (s *Server) handleResource(kind flatten.Kind) http.HandlerFunc {
	def, ok := flatten.Lookup(string(kind))
	if !ok {
		panic("unknown resource kind: " + kind)
	}

	return func(w http.ResponseWriter, r *http.Request) {
		log := logging.FromContext(r.Context())

		creds, err := s.credentials(r)
		if err != nil {
			log.Error("loading settings failed", "error", err)
			writeFailure(w, "Could not load settings")
			return
		}
		if creds.AccessToken == "" {
			writeFailure(w, "Access token not configured")
			return
		}

		log.Info("fetching resource", "kind", def.Kind, "property_id", creds.PropertyID)

		batch, err := s.fetchBatch(r.Context(), def, creds.AccessToken, creds.PropertyID)
		if err != nil {
			log.Warn("upstream fetch failed", "kind", def.Kind, "error", err)
			s.recordHistory(def, creds.PropertyID, "json", 0, err)
			writeFailure(w, err.Error())
			return
		}

		table := s.buildTable(def, batch)
		s.recordHistory(def, creds.PropertyID, "json", len(table.Rows), nil)

		data := map[string]any{
			def.PayloadKey: table.Rows,
			"columns":      table.Columns,
			"count":        len(table.Rows),
		}
		addKindCounts(kind, table, data)

		writeSuccess(w, data)
	}
}

// addKindCounts attaches per-kind row breakdowns to the response payload.
func addKindCounts(kind flatten.Kind, table flatten.Table, data map[string]any) {
	switch kind {
	case flatten.KindRooms:
		data["room_types_count"] = countByType(table.Rows, "Room Type")
		data["rooms_count"] = countByType(table.Rows, "Room")
	case flatten.KindPaymentMethods:
		data["gateways_count"] = countByType(table.Rows, "Gateway")
		data["methods_count"] = countByType(table.Rows, "Payment Method")
	}
}

func countByType(rows []flatten.Row, dataType string) int {
	n := 0
	for _, row := range rows {
		if row["data_type"] == dataType {
			n++
		}
	}
	return n
}

// handleTestConnection checks credentials against the sources endpoint.
// Credentials can come from the query string (settings form, not yet saved)
// or fall back to the stored ones.
func (s *Server) handleTestConnection(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("access_token"))
	propertyID := strings.TrimSpace(r.URL.Query().Get("property_id"))

	if token == "" || propertyID == "" {
		creds, err := s.store.Load()
		if err != nil {
			writeFailure(w, "Could not load settings")
			return
		}
		token = creds.AccessToken
		propertyID = creds.PropertyID
	}

	if token == "" {
		writeFailure(w, "Please configure your access token first.")
		return
	}

	if _, err := s.client.Fetch(r.Context(), upstream.EndpointSources, token, propertyID); err != nil {
		writeFailure(w, err.Error())
		return
	}
	writeMessage(w, "Connection successful!")
}

// handleSaveSettings persists credentials from the settings form.
func (s *Server) handleSaveSettings(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccessToken string `json:"access_token"`
		PropertyID  string `json:"property_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeFailure(w, "Invalid request body")
		return
	}

	creds := settings.Credentials{
		AccessToken: strings.TrimSpace(body.AccessToken),
		PropertyID:  strings.TrimSpace(body.PropertyID),
	}
	if creds.PropertyID == "" {
		creds.PropertyID = settings.DefaultPropertyID
	}

	if err := s.store.Save(creds); err != nil {
		logging.FromContext(r.Context()).Error("saving settings failed", "error", err)
		writeFailure(w, "Could not save settings")
		return
	}
	writeMessage(w, "Settings saved successfully!")
}

// handleGetSettings returns the stored credentials.
func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	creds, err := s.store.Load()
	if err != nil {
		writeFailure(w, "Could not load settings")
		return
	}
	writeSuccess(w, creds)
}

// handleHistory returns recent operation history, newest first.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeSuccess(w, map[string]any{"entries": []history.Entry{}, "count": 0})
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}

	entries, err := s.history.Recent(limit)
	if err != nil {
		logging.FromContext(r.Context()).Error("loading history failed", "error", err)
		writeFailure(w, "Could not load history")
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	writeSuccess(w, map[string]any{"entries": entries, "count": len(entries)})
}

// handleHealth reports that the server is up; the UI polls it on load.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"success": true})
}

// recordHistory writes a history entry. Best-effort: failures are logged
// and never affect the request that produced them.
func (s *Server) recordHistory(def flatten.Definition, propertyID, format string, rowCount int, opErr error) {
	if s.history == nil {
		return
	}
	entry := history.Entry{
		Kind:       string(def.Kind),
		PropertyID: propertyID,
		Format:     format,
		RowCount:   rowCount,
		Status:     "ok",
	}
	if opErr != nil {
		entry.Status = "error"
		entry.Error = opErr.Error()
	}
	if err := s.history.Record(entry); err != nil {
		logging.FromContext(context.Background()).Warn("recording history failed", "error", err)
	}
}

// recordPartial writes the history entry for a bulk export that dropped
// some properties: status "partial" with the skipped ids in the error
// field, so the silent drop is visible after the fact.
func (s *Server) recordPartial(def flatten.Definition, propertyID, format string, rowCount int, failedIDs []string) {
	if s.history == nil {
		return
	}
	entry := history.Entry{
		Kind:       string(def.Kind),
		PropertyID: propertyID,
		Format:     format,
		RowCount:   rowCount,
		Status:     "partial",
		Error:      "skipped property ids: " + strings.Join(failedIDs, ", "),
	}
	if err := s.history.Record(entry); err != nil {
		logging.FromContext(context.Background()).Warn("recording history failed", "error", err)
	}
}
