package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/lodgeops/propex/internal/config"
	"github.com/lodgeops/propex/internal/history"
	"github.com/lodgeops/propex/internal/settings"
	"github.com/lodgeops/propex/internal/upstream"
)

// apiResponse is the uniform JSON API envelope.
type apiResponse struct {
	Success bool           `json:"success"`
	Error   string         `json:"error"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

type fixture struct {
	server *Server
	store  *settings.Store
}

// newFixture builds a Server against a fake upstream. creds are saved to a
// temp settings file before the server sees its first request; withHistory
// adds a temp SQLite history store.
func newFixture(t *testing.T, upstreamHandler http.HandlerFunc, creds settings.Credentials, withHistory bool) *fixture {
	t.Helper()

	up := httptest.NewServer(upstreamHandler)
	t.Cleanup(up.Close)

	cfg := &config.Config{}
	cfg.Server.RequestTimeout = time.Minute

	store := settings.NewStore(filepath.Join(t.TempDir(), "settings.json"))
	if creds != (settings.Credentials{}) {
		if err := store.Save(creds); err != nil {
			t.Fatalf("saving test credentials: %v", err)
		}
	}

	var hist *history.Store
	if withHistory {
		var err error
		hist, err = history.Open(filepath.Join(t.TempDir(), "history.db"))
		if err != nil {
			t.Fatalf("opening test history: %v", err)
		}
		t.Cleanup(func() { hist.Close() })
	}

	client := upstream.NewClient(up.URL, 2*time.Second, nil)
	return &fixture{
		server: NewServer(cfg, store, client, hist),
		store:  store,
	}
}

func (f *fixture) get(t *testing.T, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)
	return rec
}

func (f *fixture) getJSON(t *testing.T, path string) apiResponse {
	t.Helper()
	rec := f.get(t, path)
	if rec.Code != http.StatusOK {
		t.Fatalf("GET %s status = %d, want 200", path, rec.Code)
	}
	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("GET %s: bad JSON: %v", path, err)
	}
	return resp
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}
}

var testCreds = settings.Credentials{AccessToken: "tok", PropertyID: "6000"}

func TestResource_Sources(t *testing.T) {
	f := newFixture(t, jsonHandler(`{
		"success": true,
		"data": [
			{"propertyID": "6000", "sourceID": "s1", "sourceName": "Direct"},
			{"propertyID": "6000", "sourceID": "s2", "sourceName": "OTA",
			 "taxes": [{"taxID": "t1", "amount": 10}]}
		]
	}`), testCreds, false)

	resp := f.getJSON(t, "/api/sources")
	if !resp.Success {
		t.Fatalf("success = false, error = %q", resp.Error)
	}

	rows, ok := resp.Data["sources"].([]any)
	if !ok || len(rows) != 2 {
		t.Fatalf("sources payload = %v", resp.Data["sources"])
	}
	if resp.Data["count"] != float64(2) {
		t.Errorf("count = %v, want 2", resp.Data["count"])
	}

	cols, _ := resp.Data["columns"].([]any)
	if len(cols) == 0 || cols[0] != "propertyID" {
		t.Errorf("columns = %v, want propertyID first", cols)
	}

	// Normalization: the first record never had taxes, but the column from
	// the second record is present and empty.
	first := rows[0].(map[string]any)
	if v, ok := first["tax_1_taxID"]; !ok || v != "" {
		t.Errorf("first row tax_1_taxID = %v (present=%v), want empty string", v, ok)
	}
}

func TestResource_SourcesNonListPayload(t *testing.T) {
	// A single object under "data" is not a source list; it must yield an
	// empty table, not one fabricated all-empty row.
	f := newFixture(t, jsonHandler(`{"success":true,"data":{"sourceID":"s1"}}`), testCreds, false)

	resp := f.getJSON(t, "/api/sources")
	if !resp.Success {
		t.Fatalf("error = %q", resp.Error)
	}
	if resp.Data["count"] != float64(0) {
		t.Errorf("count = %v, want 0", resp.Data["count"])
	}
}

func TestResource_MissingToken(t *testing.T) {
	f := newFixture(t, jsonHandler(`{}`), settings.Credentials{}, false)

	resp := f.getJSON(t, "/api/sources")
	if resp.Success {
		t.Fatal("expected failure without a token")
	}
	if resp.Error != "Access token not configured" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestResource_UpstreamErrorStays200(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"invalid token"}`)
	}, testCreds, false)

	rec := f.get(t, "/api/sources")
	if rec.Code != http.StatusOK {
		t.Fatalf("JSON API must answer 200 on upstream failure, got %d", rec.Code)
	}

	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Error != "invalid token" {
		t.Errorf("resp = %+v, want success=false with upstream message", resp)
	}
}

func TestResource_Rooms(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasSuffix(r.URL.Path, upstream.EndpointRoomTypes):
			io.WriteString(w, `{"data":[
				{"propertyID":"6000","roomTypeID":"1","roomTypeName":"Std"},
				{"propertyID":"6000","roomTypeID":"2","roomTypeName":"Dlx"}
			]}`)
		case strings.HasSuffix(r.URL.Path, upstream.EndpointRooms):
			io.WriteString(w, `{"data":[
				{"propertyID":"6000","rooms":[
					{"roomID":"r1","roomTypeID":1,"roomName":"101"},
					{"roomID":"r2","roomTypeID":"2","roomName":"201"}
				]}
			]}`)
		default:
			http.NotFound(w, r)
		}
	}, testCreds, false)

	resp := f.getJSON(t, "/api/rooms")
	if !resp.Success {
		t.Fatalf("error = %q", resp.Error)
	}
	if resp.Data["room_types_count"] != float64(2) {
		t.Errorf("room_types_count = %v", resp.Data["room_types_count"])
	}
	if resp.Data["rooms_count"] != float64(2) {
		t.Errorf("rooms_count = %v (int/string type ids must both match)", resp.Data["rooms_count"])
	}
	if resp.Data["count"] != float64(4) {
		t.Errorf("count = %v, want 4", resp.Data["count"])
	}
}

func TestResource_RoomsErrorNamesFailingCall(t *testing.T) {
	f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, upstream.EndpointRoomTypes) {
			io.WriteString(w, `{"data":[]}`)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, `{"message":"upstream down"}`)
	}, testCreds, false)

	resp := f.getJSON(t, "/api/rooms")
	if resp.Success {
		t.Fatal("expected failure")
	}
	if !strings.HasPrefix(resp.Error, "Rooms: ") {
		t.Errorf("error = %q, want a Rooms: prefix", resp.Error)
	}
}

func TestResource_PaymentMethods(t *testing.T) {
	// The payment-methods payload is nested one level deeper than the others.
	f := newFixture(t, jsonHandler(`{
		"data": [ { "data": [
			{"propertyID":"6000",
			 "gateway":{"name":"Stripe","currency":"USD"},
			 "methods":[
				{"type":"card","code":"visa","name":"Visa",
				 "cardTypes":[{"cardName":"Visa","cardCode":"VI"}]},
				{"type":"cash","code":"cash","name":"Cash"}
			 ]}
		] } ]
	}`), testCreds, false)

	resp := f.getJSON(t, "/api/payment-methods")
	if !resp.Success {
		t.Fatalf("error = %q", resp.Error)
	}
	if resp.Data["gateways_count"] != float64(1) {
		t.Errorf("gateways_count = %v", resp.Data["gateways_count"])
	}
	if resp.Data["methods_count"] != float64(2) {
		t.Errorf("methods_count = %v", resp.Data["methods_count"])
	}

	rows := resp.Data["items"].([]any)
	card := rows[1].(map[string]any)
	if card["card_types"] != "Visa (VI)" {
		t.Errorf("card_types = %v", card["card_types"])
	}
}

func TestTestConnection(t *testing.T) {
	t.Run("query credentials, success", func(t *testing.T) {
		f := newFixture(t, jsonHandler(`{"data":[]}`), settings.Credentials{}, false)

		resp := f.getJSON(t, "/api/test-connection?access_token=tok&property_id=6000")
		if !resp.Success || resp.Message != "Connection successful!" {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("stored credentials fallback", func(t *testing.T) {
		f := newFixture(t, jsonHandler(`{"data":[]}`), testCreds, false)

		resp := f.getJSON(t, "/api/test-connection")
		if !resp.Success {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("no token anywhere", func(t *testing.T) {
		f := newFixture(t, jsonHandler(`{"data":[]}`), settings.Credentials{}, false)

		resp := f.getJSON(t, "/api/test-connection")
		if resp.Success || resp.Error != "Please configure your access token first." {
			t.Errorf("resp = %+v", resp)
		}
	})

	t.Run("bad token", func(t *testing.T) {
		f := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			io.WriteString(w, `{"message":"invalid token"}`)
		}, settings.Credentials{}, false)

		resp := f.getJSON(t, "/api/test-connection?access_token=bad&property_id=6000")
		if resp.Success || resp.Error != "invalid token" {
			t.Errorf("resp = %+v", resp)
		}
	})
}

func TestSaveAndGetSettings(t *testing.T) {
	f := newFixture(t, jsonHandler(`{}`), settings.Credentials{}, false)

	body := `{"access_token":"  newtok  ","property_id":""}`
	req := httptest.NewRequest(http.MethodPost, "/api/save-settings", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Success {
		t.Fatalf("save failed: %q", resp.Error)
	}

	got := f.getJSON(t, "/api/get-settings")
	if !got.Success {
		t.Fatalf("get failed: %q", got.Error)
	}
	if got.Data["access_token"] != "newtok" {
		t.Errorf("access_token = %v, want trimmed value", got.Data["access_token"])
	}
	if got.Data["property_id"] != settings.DefaultPropertyID {
		t.Errorf("property_id = %v, want default for empty input", got.Data["property_id"])
	}
}

func TestSaveSettings_BadBody(t *testing.T) {
	f := newFixture(t, jsonHandler(`{}`), settings.Credentials{}, false)

	req := httptest.NewRequest(http.MethodPost, "/api/save-settings", strings.NewReader("{broken"))
	rec := httptest.NewRecorder()
	f.server.Router().ServeHTTP(rec, req)

	var resp apiResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.Error != "Invalid request body" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestHistory_DisabledStoreYieldsEmptyList(t *testing.T) {
	f := newFixture(t, jsonHandler(`{}`), testCreds, false)

	resp := f.getJSON(t, "/api/history")
	if !resp.Success {
		t.Fatalf("error = %q", resp.Error)
	}
	entries, ok := resp.Data["entries"].([]any)
	if !ok || len(entries) != 0 {
		t.Errorf("entries = %v, want empty list", resp.Data["entries"])
	}
}

func TestHistory_RecordsFetches(t *testing.T) {
	f := newFixture(t, jsonHandler(`{"data":[{"sourceID":"s1"}]}`), testCreds, true)

	if resp := f.getJSON(t, "/api/sources"); !resp.Success {
		t.Fatalf("fetch failed: %q", resp.Error)
	}

	resp := f.getJSON(t, "/api/history")
	entries := resp.Data["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("got %d history entries, want 1", len(entries))
	}
	e := entries[0].(map[string]any)
	if e["kind"] != "sources" || e["format"] != "json" || e["status"] != "ok" {
		t.Errorf("entry = %v", e)
	}
	if e["row_count"] != float64(1) {
		t.Errorf("row_count = %v", e["row_count"])
	}
}

func TestHealth(t *testing.T) {
	f := newFixture(t, jsonHandler(`{}`), settings.Credentials{}, false)

	rec := f.get(t, "/api/health")
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d", rec.Code)
	}
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
}

func TestIndexServesUI(t *testing.T) {
	f := newFixture(t, jsonHandler(`{}`), settings.Credentials{}, false)

	rec := f.get(t, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	if !strings.Contains(rec.Body.String(), "<html") {
		t.Error("index body is not HTML")
	}
}
