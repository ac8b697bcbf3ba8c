package httpserver_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/go-cmp/cmp"

	"github.com/tinytelemetry/issuedeck/internal/duckdb"
	"github.com/tinytelemetry/issuedeck/internal/httpserver"
	"github.com/tinytelemetry/issuedeck/internal/ingest"
	"github.com/tinytelemetry/issuedeck/internal/model"
)

const fixture = `
issues:
  - id: t-1
    submitted: 2025-06-01T09:00:00Z
    status: Critical
    employee: {name: Alice}
    customer: {name: Acme}
    description: checkout fails
  - id: t-2
    submitted: 2025-06-01T08:00:00Z
    status: Ok
    employee: Bob
    customer: Globex
    description: typo
  - id: t-3
    submitted: 2025-06-01T10:00:00Z
    closed: 2025-06-02T10:00:00Z
    status: warn
    employee: Alice
    description: missing customer
`

// TestIngestToView drives a fixture snapshot and a streamed line through
// the ingest processor into DuckDB and reads the result back over HTTP.
func TestIngestToView(t *testing.T) {
	gin.SetMode(gin.TestMode)

	store, err := duckdb.NewStore("")
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	buf := duckdb.NewInsertBuffer(store)
	proc, err := ingest.NewEnvelopeProcessor(ingest.ProcessorModeParse, buf, store, "test")
	if err != nil {
		t.Fatalf("NewEnvelopeProcessor: %v", err)
	}

	ctx := context.Background()
	res := proc.ProcessEnvelope(ctx, model.IngestEnvelope{Source: "fixture", Snapshot: []byte(fixture), Format: ingest.FormatYAML})
	if res == nil || res.Err != nil || len(res.Issues) != 3 {
		t.Fatalf("snapshot result = %+v", res)
	}
	res = proc.ProcessEnvelope(ctx, model.IngestEnvelope{
		Source: "stdin",
		Line:   `{"id":"t-4","submitted":"2025-06-01T07:00:00Z","status":"critical","employee":"Carol","customer":"Acme","description":"vpn down"}`,
	})
	if res == nil || res.Err != nil {
		t.Fatalf("line result = %+v", res)
	}
	buf.Stop()

	r := httpserver.NewServer("", store).Router()

	req := httptest.NewRequest(http.MethodGet, "/api/view?order=desc", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var body struct {
		Visible   []model.Issue `json:"visible"`
		Employees []string      `json:"employees"`
		Customers []string      `json:"customers"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}

	var ids []string
	for _, issue := range body.Visible {
		ids = append(ids, issue.ID)
	}
	if diff := cmp.Diff([]string{"t-3", "t-1", "t-2", "t-4"}, ids); diff != "" {
		t.Errorf("visible (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Alice", "Bob", "Carol"}, body.Employees); diff != "" {
		t.Errorf("employees (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"Acme", "Globex"}, body.Customers); diff != "" {
		t.Errorf("customers (-want +got):\n%s", diff)
	}
	if body.Visible[0].Status != model.StatusWarning || body.Visible[0].Active {
		t.Errorf("t-3 = %+v, want closed Warning", body.Visible[0])
	}

	req = httptest.NewRequest(http.MethodGet, "/api/facets/customer", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	var facets struct {
		Values []model.DimensionCount `json:"values"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &facets); err != nil {
		t.Fatal(err)
	}
	want := []model.DimensionCount{{Value: "Acme", Count: 2}, {Value: "Globex", Count: 1}}
	if diff := cmp.Diff(want, facets.Values); diff != "" {
		t.Errorf("customer facet (-want +got):\n%s", diff)
	}
}
