package socketrpc

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/tinytelemetry/issuedeck/internal/model"
)

// stubQuerier returns fixed values for dispatch unit testing.
type stubQuerier struct {
	facetErr error
}

func (q *stubQuerier) ListIssues(ctx context.Context) ([]model.Issue, error) {
	return []model.Issue{{
		ID:          "a",
		Submitted:   time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:      model.StatusOk,
		Description: "test",
	}}, nil
}
func (q *stubQuerier) IssueCount(ctx context.Context) (int64, error) { return 100, nil }
func (q *stubQuerier) StatusCounts(ctx context.Context) (map[model.Status]int64, error) {
	return map[model.Status]int64{model.StatusCritical: 3}, nil
}
func (q *stubQuerier) FacetCounts(ctx context.Context, facet string) ([]model.DimensionCount, error) {
	if q.facetErr != nil {
		return nil, q.facetErr
	}
	return []model.DimensionCount{{Value: "Alice", Count: 2}}, nil
}

func newTestDispatcher() *Server {
	return &Server{store: &stubQuerier{}}
}

func TestDispatch_AllMethods(t *testing.T) {
	t.Parallel()
	srv := newTestDispatcher()

	tests := []struct {
		method string
		params string
	}{
		{"ListIssues", `{}`},
		{"IssueCount", `{}`},
		{"StatusCounts", ``},
		{"FacetCounts", `{"Facet":"employee"}`},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			t.Parallel()
			req := Request{
				JSONRPC: "2.0",
				ID:      1,
				Method:  tt.method,
				Params:  json.RawMessage(tt.params),
			}
			resp := srv.dispatch(context.Background(), req)
			if resp.Error != nil {
				t.Fatalf("dispatch(%s) error: %s", tt.method, resp.Error.Message)
			}
			if resp.Result == nil {
				t.Fatalf("dispatch(%s) returned nil result", tt.method)
			}
			if resp.JSONRPC != "2.0" {
				t.Errorf("JSONRPC = %q, want 2.0", resp.JSONRPC)
			}
			if resp.ID != 1 {
				t.Errorf("ID = %d, want 1", resp.ID)
			}
		})
	}
}

func TestDispatch_MethodNotFound(t *testing.T) {
	t.Parallel()
	srv := newTestDispatcher()

	resp := srv.dispatch(context.Background(), Request{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "NonExistentMethod",
		Params:  json.RawMessage(`{}`),
	})
	if resp.Error == nil {
		t.Fatal("expected error for unknown method")
	}
	if resp.Error.Code != codeMethodNotFound {
		t.Errorf("error code = %d, want %d", resp.Error.Code, codeMethodNotFound)
	}
}

func TestDispatch_InvalidParams(t *testing.T) {
	t.Parallel()
	srv := newTestDispatcher()

	for _, params := range []string{`not json`, `{}`} {
		resp := srv.dispatch(context.Background(), Request{
			JSONRPC: "2.0",
			ID:      2,
			Method:  "FacetCounts",
			Params:  json.RawMessage(params),
		})
		if resp.Error == nil {
			t.Fatalf("params %s: expected error", params)
		}
		if resp.Error.Code != codeInvalidParams {
			t.Errorf("params %s: error code = %d, want %d", params, resp.Error.Code, codeInvalidParams)
		}
	}
}

func TestDispatch_ApplicationError(t *testing.T) {
	t.Parallel()
	srv := &Server{store: &stubQuerier{facetErr: errors.New("unknown facet")}}

	resp := srv.dispatch(context.Background(), Request{
		JSONRPC: "2.0",
		ID:      3,
		Method:  "FacetCounts",
		Params:  json.RawMessage(`{"Facet":"planet"}`),
	})
	if resp.Error == nil || resp.Error.Code != codeAppError {
		t.Fatalf("resp.Error = %+v, want code %d", resp.Error, codeAppError)
	}
}

func TestDispatch_PreservesRequestID(t *testing.T) {
	t.Parallel()
	srv := newTestDispatcher()

	for _, id := range []int{0, 1, 42, 9999} {
		resp := srv.dispatch(context.Background(), Request{
			JSONRPC: "2.0",
			ID:      id,
			Method:  "IssueCount",
		})
		if resp.ID != id {
			t.Errorf("request ID %d: response ID = %d", id, resp.ID)
		}
	}
}
