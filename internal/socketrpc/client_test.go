package socketrpc_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/tinytelemetry/issuedeck/internal/model"
	"github.com/tinytelemetry/issuedeck/internal/socketrpc"
)

var submitted = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

// mockQuerier is a minimal IssueQuerier for roundtrip testing.
type mockQuerier struct{}

func (m *mockQuerier) ListIssues(ctx context.Context) ([]model.Issue, error) {
	closed := submitted.Add(time.Hour)
	return []model.Issue{
		{
			ID:          "a",
			Submitted:   submitted,
			Closed:      &closed,
			Status:      model.StatusCritical,
			Employee:    &model.Person{Name: "Alice", Avatar: "https://example.test/a.png"},
			Customer:    &model.Person{Name: "Acme"},
			Description: "printer offline",
			Source:      "tcp",
		},
		{ID: "b", Submitted: submitted, Status: model.StatusOk, Active: true, Description: "no people"},
	}, nil
}
func (m *mockQuerier) IssueCount(ctx context.Context) (int64, error) { return 42, nil }
func (m *mockQuerier) StatusCounts(ctx context.Context) (map[model.Status]int64, error) {
	return map[model.Status]int64{model.StatusOk: 10, model.StatusCritical: 2}, nil
}
func (m *mockQuerier) FacetCounts(ctx context.Context, facet string) ([]model.DimensionCount, error) {
	return []model.DimensionCount{{Value: facet + "-1", Count: 20}}, nil
}

func startTestServer(t *testing.T) (string, *socketrpc.Server) {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "test.sock")
	srv := socketrpc.NewServer(sockPath, &mockQuerier{})
	if err := srv.Start(); err != nil {
		t.Fatalf("start server: %v", err)
	}
	return sockPath, srv
}

func TestRoundtrip(t *testing.T) {
	sockPath, srv := startTestServer(t)
	defer srv.Stop()

	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	t.Run("ListIssues", func(t *testing.T) {
		got, err := client.ListIssues(ctx)
		if err != nil {
			t.Fatal(err)
		}
		want, _ := (&mockQuerier{}).ListIssues(ctx)
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("issues (-want +got):\n%s", diff)
		}
	})

	t.Run("IssueCount", func(t *testing.T) {
		count, err := client.IssueCount(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if count != 42 {
			t.Fatalf("got %d, want 42", count)
		}
	})

	t.Run("StatusCounts", func(t *testing.T) {
		counts, err := client.StatusCounts(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if counts[model.StatusOk] != 10 || counts[model.StatusCritical] != 2 {
			t.Fatalf("unexpected counts: %v", counts)
		}
	})

	t.Run("FacetCounts", func(t *testing.T) {
		counts, err := client.FacetCounts(ctx, "customer")
		if err != nil {
			t.Fatal(err)
		}
		if len(counts) != 1 || counts[0].Value != "customer-1" || counts[0].Count != 20 {
			t.Fatalf("unexpected counts: %v", counts)
		}
	})
}

func TestClientHonorsCanceledContext(t *testing.T) {
	sockPath, srv := startTestServer(t)
	defer srv.Stop()

	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := client.IssueCount(ctx); err == nil {
		t.Fatal("expected error for canceled context")
	}
	if _, err := client.IssueCount(context.Background()); err != nil {
		t.Fatalf("client unusable after canceled call: %v", err)
	}
}

func TestDialFailure(t *testing.T) {
	_, err := socketrpc.Dial(filepath.Join(t.TempDir(), "nonexistent.sock"))
	if err == nil {
		t.Fatal("expected error dialing nonexistent socket")
	}
}

func TestServerStopCleansSocket(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "cleanup.sock")
	srv := socketrpc.NewServer(sockPath, &mockQuerier{})
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	srv.Stop()

	if _, err := socketrpc.Dial(sockPath); err == nil {
		t.Fatal("expected dial to fail after server stop")
	}
}

func TestSecondServerRefusesLiveSocket(t *testing.T) {
	sockPath, srv := startTestServer(t)
	defer srv.Stop()

	other := socketrpc.NewServer(sockPath, &mockQuerier{})
	if err := other.Start(); err == nil {
		other.Stop()
		t.Fatal("expected second server to refuse a live socket")
	}
}

func TestStopIdempotent(t *testing.T) {
	sockPath := filepath.Join(t.TempDir(), "idempotent.sock")
	srv := socketrpc.NewServer(sockPath, &mockQuerier{})
	if err := srv.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}

	srv.Stop()
	srv.Stop()
}

func TestStopClosesConns(t *testing.T) {
	sockPath, srv := startTestServer(t)
	client, err := socketrpc.Dial(sockPath)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer client.Close()

	srv.Stop()

	done := make(chan error, 1)
	go func() {
		_, callErr := client.IssueCount(context.Background())
		done <- callErr
	}()

	select {
	case callErr := <-done:
		if callErr == nil {
			t.Fatal("expected client call to fail after server stop")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("client call hung after server stop")
	}
}
