package reconcile

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ztadmin/ztadmin/pkg/controller"
	"github.com/ztadmin/ztadmin/pkg/stores"
)

// fakeController serves a configurable network set. IDs listed in broken
// answer detail requests with a 500.
type fakeController struct {
	networks []string
	names    map[string]string
	members  map[string]int
	broken   map[string]bool
}

func (f *fakeController) serve(t *testing.T) *controller.Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/controller/network", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(f.networks)
	})
	mux.HandleFunc("/controller/network/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/controller/network/")
		parts := strings.Split(rest, "/")
		id := parts[0]

		if !f.hosts(id) {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if f.broken[id] {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if len(parts) > 1 && parts[1] == "member" {
			members := map[string]int64{}
			for i := 0; i < f.members[id]; i++ {
				members[fmt.Sprintf("%010d", i)] = 1
			}
			_ = json.NewEncoder(w).Encode(members)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"id":           id,
			"name":         f.names[id],
			"private":      true,
			"creationTime": 1690000000000,
			"revision":     3,
		})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return controller.New(srv.URL, "token")
}

func (f *fakeController) hosts(id string) bool {
	for _, n := range f.networks {
		if n == id {
			return true
		}
	}
	return false
}

// setupEngine wires an engine against a fake controller and a memory store
// pre-seeded with the linked IDs
func setupEngine(t *testing.T, fake *fakeController, linked ...string) (*Engine, stores.Store) {
	t.Helper()

	store := stores.NewMemoryStore()
	for _, id := range linked {
		err := store.SaveNetwork(context.Background(), &stores.Network{
			ID:        id,
			Name:      "linked-" + id,
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		})
		if err != nil {
			t.Fatalf("failed to seed store: %v", err)
		}
	}

	engine, err := NewEngine(EngineConfig{
		Client: fake.serve(t),
		Store:  store,
	})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	return engine, store
}

// TestFindUnlinkedSetDifference tests that the result is exactly the
// controller set minus the store set
func TestFindUnlinkedSetDifference(t *testing.T) {
	fake := &fakeController{
		networks: []string{"aaaa000000000001", "aaaa000000000002", "aaaa000000000003"},
		names:    map[string]string{"aaaa000000000001": "alpha", "aaaa000000000003": "gamma"},
		members:  map[string]int{"aaaa000000000001": 2, "aaaa000000000003": 5},
	}
	engine, _ := setupEngine(t, fake, "aaaa000000000002")

	result, err := engine.FindUnlinked(context.Background())
	if err != nil {
		t.Fatalf("reconciliation failed: %v", err)
	}

	if result.ControllerTotal != 3 || result.StoreTotal != 1 {
		t.Errorf("unexpected totals: controller=%d store=%d", result.ControllerTotal, result.StoreTotal)
	}
	if len(result.Failed) != 0 {
		t.Fatalf("expected no failures, got %d", len(result.Failed))
	}
	if len(result.Networks) != 2 {
		t.Fatalf("expected 2 unlinked networks, got %d", len(result.Networks))
	}

	// Sorted by ID
	if result.Networks[0].ID != "aaaa000000000001" || result.Networks[1].ID != "aaaa000000000003" {
		t.Errorf("unexpected unlinked set: %+v", result.Networks)
	}
	if result.Networks[0].Name != "alpha" {
		t.Errorf("expected enriched name alpha, got %q", result.Networks[0].Name)
	}
	if result.Networks[0].MemberCount != 2 {
		t.Errorf("expected 2 members, got %d", result.Networks[0].MemberCount)
	}
	if result.Networks[1].MemberCount != 5 {
		t.Errorf("expected 5 members, got %d", result.Networks[1].MemberCount)
	}
}

// TestFindUnlinkedEmpty tests the short-circuit when every controller
// network is linked
func TestFindUnlinkedEmpty(t *testing.T) {
	fake := &fakeController{
		networks: []string{"aaaa000000000001"},
		// Detail requests would fail; the short-circuit must not issue any
		broken: map[string]bool{"aaaa000000000001": true},
	}
	engine, _ := setupEngine(t, fake, "aaaa000000000001")

	result, err := engine.FindUnlinked(context.Background())
	if err != nil {
		t.Fatalf("reconciliation failed: %v", err)
	}
	if len(result.Networks) != 0 || len(result.Failed) != 0 {
		t.Errorf("expected an empty result, got %+v", result)
	}
	if result.Networks == nil {
		t.Error("expected a non-nil networks slice")
	}
}

// TestFindUnlinkedPartialFailure tests that one broken detail fetch does not
// discard the others
func TestFindUnlinkedPartialFailure(t *testing.T) {
	fake := &fakeController{
		networks: []string{"aaaa000000000001", "aaaa000000000002", "aaaa000000000003"},
		names:    map[string]string{"aaaa000000000001": "alpha", "aaaa000000000002": "beta"},
		members:  map[string]int{"aaaa000000000001": 1, "aaaa000000000002": 1},
		broken:   map[string]bool{"aaaa000000000003": true},
	}
	engine, _ := setupEngine(t, fake)

	result, err := engine.FindUnlinked(context.Background())
	if err != nil {
		t.Fatalf("reconciliation failed: %v", err)
	}

	if len(result.Networks) != 2 {
		t.Fatalf("expected 2 successful networks, got %d", len(result.Networks))
	}
	if len(result.Failed) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(result.Failed))
	}
	if result.Failed[0].ID != "aaaa000000000003" {
		t.Errorf("unexpected failed network: %s", result.Failed[0].ID)
	}
	if result.Failed[0].Err == nil {
		t.Error("expected the failure to carry its error")
	}
	if len(result.Networks)+len(result.Failed) != 3 {
		t.Error("successes plus failures must cover the whole unlinked set")
	}
}

// TestFindUnlinkedControllerDown tests that an unreachable controller aborts
// the whole call
func TestFindUnlinkedControllerDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	engine, err := NewEngine(EngineConfig{
		Client: controller.New(srv.URL, ""),
		Store:  stores.NewMemoryStore(),
	})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	result, err := engine.FindUnlinked(context.Background())
	if err == nil {
		t.Fatal("expected an error against a dead controller")
	}
	if !controller.IsUnreachable(err) {
		t.Errorf("expected an unreachable error, got %v", err)
	}
	if result != nil {
		t.Error("expected no partial result without a controller baseline")
	}
}

// TestAdopt tests linking a controller network into the store
func TestAdopt(t *testing.T) {
	fake := &fakeController{
		networks: []string{"aaaa000000000001"},
		names:    map[string]string{"aaaa000000000001": "alpha"},
	}
	engine, store := setupEngine(t, fake)

	network, err := engine.Adopt(context.Background(), "aaaa000000000001", "", "operator-1")
	if err != nil {
		t.Fatalf("adoption failed: %v", err)
	}
	if network.Name != "alpha" {
		t.Errorf("expected the controller name as fallback, got %q", network.Name)
	}
	if network.OwnerID != "operator-1" {
		t.Errorf("expected owner operator-1, got %q", network.OwnerID)
	}

	saved, err := store.GetNetwork(context.Background(), "aaaa000000000001")
	if err != nil {
		t.Fatalf("expected a persisted record: %v", err)
	}
	if saved.Name != "alpha" {
		t.Errorf("persisted record has wrong name: %q", saved.Name)
	}
}

// TestAdoptAlreadyLinked tests that a second adoption is rejected
func TestAdoptAlreadyLinked(t *testing.T) {
	fake := &fakeController{
		networks: []string{"aaaa000000000001"},
	}
	engine, _ := setupEngine(t, fake, "aaaa000000000001")

	_, err := engine.Adopt(context.Background(), "aaaa000000000001", "", "operator-1")
	if err == nil {
		t.Fatal("expected an error adopting an already-linked network")
	}
}

// TestAdoptNotResident tests that adoption requires the network to exist on
// the controller
func TestAdoptNotResident(t *testing.T) {
	fake := &fakeController{
		networks: []string{"aaaa000000000001"},
	}
	engine, store := setupEngine(t, fake)

	_, err := engine.Adopt(context.Background(), "ffffffffffffffff", "ghost", "operator-1")
	if err == nil {
		t.Fatal("expected an error adopting a network the controller does not host")
	}

	if _, err := store.GetNetwork(context.Background(), "ffffffffffffffff"); err == nil {
		t.Error("no record must be created for a failed adoption")
	}
}
