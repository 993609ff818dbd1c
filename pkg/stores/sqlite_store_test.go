package stores

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

// setupTestStore creates a file-backed SQLite store for testing
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := NewSQLiteStore(Config{
		Path: filepath.Join(t.TempDir(), "ztadmin.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate store: %v", err)
	}

	t.Cleanup(func() { _ = store.Close() })

	return store
}

// TestStoreLifecycle tests database initialization and closure
func TestStoreLifecycle(t *testing.T) {
	store, err := NewSQLiteStore(Config{
		Path: filepath.Join(t.TempDir(), "ztadmin.db"),
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	ctx := context.Background()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to initialize store: %v", err)
	}

	if err := store.HealthCheck(ctx); err != nil {
		t.Fatalf("health check failed: %v", err)
	}

	if err := store.Close(); err != nil {
		t.Fatalf("failed to close store: %v", err)
	}

	if err := store.HealthCheck(ctx); err == nil {
		t.Error("expected the health check to fail on a closed store")
	}
}

// TestNetworkCRUD tests network create, read, update, delete
func TestNetworkCRUD(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	network := &Network{
		ID:        "a1b2c3d4e5000001",
		Name:      "lab",
		OwnerID:   "admin@example.com",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := store.SaveNetwork(ctx, network); err != nil {
		t.Fatalf("failed to save network: %v", err)
	}

	got, err := store.GetNetwork(ctx, network.ID)
	if err != nil {
		t.Fatalf("failed to get network: %v", err)
	}
	if got.Name != "lab" || got.OwnerID != "admin@example.com" {
		t.Errorf("unexpected network: %+v", got)
	}

	// Upsert with a new name
	network.Name = "lab-renamed"
	network.UpdatedAt = now.Add(time.Minute)
	if err := store.SaveNetwork(ctx, network); err != nil {
		t.Fatalf("failed to update network: %v", err)
	}

	got, err = store.GetNetwork(ctx, network.ID)
	if err != nil {
		t.Fatalf("failed to get updated network: %v", err)
	}
	if got.Name != "lab-renamed" {
		t.Errorf("expected renamed network, got %q", got.Name)
	}

	networks, err := store.ListNetworks(ctx)
	if err != nil {
		t.Fatalf("failed to list networks: %v", err)
	}
	if len(networks) != 1 {
		t.Fatalf("expected 1 network, got %d", len(networks))
	}

	if err := store.DeleteNetwork(ctx, network.ID); err != nil {
		t.Fatalf("failed to delete network: %v", err)
	}

	if _, err := store.GetNetwork(ctx, network.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
	if err := store.DeleteNetwork(ctx, network.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on double delete, got %v", err)
	}
}

// TestWorldSettingsDefault tests that a fresh store yields the default document
func TestWorldSettingsDefault(t *testing.T) {
	store := setupTestStore(t)

	settings, err := store.GetWorldSettings(context.Background())
	if err != nil {
		t.Fatalf("failed to get world settings: %v", err)
	}

	if settings.InUse {
		t.Error("expected InUse to be false on a fresh store")
	}
	if settings.PlanetID != 0 || settings.PlanetBirth != 0 {
		t.Errorf("expected zeroed planet values, got %d/%d", settings.PlanetID, settings.PlanetBirth)
	}
}

// TestWorldSettingsRoundTrip tests saving and reloading the settings document
func TestWorldSettingsRoundTrip(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	saved := &WorldSettings{
		InUse:       true,
		PlanetID:    7777777,
		PlanetBirth: 1600000000000,
		Recommend:   false,
		Comment:     "site root",
		Endpoints:   []string{"203.0.113.10/9993", "[2001:db8::1]/9993"},
		Identity:    "a1b2c3d4e5:0:aabb",
		UpdatedAt:   time.Now().UTC(),
	}

	if err := store.SaveWorldSettings(ctx, saved); err != nil {
		t.Fatalf("failed to save world settings: %v", err)
	}

	got, err := store.GetWorldSettings(ctx)
	if err != nil {
		t.Fatalf("failed to get world settings: %v", err)
	}

	if !got.InUse {
		t.Error("expected InUse to be true")
	}
	if got.PlanetID != saved.PlanetID || got.PlanetBirth != saved.PlanetBirth {
		t.Errorf("planet values did not survive: %+v", got)
	}
	if len(got.Endpoints) != 2 || got.Endpoints[1] != "[2001:db8::1]/9993" {
		t.Errorf("endpoints did not survive: %v", got.Endpoints)
	}

	// Save again, the singleton row must be replaced, not duplicated
	saved.Comment = "updated"
	if err := store.SaveWorldSettings(ctx, saved); err != nil {
		t.Fatalf("failed to re-save world settings: %v", err)
	}
	got, err = store.GetWorldSettings(ctx)
	if err != nil {
		t.Fatalf("failed to re-get world settings: %v", err)
	}
	if got.Comment != "updated" {
		t.Errorf("expected updated comment, got %q", got.Comment)
	}
}

// TestResetWorldSettings tests resetting the settings to defaults
func TestResetWorldSettings(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	if err := store.SaveWorldSettings(ctx, &WorldSettings{
		InUse:     true,
		PlanetID:  42,
		Endpoints: []string{"198.51.100.1/9993"},
		UpdatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("failed to save world settings: %v", err)
	}

	if err := store.ResetWorldSettings(ctx); err != nil {
		t.Fatalf("failed to reset world settings: %v", err)
	}

	got, err := store.GetWorldSettings(ctx)
	if err != nil {
		t.Fatalf("failed to get world settings: %v", err)
	}
	if got.InUse || got.PlanetID != 0 || len(got.Endpoints) != 0 {
		t.Errorf("expected default settings after reset, got %+v", got)
	}
}

// TestAuditLog tests appending and listing audit entries
func TestAuditLog(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	ids := []string{
		"0f7f3a1e-0000-4000-8000-000000000001",
		"0f7f3a1e-0000-4000-8000-000000000002",
		"0f7f3a1e-0000-4000-8000-000000000003",
		"0f7f3a1e-0000-4000-8000-000000000004",
		"0f7f3a1e-0000-4000-8000-000000000005",
	}
	for i, id := range ids {
		entry := &AuditEntry{
			ID:        id,
			Actor:     "admin@example.com",
			Action:    "world.generate",
			Subject:   "planet",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := store.AppendAudit(ctx, entry); err != nil {
			t.Fatalf("failed to append audit entry: %v", err)
		}
	}

	entries, err := store.ListAudit(ctx, 3)
	if err != nil {
		t.Fatalf("failed to list audit entries: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	if entries[0].CreatedAt.Before(entries[1].CreatedAt) {
		t.Error("expected newest-first ordering")
	}
}
