package stores

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// MemoryStore implements the Store interface with in-process maps. It backs
// tests and the "memory" store mode; nothing survives a restart.
type MemoryStore struct {
	mu       sync.RWMutex
	networks map[string]*Network
	settings *WorldSettings
	audit    []*AuditEntry
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		networks: make(map[string]*Network),
	}
}

// Init is a no-op for the memory store
func (m *MemoryStore) Init(_ context.Context) error {
	return nil
}

// Close is a no-op for the memory store
func (m *MemoryStore) Close() error {
	return nil
}

// Migrate is a no-op for the memory store
func (m *MemoryStore) Migrate(_ context.Context) error {
	return nil
}

// SaveNetwork inserts or updates a network record
func (m *MemoryStore) SaveNetwork(_ context.Context, network *Network) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *network
	if existing, ok := m.networks[network.ID]; ok {
		cp.CreatedAt = existing.CreatedAt
	}
	m.networks[network.ID] = &cp
	return nil
}

// GetNetwork retrieves a network by ID
func (m *MemoryStore) GetNetwork(_ context.Context, id string) (*Network, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	network, ok := m.networks[id]
	if !ok {
		return nil, fmt.Errorf("network %s: %w", id, ErrNotFound)
	}

	cp := *network
	return &cp, nil
}

// ListNetworks lists all linked networks
func (m *MemoryStore) ListNetworks(_ context.Context) ([]*Network, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	networks := make([]*Network, 0, len(m.networks))
	for _, network := range m.networks {
		cp := *network
		networks = append(networks, &cp)
	}

	sort.Slice(networks, func(i, j int) bool {
		if !networks[i].CreatedAt.Equal(networks[j].CreatedAt) {
			return networks[i].CreatedAt.After(networks[j].CreatedAt)
		}
		return networks[i].ID < networks[j].ID
	})

	return networks, nil
}

// DeleteNetwork deletes a network by ID
func (m *MemoryStore) DeleteNetwork(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.networks[id]; !ok {
		return fmt.Errorf("network %s: %w", id, ErrNotFound)
	}

	delete(m.networks, id)
	return nil
}

// GetWorldSettings retrieves the world settings document
func (m *MemoryStore) GetWorldSettings(_ context.Context) (*WorldSettings, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.settings == nil {
		return DefaultWorldSettings(), nil
	}

	cp := *m.settings
	cp.Endpoints = append([]string(nil), m.settings.Endpoints...)
	return &cp, nil
}

// SaveWorldSettings replaces the world settings document
func (m *MemoryStore) SaveWorldSettings(_ context.Context, settings *WorldSettings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *settings
	cp.Endpoints = append([]string(nil), settings.Endpoints...)
	m.settings = &cp
	return nil
}

// ResetWorldSettings overwrites the world settings with the default document
func (m *MemoryStore) ResetWorldSettings(ctx context.Context) error {
	return m.SaveWorldSettings(ctx, DefaultWorldSettings())
}

// AppendAudit appends a new audit entry
func (m *MemoryStore) AppendAudit(_ context.Context, entry *AuditEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *entry
	m.audit = append(m.audit, &cp)
	return nil
}

// ListAudit lists the most recent audit entries, newest first
func (m *MemoryStore) ListAudit(_ context.Context, limit int) ([]*AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	if limit > len(m.audit) {
		limit = len(m.audit)
	}

	entries := make([]*AuditEntry, 0, limit)
	for i := len(m.audit) - 1; i >= len(m.audit)-limit; i-- {
		cp := *m.audit[i]
		entries = append(entries, &cp)
	}

	return entries, nil
}

// HealthCheck always succeeds for the memory store
func (m *MemoryStore) HealthCheck(_ context.Context) error {
	return nil
}
