package stores

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Network represents a controller network linked to the admin database.
type Network struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	OwnerID     string    `json:"owner_id"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// WorldSettings is the singleton document describing the custom root-server
// configuration. InUse reports whether a custom world is currently installed.
type WorldSettings struct {
	InUse       bool     `json:"in_use"`
	PlanetID    int64    `json:"planet_id"`
	PlanetBirth int64    `json:"planet_birth"`
	Recommend   bool     `json:"recommend"`
	Comment     string   `json:"comment"`
	Endpoints   []string `json:"endpoints"`
	Identity    string   `json:"identity"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultWorldSettings returns the settings document of a deployment with no
// custom world installed.
func DefaultWorldSettings() *WorldSettings {
	return &WorldSettings{
		InUse: false,
	}
}

// AuditEntry represents an audit trail entry for an administrative action.
type AuditEntry struct {
	ID        string    `json:"id"` // UUID
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`  // e.g., "world.generate", "network.adopt"
	Subject   string    `json:"subject"` // network ID, planet path, etc.
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

// Store defines the interface for the persistence layer
type Store interface {
	// Lifecycle
	Init(ctx context.Context) error
	Close() error
	Migrate(ctx context.Context) error

	// Network operations
	SaveNetwork(ctx context.Context, network *Network) error
	GetNetwork(ctx context.Context, id string) (*Network, error)
	ListNetworks(ctx context.Context) ([]*Network, error)
	DeleteNetwork(ctx context.Context, id string) error

	// World settings operations. GetWorldSettings returns the default
	// document when none has been saved yet, never ErrNotFound.
	GetWorldSettings(ctx context.Context) (*WorldSettings, error)
	SaveWorldSettings(ctx context.Context, settings *WorldSettings) error
	ResetWorldSettings(ctx context.Context) error

	// Audit operations
	AppendAudit(ctx context.Context, entry *AuditEntry) error
	ListAudit(ctx context.Context, limit int) ([]*AuditEntry, error)

	// Utility
	HealthCheck(ctx context.Context) error
}
