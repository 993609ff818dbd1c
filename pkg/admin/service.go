package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ztadmin/ztadmin/pkg/controller"
	"github.com/ztadmin/ztadmin/pkg/reconcile"
	"github.com/ztadmin/ztadmin/pkg/stores"
	"github.com/ztadmin/ztadmin/pkg/telemetry"
	"github.com/ztadmin/ztadmin/pkg/world"
)

// Action names checked against the Authorizer and recorded in the audit log.
const (
	ActionNetworksRead  = "networks.read"
	ActionNetworkAdopt  = "network.adopt"
	ActionWorldGenerate = "world.generate"
	ActionWorldReset    = "world.reset"
	ActionWorldRead     = "world.read"
	ActionStatusRead    = "status.read"
)

// Authorizer decides whether an actor may perform an action. Authorization
// mechanics live outside this subsystem; the interface is the whole
// contract.
type Authorizer interface {
	Allow(ctx context.Context, actor, action string) error
}

// AllowAll permits every action. It is the shipped implementation for
// deployments that gate access in front of the tool.
type AllowAll struct{}

// Allow implements Authorizer.
func (AllowAll) Allow(context.Context, string, string) error {
	return nil
}

// ControllerStats aggregates the controller's node status with network and
// member totals.
type ControllerStats struct {
	// Status is the controller daemon's self-description.
	Status *controller.NodeStatus `json:"status"`

	// NetworkCount is the number of controller-hosted networks.
	NetworkCount int `json:"network_count"`

	// MemberCount is the total member count across all networks.
	MemberCount int `json:"member_count"`
}

// Service wires the reconcile engine, world manager, and controller client
// behind authorization and audit.
type Service struct {
	client  *controller.Client
	engine  *reconcile.Engine
	manager *world.Manager
	store   stores.Store
	auth    Authorizer
	events  *telemetry.EventPublisher
	metrics *telemetry.Metrics
	logger  zerolog.Logger
}

// ServiceConfig configures a Service.
type ServiceConfig struct {
	// Client talks to the controller daemon. Required.
	Client *controller.Client

	// Engine performs reconciliation. Required.
	Engine *reconcile.Engine

	// Manager drives the world lifecycle. Required.
	Manager *world.Manager

	// Store persists networks, settings, and the audit log. Required.
	Store stores.Store

	// Auth gates every operation. Defaults to AllowAll.
	Auth Authorizer

	// Events receives domain events. Optional.
	Events *telemetry.EventPublisher

	// Metrics records operation metrics. Optional.
	Metrics *telemetry.Metrics

	// Logger is the parent logger.
	Logger zerolog.Logger
}

// NewService creates the admin facade.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("controller client is required")
	}
	if cfg.Engine == nil {
		return nil, fmt.Errorf("reconcile engine is required")
	}
	if cfg.Manager == nil {
		return nil, fmt.Errorf("world manager is required")
	}
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Auth == nil {
		cfg.Auth = AllowAll{}
	}

	return &Service{
		client:  cfg.Client,
		engine:  cfg.Engine,
		manager: cfg.Manager,
		store:   cfg.Store,
		auth:    cfg.Auth,
		events:  cfg.Events,
		metrics: cfg.Metrics,
		logger:  cfg.Logger.With().Str("component", "admin").Logger(),
	}, nil
}

// UnlinkedNetworks runs a reconciliation pass on behalf of actor.
func (s *Service) UnlinkedNetworks(ctx context.Context, actor string) (*reconcile.Result, error) {
	if err := s.auth.Allow(ctx, actor, ActionNetworksRead); err != nil {
		return nil, err
	}

	ctx, finish := telemetry.WithReconcileRun(ctx, actor)
	result, err := s.engine.FindUnlinked(ctx)
	if err != nil {
		finish(0, 0, err)
		return nil, err
	}
	finish(len(result.Networks), len(result.Failed), nil)

	s.audit(ctx, actor, ActionNetworksRead, "",
		fmt.Sprintf("unlinked=%d failed=%d", len(result.Networks), len(result.Failed)))

	return result, nil
}

// AdoptNetwork links a controller network into the store under ownerID.
func (s *Service) AdoptNetwork(ctx context.Context, actor, id, name, ownerID string) (*stores.Network, error) {
	if err := s.auth.Allow(ctx, actor, ActionNetworkAdopt); err != nil {
		return nil, err
	}

	network, err := s.engine.Adopt(ctx, id, name, ownerID)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		_ = s.events.PublishNetworkAdopted(network.ID, network.Name, actor)
	}
	s.audit(ctx, actor, ActionNetworkAdopt, network.ID, "name="+network.Name)

	return network, nil
}

// GenerateWorld builds and installs a custom world on behalf of actor.
func (s *Service) GenerateWorld(ctx context.Context, actor string, req world.GenerateRequest) (*stores.WorldSettings, error) {
	if err := s.auth.Allow(ctx, actor, ActionWorldGenerate); err != nil {
		return nil, err
	}

	ctx, finish := telemetry.WithWorldOperation(ctx, "generate", actor)
	settings, err := s.manager.Generate(ctx, req)
	if err != nil {
		finish(err)
		s.recordWorldError(err)
		return nil, err
	}
	finish(nil)

	if s.metrics != nil {
		s.metrics.RecordGeneratorRun("success")
		s.metrics.SetCustomWorldInUse(true)
	}
	if s.events != nil {
		_ = s.events.PublishWorldGenerated(actor, settings.PlanetID, settings.PlanetBirth)
	}
	s.audit(ctx, actor, ActionWorldGenerate, s.manager.Layout().PlanetPath(),
		fmt.Sprintf("planet_id=%d planet_birth=%d recommend=%t",
			settings.PlanetID, settings.PlanetBirth, settings.Recommend))

	return settings, nil
}

// ResetWorld restores the planet from backup on behalf of actor.
func (s *Service) ResetWorld(ctx context.Context, actor string) error {
	if err := s.auth.Allow(ctx, actor, ActionWorldReset); err != nil {
		return err
	}

	ctx, finish := telemetry.WithWorldOperation(ctx, "reset", actor)
	err := s.manager.Reset(ctx)
	if err != nil {
		finish(err)
		s.recordWorldError(err)
		// The settings document is defaulted even on failure; keep the
		// gauge honest.
		if s.metrics != nil {
			s.metrics.SetCustomWorldInUse(false)
		}
		return err
	}
	finish(nil)

	if s.metrics != nil {
		s.metrics.SetCustomWorldInUse(false)
	}
	if s.events != nil {
		_ = s.events.PublishWorldReset(actor)
	}
	s.audit(ctx, actor, ActionWorldReset, s.manager.Layout().PlanetPath(), "")

	return nil
}

// WorldStatus reports the lifecycle state of the world artifacts.
func (s *Service) WorldStatus(ctx context.Context, actor string) (*world.Status, error) {
	if err := s.auth.Allow(ctx, actor, ActionWorldRead); err != nil {
		return nil, err
	}

	status, err := s.manager.Status(ctx)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.SetBackupEntries(status.BackupCount)
		s.metrics.SetCustomWorldInUse(status.State == world.StateCustomWorldActive)
	}

	return status, nil
}

// ControllerStatus aggregates node status with network and member totals.
// Member counting is best effort: a network whose member list cannot be
// fetched contributes zero instead of failing the whole call.
func (s *Service) ControllerStatus(ctx context.Context, actor string) (*ControllerStats, error) {
	if err := s.auth.Allow(ctx, actor, ActionStatusRead); err != nil {
		return nil, err
	}

	ctx, finish := telemetry.WithControllerCall(ctx, "status")
	status, err := s.client.Status(ctx)
	if err != nil {
		finish(err)
		return nil, err
	}

	ids, err := s.client.Networks(ctx)
	if err != nil {
		finish(err)
		return nil, err
	}
	finish(nil)

	stats := &ControllerStats{
		Status:       status,
		NetworkCount: len(ids),
	}
	for _, id := range ids {
		members, err := s.client.Members(ctx, id)
		if err != nil {
			s.logger.Warn().Err(err).Str("network", id).Msg("Failed to count members")
			continue
		}
		stats.MemberCount += len(members)
	}

	return stats, nil
}

// Audit returns the most recent audit entries.
func (s *Service) Audit(ctx context.Context, actor string, limit int) ([]*stores.AuditEntry, error) {
	if err := s.auth.Allow(ctx, actor, ActionStatusRead); err != nil {
		return nil, err
	}
	return s.store.ListAudit(ctx, limit)
}

// audit appends an audit entry. A failing audit write is logged, not
// propagated: the operation itself already succeeded.
func (s *Service) audit(ctx context.Context, actor, action, subject, detail string) {
	entry := &stores.AuditEntry{
		ID:        uuid.New().String(),
		Actor:     actor,
		Action:    action,
		Subject:   subject,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.AppendAudit(ctx, entry); err != nil {
		s.logger.Error().Err(err).Str("action", action).Msg("Failed to append audit entry")
	}
}

// recordWorldError records the error classification for a failed world
// operation. The operation counter itself is handled by the telemetry
// context helpers.
func (s *Service) recordWorldError(err error) {
	if s.metrics == nil {
		return
	}

	var werr *world.WorldError
	if errors.As(err, &werr) {
		s.metrics.RecordError(string(werr.Class), werr.Code)
		if werr.Code == world.ErrCodeGeneratorFailed {
			s.metrics.RecordGeneratorRun("failure")
		}
	}
}
