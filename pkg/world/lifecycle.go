package world

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ztadmin/ztadmin/pkg/stores"
)

// artifactLocks serializes world operations per artifact root across the
// whole process, regardless of how many Managers point at the same root.
var artifactLocks = newPathLock()

// State is the explicit lifecycle state of the root-server definition,
// derived from the persisted settings document rather than from directory
// contents.
type State string

const (
	// StateNoCustomWorld means the stock planet is in place.
	StateNoCustomWorld State = "no_custom_world"

	// StateCustomWorldActive means a generated planet is installed.
	StateCustomWorldActive State = "custom_world_active"
)

// Status describes the current world lifecycle state and on-disk artifacts.
type Status struct {
	// State is the lifecycle state from the persisted settings.
	State State `json:"state"`

	// PlanetPath is the live planet file location.
	PlanetPath string `json:"planet_path"`

	// PlanetSize is the planet file size in bytes, zero if absent.
	PlanetSize int64 `json:"planet_size"`

	// PlanetModTime is the planet file modification time, zero if absent.
	PlanetModTime time.Time `json:"planet_mod_time"`

	// BackupCount is the number of backup entries on disk.
	BackupCount int `json:"backup_count"`

	// Settings is the persisted world settings document.
	Settings *stores.WorldSettings `json:"settings"`
}

// Manager drives generation, installation, backup, and restoration of the
// root-server definition under one controller data root.
type Manager struct {
	layout    Layout
	store     stores.Store
	runner    Runner
	generator string
	logger    zerolog.Logger
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// DataRoot is the controller data root. Defaults to DefaultDataRoot.
	DataRoot string

	// Generator is the world generator binary, either a bare name resolved
	// via PATH or an explicit path. Defaults to DefaultGenerator.
	Generator string

	// Store persists the world settings document. Required.
	Store stores.Store

	// Runner invokes the generator. Defaults to ExecRunner.
	Runner Runner

	// Logger is the parent logger.
	Logger zerolog.Logger
}

// NewManager creates a world lifecycle manager.
func NewManager(cfg ManagerConfig) (*Manager, error) {
	if cfg.Store == nil {
		return nil, NewValidationError("store is required", nil)
	}
	if cfg.DataRoot == "" {
		cfg.DataRoot = DefaultDataRoot
	}
	if cfg.Generator == "" {
		cfg.Generator = DefaultGenerator
	}
	if cfg.Runner == nil {
		cfg.Runner = ExecRunner{}
	}

	return &Manager{
		layout:    NewLayout(cfg.DataRoot),
		store:     cfg.Store,
		runner:    cfg.Runner,
		generator: cfg.Generator,
		logger:    cfg.Logger.With().Str("component", "world-manager").Logger(),
	}, nil
}

// Layout returns the artifact layout the manager operates on.
func (m *Manager) Layout() Layout {
	return m.layout
}

// Generate validates the request, runs the world generator in the staging
// directory, installs the produced planet, and persists the new settings.
// The live planet is backed up once: while a backup directory exists no
// further backups are written. A failed generator run leaves the live
// planet untouched.
func (m *Manager) Generate(ctx context.Context, req GenerateRequest) (*stores.WorldSettings, error) {
	if !artifactLocks.TryAcquire(m.layout.Root) {
		return nil, NewConflictError("another world operation is in progress", nil).
			WithCode(ErrCodeBusy).WithPath(m.layout.Root).WithOp("generate")
	}
	defer artifactLocks.Release(m.layout.Root)

	if err := m.checkWritable(); err != nil {
		return nil, err
	}

	identity := strings.TrimSpace(req.Identity)
	if identity == "" {
		var err error
		identity, err = m.readIdentity()
		if err != nil {
			return nil, err
		}
	}

	generator, err := m.resolveGenerator()
	if err != nil {
		return nil, err
	}

	cfg, err := BuildConfig(req, identity)
	if err != nil {
		return nil, err
	}

	if err := m.backupOnce(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(m.layout.StagingDir(), 0755); err != nil {
		return nil, NewStorageError("failed to create staging directory", err).
			WithPath(m.layout.StagingDir()).WithOp("generate")
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, NewStorageError("failed to encode generator config", err).WithOp("generate")
	}
	if err := os.WriteFile(m.layout.ConfigPath(), data, 0600); err != nil {
		return nil, NewStorageError("failed to write generator config", err).
			WithPath(m.layout.ConfigPath()).WithOp("generate")
	}

	start := time.Now()
	output, err := m.runner.Run(ctx, m.layout.StagingDir(), []string{generator, "-c", configFileName})
	if err != nil {
		m.logger.Error().Err(err).
			Str("generator", generator).
			Str("output", strings.TrimSpace(string(output))).
			Msg("World generator failed")
		return nil, NewExecutionError("world generator failed", err).
			WithCode(ErrCodeGeneratorFailed).WithPath(m.layout.StagingDir()).WithOp("generate")
	}

	m.logger.Debug().
		Dur("duration", time.Since(start)).
		Msg("World generator completed")

	if err := replaceFile(m.layout.OutputPath(), m.layout.PlanetPath()); err != nil {
		return nil, NewStorageError("failed to install generated planet", err).
			WithCode(ErrCodeInstallFailed).WithPath(m.layout.PlanetPath()).WithOp("generate")
	}

	settings := &stores.WorldSettings{
		InUse:       true,
		PlanetID:    cfg.PlanetID,
		PlanetBirth: cfg.PlanetBirth,
		Recommend:   req.Recommend,
		Comment:     req.Comment,
		Endpoints:   req.Endpoints,
		Identity:    identity,
		UpdatedAt:   time.Now().UTC(),
	}
	if err := m.store.SaveWorldSettings(ctx, settings); err != nil {
		return nil, NewStorageError("failed to persist world settings", err).WithOp("generate")
	}

	m.logger.Info().
		Int64("planet_id", settings.PlanetID).
		Int64("planet_birth", settings.PlanetBirth).
		Bool("recommend", settings.Recommend).
		Int("endpoints", len(settings.Endpoints)).
		Msg("Custom world installed")

	return settings, nil
}

// Reset restores the planet from the most recent backup and removes the
// backup and staging directories. The settings document goes back to its
// defaults first, even when no backup exists to restore from.
func (m *Manager) Reset(ctx context.Context) error {
	if !artifactLocks.TryAcquire(m.layout.Root) {
		return NewConflictError("another world operation is in progress", nil).
			WithCode(ErrCodeBusy).WithPath(m.layout.Root).WithOp("reset")
	}
	defer artifactLocks.Release(m.layout.Root)

	// Settings first: a reset must clear the custom-world flag no matter
	// what the filesystem looks like.
	if err := m.store.ResetWorldSettings(ctx); err != nil {
		return NewStorageError("failed to reset world settings", err).WithOp("reset")
	}

	backupDir := m.layout.BackupDir()
	entries, err := os.ReadDir(backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return NewPreconditionError("no backup available to restore", nil).
				WithCode(ErrCodeNoBackup).WithPath(backupDir).WithOp("reset")
		}
		return NewStorageError("failed to read backup directory", err).
			WithPath(backupDir).WithOp("reset")
	}

	latest := ""
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), "planet.bak.") {
			continue
		}
		if entry.Name() > latest {
			latest = entry.Name()
		}
	}
	if latest == "" {
		return NewPreconditionError("backup directory holds no backup entries", nil).
			WithCode(ErrCodeNoBackup).WithPath(backupDir).WithOp("reset")
	}

	source := filepath.Join(backupDir, latest)
	if err := replaceFile(source, m.layout.PlanetPath()); err != nil {
		return NewStorageError("failed to restore planet from backup", err).
			WithCode(ErrCodeRestoreFailed).WithPath(source).WithOp("reset")
	}

	if err := os.RemoveAll(backupDir); err != nil {
		return NewStorageError("failed to remove backup directory", err).
			WithCode(ErrCodeRestoreFailed).WithPath(backupDir).WithOp("reset")
	}
	if err := os.RemoveAll(m.layout.StagingDir()); err != nil {
		return NewStorageError("failed to remove staging directory", err).
			WithCode(ErrCodeRestoreFailed).WithPath(m.layout.StagingDir()).WithOp("reset")
	}

	m.logger.Info().
		Str("backup", latest).
		Msg("Planet restored from backup")

	return nil
}

// Status reports the lifecycle state, planet file facts, and backup count.
// A missing planet file is not an error; the size and modification time
// stay zero.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	settings, err := m.store.GetWorldSettings(ctx)
	if err != nil {
		return nil, NewStorageError("failed to load world settings", err).WithOp("status")
	}

	state := StateNoCustomWorld
	if settings.InUse {
		state = StateCustomWorldActive
	}

	status := &Status{
		State:      state,
		PlanetPath: m.layout.PlanetPath(),
		Settings:   settings,
	}

	if info, err := os.Stat(m.layout.PlanetPath()); err == nil {
		status.PlanetSize = info.Size()
		status.PlanetModTime = info.ModTime()
	}

	if entries, err := os.ReadDir(m.layout.BackupDir()); err == nil {
		for _, entry := range entries {
			if !entry.IsDir() && strings.HasPrefix(entry.Name(), "planet.bak.") {
				status.BackupCount++
			}
		}
	}

	return status, nil
}

// checkWritable probes the data root with a throwaway temp file.
func (m *Manager) checkWritable() error {
	probe, err := os.CreateTemp(m.layout.Root, ".ztadmin-probe-*")
	if err != nil {
		return NewPreconditionError("data root is not writable", err).
			WithCode(ErrCodePermissionDenied).WithPath(m.layout.Root)
	}
	name := probe.Name()
	_ = probe.Close()
	_ = os.Remove(name)
	return nil
}

// readIdentity loads the controller's public identity from the data root.
func (m *Manager) readIdentity() (string, error) {
	data, err := os.ReadFile(m.layout.IdentityPath())
	if err != nil {
		return "", NewPreconditionError("controller identity is not available", err).
			WithCode(ErrCodeMissingIdentity).WithPath(m.layout.IdentityPath())
	}

	identity := strings.TrimSpace(string(data))
	if identity == "" {
		return "", NewPreconditionError("controller identity file is empty", nil).
			WithCode(ErrCodeMissingIdentity).WithPath(m.layout.IdentityPath())
	}

	return identity, nil
}

// resolveGenerator locates the generator binary. Bare names go through
// PATH, anything with a separator is checked directly.
func (m *Manager) resolveGenerator() (string, error) {
	if strings.ContainsRune(m.generator, os.PathSeparator) {
		info, err := os.Stat(m.generator)
		if err != nil || info.IsDir() {
			return "", NewPreconditionError("world generator binary not found", err).
				WithCode(ErrCodeMissingGenerator).WithPath(m.generator)
		}
		return m.generator, nil
	}

	path, err := exec.LookPath(m.generator)
	if err != nil {
		return "", NewPreconditionError("world generator binary not found in PATH", err).
			WithCode(ErrCodeMissingGenerator).WithPath(m.generator)
	}
	return path, nil
}

// backupOnce copies the live planet into the backup directory unless a
// backup directory already exists. The directory's existence is the marker
// that a pristine copy was taken; later generations never overwrite it.
func (m *Manager) backupOnce() error {
	planet := m.layout.PlanetPath()
	if _, err := os.Stat(planet); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return NewStorageError("failed to stat planet file", err).WithPath(planet)
	}

	backupDir := m.layout.BackupDir()
	if _, err := os.Stat(backupDir); err == nil {
		m.logger.Debug().Str("path", backupDir).Msg("Backup already taken, skipping")
		return nil
	} else if !os.IsNotExist(err) {
		return NewStorageError("failed to stat backup directory", err).WithPath(backupDir)
	}

	if err := os.MkdirAll(backupDir, 0755); err != nil {
		return NewStorageError("failed to create backup directory", err).WithPath(backupDir)
	}

	target := m.layout.BackupPath(time.Now())
	if err := copyFile(planet, target); err != nil {
		return NewStorageError("failed to back up planet file", err).WithPath(target)
	}

	m.logger.Info().Str("backup", target).Msg("Planet backed up")
	return nil
}

// copyFile copies src to dst preserving the source mode.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}

	sourceInfo, err := os.Stat(src)
	if err != nil {
		return err
	}
	return os.Chmod(dst, sourceInfo.Mode())
}

// replaceFile copies src over dst through a temp file in dst's directory
// and a rename, so readers never observe a partially written planet.
func replaceFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}

	dir := filepath.Dir(dst)
	tmp, err := os.CreateTemp(dir, ".planet-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, dst); err != nil {
		_ = os.Remove(tmpName)
		return err
	}

	return nil
}
