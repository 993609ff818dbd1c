package world

import (
	"path/filepath"
	"time"
)

// Default locations of a stock controller installation.
const (
	// DefaultDataRoot is where the controller daemon keeps its state.
	DefaultDataRoot = "/var/lib/zerotier-one"

	// DefaultGenerator is the world generator binary resolved via PATH
	// when no explicit path is configured.
	DefaultGenerator = "ztmkworld"
)

// Layout maps the artifact paths under a controller data root.
type Layout struct {
	// Root is the controller data root directory.
	Root string
}

// NewLayout creates a layout rooted at the given directory.
func NewLayout(root string) Layout {
	return Layout{Root: filepath.Clean(root)}
}

// PlanetPath is the live root-server definition file.
func (l Layout) PlanetPath() string {
	return filepath.Join(l.Root, "planet")
}

// IdentityPath is the controller's public identity file.
func (l Layout) IdentityPath() string {
	return filepath.Join(l.Root, "identity.public")
}

// AuthTokenPath is the controller's local API token file.
func (l Layout) AuthTokenPath() string {
	return filepath.Join(l.Root, "authtoken.secret")
}

// StagingDir is the working directory for generator runs.
func (l Layout) StagingDir() string {
	return filepath.Join(l.Root, "zt-mkworld")
}

// ConfigPath is the generator config file inside the staging directory.
func (l Layout) ConfigPath() string {
	return filepath.Join(l.StagingDir(), configFileName)
}

// OutputPath is the generator output file inside the staging directory.
func (l Layout) OutputPath() string {
	return filepath.Join(l.StagingDir(), outputFileName)
}

// BackupDir holds pre-generation copies of the planet file. Its existence
// marks that a backup was already taken.
func (l Layout) BackupDir() string {
	return filepath.Join(l.Root, "planet_backup")
}

// BackupPath is the backup entry for the given time.
func (l Layout) BackupPath(t time.Time) string {
	return filepath.Join(l.BackupDir(), "planet.bak."+backupStamp(t))
}

// backupStamp renders t as RFC 3339 UTC with every byte outside [0-9A-Za-z]
// replaced by '-'. Lexicographic order of stamps matches chronological
// order, which restore relies on.
func backupStamp(t time.Time) string {
	stamp := []byte(t.UTC().Format(time.RFC3339))
	for i, c := range stamp {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'A' && c <= 'Z':
		case c >= 'a' && c <= 'z':
		default:
			stamp[i] = '-'
		}
	}
	return string(stamp)
}
