// Package world manages the custom root-server definition of a controller
// deployment.
//
// The package splits into four parts:
//
//   - BuildConfig validates generation parameters against the reserved
//     values of the public planet and renders the JSON document the
//     external generator consumes.
//   - Manager drives the lifecycle: precondition checks, a one-time backup
//     of the stock planet, the generator run in a staging directory, the
//     atomic install of the produced planet, and the restore path back to
//     the backed-up original.
//   - Watcher observes the live planet file for out-of-band replacement.
//   - WorldError classifies failures (validation, precondition, execution,
//     storage, conflict) with stable error codes for programmatic handling.
//
// All artifacts live under a single controller data root:
//
//	<root>/planet           live root-server definition
//	<root>/identity.public  controller identity (read only)
//	<root>/zt-mkworld/      generator staging directory
//	<root>/planet_backup/   one-time backup of the stock planet
//
// Operations on one root are mutually exclusive: a Generate or Reset while
// another is running fails fast with ErrCodeBusy.
package world
