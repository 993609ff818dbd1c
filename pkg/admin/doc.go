// Package admin is the facade the CLI (and any future API layer) calls.
// It owns the authorization check and the audit trail so the underlying
// engines stay policy-free: every operation asks the Authorizer first,
// delegates to the reconcile engine or the world manager, and appends an
// audit entry with the acting operator.
package admin
