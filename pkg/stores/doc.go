// Package stores provides persistence layer implementations for ztadmin.
// It includes SQLite-based storage with WAL mode, embedded migrations,
// and CRUD operations for linked networks, the world settings document,
// and the audit log, plus an in-memory store for tests.
package stores
