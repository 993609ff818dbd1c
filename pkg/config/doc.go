// Package config loads the ztadmin configuration from a YAML file with
// environment variable overrides. A .env file next to the working directory
// is loaded first (godotenv), then ZTADMIN_* variables override individual
// fields. The resulting struct is validated with struct tags before use.
//
// The controller auth token resolves in order: explicit config value,
// ZTADMIN_CONTROLLER_TOKEN, then the authtoken.secret file inside the
// controller data root.
package config
