// Package reconcile compares the networks resident on the controller with
// the network records in the admin store. A network the controller hosts
// but the store does not know is "unlinked"; the engine reports unlinked
// networks enriched with controller detail so an operator can adopt them
// explicitly. The engine never creates store records on its own and never
// mutates controller state.
package reconcile
