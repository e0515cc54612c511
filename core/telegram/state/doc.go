// Package state keeps per-user conversation sessions in memory.
// Sessions are sharded by user id so users on different shards never contend.
package state
