// Package cache provides the advisory key/value layer that sits in front of the
// remote repository. Backends (Redis, a disk store under StoragePath, or a
// no-op) implement Backend; callers only ever talk to Layer, which bounds each
// call with a short timeout, logs backend failures and turns them into misses.
// Nothing stored here is authoritative: every code path above Layer must stay
// correct when all cache operations are no-ops.
package cache
