// Package remote wraps the GitHub repository that acts as the single source of
// truth for articles. It exposes tree listing, blob read, and conditional
// write/delete primitives keyed by path and blob SHA, and classifies every
// transport failure into one of the kinds defined in errors.go (not found,
// conflict, already exists, unavailable) so callers never inspect messages.
// Higher layers (article) treat anything read from here as authoritative and
// everything in the cache package as disposable.
package remote
