// Package cache stores oracle refinement outcomes keyed by decrypted text.
//
// Keys are derived from the decrypted text itself: texts shorter than 100
// characters are used directly, longer ones are replaced by a SHA-256 digest
// so key size stays bounded. Each entry records the refined text, whether the
// refinement passed the similarity gate, and a creation timestamp. Entries
// older than the TTL (24 hours by default) are treated as absent.
//
// Two backends are provided: a file store that writes one JSON document per
// entry under $XDG_CACHE_HOME/colsolve, and a BadgerDB store that also sets a
// native TTL on every key. Both are safe for concurrent use; writes to the
// same key are last-write-wins.
package cache
