// Package merge reconciles two versions of a record collection.
//
// It knows nothing about the records themselves: callers provide the identity
// key and the rule deciding which version survives a collision.
package merge

import "time"

// TieBreak chooses between the local and the remote version of a record
// sharing the same key.
type TieBreak[T any] func(local, remote T) T

// ByKey merges local and remote into a single collection with one record per key.
//
// Every local record is kept unless a remote record has the same key, in which
// case tieBreak decides. Remote records with a key absent locally are inserted.
// Within a single input a later record replaces an earlier one with the same key.
//
// The output lists keys in first-seen order, local first. Callers that need a
// specific order must sort the result.
func ByKey[T any, K comparable](local, remote []T, keyOf func(T) K, tieBreak TieBreak[T]) []T {
	index := make(map[K]int, len(local)+len(remote))
	merged := make([]T, 0, len(local)+len(remote))

	for _, rec := range local {
		k := keyOf(rec)
		if i, ok := index[k]; ok {
			merged[i] = rec
			continue
		}
		index[k] = len(merged)
		merged = append(merged, rec)
	}

	for _, rec := range remote {
		k := keyOf(rec)
		i, ok := index[k]
		if !ok {
			index[k] = len(merged)
			merged = append(merged, rec)
			continue
		}
		merged[i] = tieBreak(merged[i], rec)
	}
	return merged
}

// RemoteWins always keeps the remote version.
func RemoteWins[T any](_, remote T) T { return remote }

// LatestWins keeps the version with the most recent timestamp, as returned by at.
// Ties go to the remote version.
func LatestWins[T any](at func(T) time.Time) TieBreak[T] {
	return func(local, remote T) T {
		if !at(remote).Before(at(local)) {
			return remote
		}
		return local
	}
}
