package service

import "sync"

// Mutations for the same activity must be serialized: the capacity and
// uniqueness checks plus the publish that follows commit form one critical
// section per activity. Instead of a single global lock, activities are
// distributed across N shards based on a hash of the activity name, so
// operations on different activities proceed concurrently.
const numActivityShards = 128

type keyedLocks struct {
	shards [numActivityShards]sync.Mutex
}

func (l *keyedLocks) lock(key string) func() {
	shard := &l.shards[hashString(key)%numActivityShards]
	shard.Lock()
	return shard.Unlock
}

// hashString uses FNV-1a for even shard distribution.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
