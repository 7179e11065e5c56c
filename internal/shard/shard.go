// Package shard provides shard key generation for distributed DynamoDB indexes.
package shard

import (
	"fmt"
	"hash/fnv"
)

// MaxShards is the largest supported shard count.
const MaxShards = 256

// GroupKey computes the sharded collection group partition key of a document.
// With numShards=1, all documents of a group go to shard "00".
// With numShards>1, documents are distributed across shards based on their path hash.
func GroupKey(collectionID, docPath string, numShards int) string {
	if numShards <= 1 {
		return fmt.Sprintf("%s#00", collectionID)
	}
	if numShards > MaxShards {
		numShards = MaxShards
	}
	h := fnv.New32a()
	h.Write([]byte(docPath))
	shard := h.Sum32() % uint32(numShards)
	return fmt.Sprintf("%s#%02x", collectionID, shard)
}

// GroupKeys returns every shard key of a collection group, in shard order.
// A group query must read all of them.
func GroupKeys(collectionID string, numShards int) []string {
	if numShards < 1 {
		numShards = 1
	}
	if numShards > MaxShards {
		numShards = MaxShards
	}
	keys := make([]string, numShards)
	for i := range keys {
		keys[i] = fmt.Sprintf("%s#%02x", collectionID, i)
	}
	return keys
}
