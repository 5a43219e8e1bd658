// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package romfs

import (
	"encoding/binary"
	"math/bits"
)

// PathHash is the bucket hash of an entry: its parent's table offset
// mixed with its own name. Name bytes are sign-extended before mixing,
// so names with bytes >= 0x80 hash the way the console computes them.
func PathHash(parent uint32, name string) uint32 {
	hash := parent ^ 123456789
	for i := 0; i < len(name); i++ {
		hash = bits.RotateLeft32(hash, -5)
		hash ^= uint32(int32(int8(name[i])))
	}
	return hash
}

// BucketCount returns the hash table size for count entries: 3 below
// 3, the next odd number below 19, and otherwise the smallest value at
// or above count divisible by none of the primes up to 17.
func BucketCount(count uint64) uint64 {
	if count < 3 {
		return 3
	}
	if count < 19 {
		return count | 1
	}
	for count%2 == 0 || count%3 == 0 || count%5 == 0 || count%7 == 0 ||
		count%11 == 0 || count%13 == 0 || count%17 == 0 {
		count++
	}
	return count
}

// hashTable is an array of bucket heads holding entry offsets.
type hashTable []uint32

func newHashTable(buckets uint64) hashTable {
	table := make(hashTable, buckets)
	for i := range table {
		table[i] = EntryEmpty
	}
	return table
}

func decodeHashTable(data []byte) hashTable {
	table := make(hashTable, len(data)/4)
	for i := range table {
		table[i] = binary.LittleEndian.Uint32(data[i*4:])
	}
	return table
}

// insert makes entryOffset the head of hash's bucket and returns the
// previous head, which the caller stores in the entry's hash field.
func (t hashTable) insert(hash, entryOffset uint32) uint32 {
	bucket := hash % uint32(len(t))
	previous := t[bucket]
	t[bucket] = entryOffset
	return previous
}

// head returns the newest entry offset in hash's bucket.
func (t hashTable) head(hash uint32) uint32 {
	if len(t) == 0 {
		return EntryEmpty
	}
	return t[hash%uint32(len(t))]
}

func (t hashTable) encode(buffer []byte) {
	for i, offset := range t {
		binary.LittleEndian.PutUint32(buffer[i*4:], offset)
	}
}

func (t hashTable) byteSize() uint64 {
	return uint64(len(t)) * 4
}
