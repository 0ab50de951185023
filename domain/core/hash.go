package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash/fnv"
	"math"
)

// Hash represents a cryptographic hash
type Hash string

// NewHash creates a new hash from data
func NewHash(data []byte) Hash {
	sum := sha256.Sum256(data)
	return Hash(hex.EncodeToString(sum[:]))
}

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// Short returns the first 12 hex characters for log lines
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// DeriveCellSeed maps (base seed, cell position, target fraction, discount) to an
// independent stream seed. The float parameters are hashed by bit pattern so
// 0.1 and 0.10000000000000001 collide only if they are the same float64.
func DeriveCellSeed(baseSeed int64, cellIndex int, targetFraction, discount float64) int64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, word := range []uint64{
		uint64(baseSeed),
		uint64(cellIndex),
		math.Float64bits(targetFraction),
		math.Float64bits(discount),
	} {
		binary.LittleEndian.PutUint64(buf[:], word)
		_, _ = h.Write(buf[:])
	}
	return int64(h.Sum64() &^ (1 << 63))
}
