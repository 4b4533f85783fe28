package common

import "math"

// CombineHash mixes value into seed.
func CombineHash(seed *uint32, value uint32) {
	*seed ^= value + 0x9e3779b9 + (*seed << 6) + (*seed >> 2)
}

// HashFloat returns the bit pattern of f for hashing.
func HashFloat(f float32) uint32 {
	return math.Float32bits(f)
}

// HashBool returns 1 for true and 0 for false.
func HashBool(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// HashString returns the 32-bit FNV-1a hash of s.
func HashString(s string) uint32 {
	h := uint32(2166136261)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= 16777619
	}
	return h
}
