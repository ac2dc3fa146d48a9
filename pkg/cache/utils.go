package cache

import (
	"crypto/md5"
	"encoding/hex"
)

// GenerateKey joins a prefix and id into a cache key.
func GenerateKey(prefix, id string) string {
	return prefix + ":" + id
}

// HashKey digests an arbitrary string into a fixed-width key segment.
func HashKey(key string) string {
	sum := md5.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}
