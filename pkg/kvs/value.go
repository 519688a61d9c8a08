package kvs

import (
	"encoding/binary"
	"fmt"
	"time"
)

// encodeValue prepends an expiration header to a value.
// Format: [8 bytes: expiration unix nano, 0 = no expiration][value bytes]
// Used by backends without native TTL support (LevelDB, keyring).
func encodeValue(value []byte, ttl time.Duration) []byte {
	expiresAt := int64(0)
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	encoded := make([]byte, 8+len(value))
	binary.BigEndian.PutUint64(encoded[0:8], uint64(expiresAt))
	copy(encoded[8:], value)
	return encoded
}

// decodeValue strips the expiration header and reports whether the value
// has expired.
func decodeValue(encoded []byte) (value []byte, expired bool, err error) {
	if len(encoded) < 8 {
		return nil, false, fmt.Errorf("kvs: invalid encoded value (too short)")
	}

	expiresAt := int64(binary.BigEndian.Uint64(encoded[0:8]))
	if expiresAt > 0 && time.Now().UnixNano() > expiresAt {
		return nil, true, nil
	}

	return encoded[8:], false, nil
}
