package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// KeyVersion is part of every layout and artifact key. Bump it whenever the
// engine produces different output for the same graph and options, so
// layouts cached by an older build miss instead of being served.
const KeyVersion = 1

// hashKey returns "<kind>:v<KeyVersion>:<sha256 of parts as JSON>".
func hashKey(kind string, parts ...any) string {
	data, err := json.Marshal(parts)
	if err != nil {
		data = fmt.Appendf(nil, "%#v", parts)
	}
	return fmt.Sprintf("%s:v%d:%s", kind, KeyVersion, Hash(data))
}

// Hash returns the hex SHA-256 of data. Graph documents, layouts and file
// cache paths are addressed by it.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
