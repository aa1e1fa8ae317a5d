package generator

import (
	"crypto/rand"
	"encoding/hex"
	"math/big"
)

const (
	shortCodeChars  = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	shortCodeLength = 6
	idBytes         = 16
)

// GenerateID returns a 32-character hex identifier suitable as a primary
// key. Collision-resistant across processes without coordination.
func GenerateID() string {
	b := make([]byte, idBytes)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// GenerateShortCode returns a 6-character code drawn uniformly from
// [A-Z0-9]. Uniqueness is not guaranteed here; the caller checks the
// store and regenerates on conflict.
func GenerateShortCode() (string, error) {
	b := make([]byte, shortCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(shortCodeChars))))
		if err != nil {
			return "", err
		}

		b[i] = shortCodeChars[n.Int64()]
	}

	return string(b), nil
}
