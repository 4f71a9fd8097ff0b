package engine

import (
	"crypto/sha1" //nolint: gosec
	"crypto/sha256"
	"crypto/sha512"
	"crypto/subtle"
	"encoding/hex"
	"hash"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// checkPassword reports whether password matches the stored hash. Accounts
// imported from the first version of the site carry werkzeug hashes
// ("pbkdf2:sha256:260000$salt$hex" or "scrypt:32768:8:1$salt$hex"), every
// other hash is bcrypt.
func checkPassword(stored, password string) bool {
	if isWerkzeugHash(stored) {
		return checkWerkzeug(stored, password)
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
}

// isWerkzeugHash reports whether stored should be replaced by a bcrypt hash.
func isWerkzeugHash(stored string) bool {
	return strings.HasPrefix(stored, "pbkdf2:") || strings.HasPrefix(stored, "scrypt:")
}

func checkWerkzeug(stored, password string) bool {
	method, rest, ok := strings.Cut(stored, "$")
	if !ok {
		return false
	}
	salt, digest, ok := strings.Cut(rest, "$")
	if !ok {
		return false
	}
	want, err := hex.DecodeString(digest)
	if err != nil || len(want) == 0 {
		return false
	}

	params := strings.Split(method, ":")
	var got []byte
	switch params[0] {
	case "pbkdf2":
		if len(params) != 3 {
			return false
		}
		h := werkzeugDigest(params[1])
		iterations, err := strconv.Atoi(params[2])
		if h == nil || err != nil || iterations <= 0 {
			return false
		}
		got = pbkdf2.Key([]byte(password), []byte(salt), iterations, len(want), h)
	case "scrypt":
		if len(params) != 4 {
			return false
		}
		n, nerr := strconv.Atoi(params[1])
		r, rerr := strconv.Atoi(params[2])
		p, perr := strconv.Atoi(params[3])
		if nerr != nil || rerr != nil || perr != nil {
			return false
		}
		got, err = scrypt.Key([]byte(password), []byte(salt), n, r, p, len(want))
		if err != nil {
			return false
		}
	default:
		return false
	}
	return subtle.ConstantTimeCompare(got, want) == 1
}

func werkzeugDigest(name string) func() hash.Hash {
	switch name {
	case "sha1":
		return sha1.New
	case "sha256":
		return sha256.New
	case "sha512":
		return sha512.New
	}
	return nil
}
