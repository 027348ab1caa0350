package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/bcrypt"
)

// Scheme identifies the algorithm a stored password hash was produced with.
type Scheme int

const (
	SchemeUnknown Scheme = iota
	// SchemeArgon2id is the preferred scheme; Hash always produces it.
	SchemeArgon2id
	// SchemeBcrypt is the legacy scheme. It still verifies but gets
	// upgraded on the next successful login.
	SchemeBcrypt
)

func (s Scheme) String() string {
	switch s {
	case SchemeArgon2id:
		return "argon2id"
	case SchemeBcrypt:
		return "bcrypt"
	}
	return "unknown"
}

// Deprecated reports whether hashes of this scheme should be replaced.
func (s Scheme) Deprecated() bool {
	return s == SchemeBcrypt
}

// IdentifyScheme classifies a stored hash by its modular crypt prefix.
func IdentifyScheme(hash string) Scheme {
	switch {
	case strings.HasPrefix(hash, "$argon2id$"):
		return SchemeArgon2id
	case strings.HasPrefix(hash, "$2a$"), strings.HasPrefix(hash, "$2b$"), strings.HasPrefix(hash, "$2y$"):
		return SchemeBcrypt
	}
	return SchemeUnknown
}

var ErrInvalidHash = errors.New("invalid password hash")

// Argon2Params are the argon2id cost parameters used for new hashes.
type Argon2Params struct {
	Memory      uint32 // KiB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params match the argon2 defaults commonly used by passlib.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024,
	Time:        3,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Upper bounds accepted when verifying a stored hash, so a crafted hash
// string cannot make verification arbitrarily expensive.
const (
	maxArgon2Memory      = 1 << 20
	maxArgon2Time        = 32
	maxArgon2Parallelism = 64
)

func (p Argon2Params) validate() error {
	switch {
	case p.Time < 1:
		return errors.New("argon2: time must be >= 1")
	case p.Parallelism < 1:
		return errors.New("argon2: parallelism must be >= 1")
	case p.Memory < 8*uint32(p.Parallelism):
		return errors.New("argon2: memory must be >= 8*parallelism KiB")
	case p.Memory > maxArgon2Memory || p.Time > maxArgon2Time || p.Parallelism > maxArgon2Parallelism:
		return errors.New("argon2: parameters exceed verification bounds")
	case p.SaltLength < 8:
		return errors.New("argon2: salt length must be >= 8")
	case p.KeyLength < 16:
		return errors.New("argon2: key length must be >= 16")
	}
	return nil
}

// Hasher hashes and verifies passwords. New hashes use argon2id; bcrypt
// hashes are accepted and reported for upgrade.
type Hasher struct {
	params Argon2Params
	dummy  string
}

// NewHasher validates params and returns a Hasher.
func NewHasher(params Argon2Params) (*Hasher, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}
	h := &Hasher{params: params}

	dummy, err := h.Hash("dummy password used for timing equalisation")
	if err != nil {
		return nil, err
	}
	h.dummy = dummy

	return h, nil
}

// Hash returns an argon2id PHC string:
//
//	$argon2id$v=19$m=<mem>,t=<time>,p=<par>$<salt>$<key>
func (h *Hasher) Hash(plain string) (string, error) {
	salt := make([]byte, h.params.SaltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("salt: %w", err)
	}

	key := argon2.IDKey([]byte(plain), salt, h.params.Time, h.params.Memory, h.params.Parallelism, h.params.KeyLength)

	b64 := base64.RawStdEncoding
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		h.params.Memory,
		h.params.Time,
		h.params.Parallelism,
		b64.EncodeToString(salt),
		b64.EncodeToString(key),
	), nil
}

// Verify reports whether plain matches stored. It returns false for an
// empty plaintext, a mismatch, and for malformed or unsupported hashes.
func (h *Hasher) Verify(plain, stored string) bool {
	if plain == "" {
		return false
	}

	switch IdentifyScheme(stored) {
	case SchemeArgon2id:
		ok, err := verifyArgon2id(plain, stored)
		return err == nil && ok
	case SchemeBcrypt:
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
	}
	return false
}

// VerifyAndUpdate verifies plain against stored and, when the stored hash
// uses a deprecated scheme, also returns a replacement argon2id hash.
// newHash is empty when verification fails or no upgrade is needed.
func (h *Hasher) VerifyAndUpdate(plain, stored string) (ok bool, newHash string) {
	if !h.Verify(plain, stored) {
		return false, ""
	}
	if !IdentifyScheme(stored).Deprecated() {
		return true, ""
	}

	replacement, err := h.Hash(plain)
	if err != nil {
		return true, ""
	}
	return true, replacement
}

// VerifyDummy burns the same work as a real argon2id verification. It is
// used when the looked-up account does not exist.
func (h *Hasher) VerifyDummy(plain string) {
	_ = h.Verify(plain, h.dummy)
}

// HashBcrypt produces a legacy bcrypt hash. New accounts never get one;
// it exists for importing and seeding accounts from older deployments.
func HashBcrypt(plain string, cost int) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func verifyArgon2id(plain, encoded string) (bool, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return false, ErrInvalidHash
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false, ErrInvalidHash
	}

	var mem, t, p uint32
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &mem, &t, &p); err != nil {
		return false, ErrInvalidHash
	}
	if mem == 0 || t == 0 || p == 0 || mem > maxArgon2Memory || t > maxArgon2Time || p > maxArgon2Parallelism {
		return false, ErrInvalidHash
	}

	// passlib and other producers may or may not pad
	b64 := base64.RawStdEncoding
	salt, err := b64.DecodeString(strings.TrimRight(parts[4], "="))
	if err != nil {
		return false, ErrInvalidHash
	}
	expected, err := b64.DecodeString(strings.TrimRight(parts[5], "="))
	if err != nil || len(expected) < 16 {
		return false, ErrInvalidHash
	}

	key := argon2.IDKey([]byte(plain), salt, t, mem, uint8(p), uint32(len(expected)))
	return subtle.ConstantTimeCompare(key, expected) == 1, nil
}
