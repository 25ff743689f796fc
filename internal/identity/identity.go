package identity

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/examsecure/examsecure-backend/internal/config"
)

// Verification errors.
var (
	ErrNotCapable  = errors.New("identity verification not available")
	ErrNotEnrolled = errors.New("no stored credential for user")
	ErrBadSecret   = errors.New("credential mismatch")
	ErrEmptySecret = errors.New("credential secret is empty")
)

// Verifier is the optional second-factor check offered before an exam
// starts. Verification is advisory: callers must treat an unavailable or
// failed check as a soft signal, never as a hard gate on starting.
type Verifier interface {
	// Capable reports whether this backend can verify at all.
	Capable(ctx context.Context) bool
	// Verify checks the secret against the user's stored credential.
	Verify(ctx context.Context, userID, secret string) error
	// HasCredential reports whether the user has enrolled.
	HasCredential(ctx context.Context, userID string) (bool, error)
	// Enroll stores a new credential for the user, replacing any prior one.
	Enroll(ctx context.Context, userID, secret string) error
	// ClearCredential removes the user's stored credential.
	ClearCredential(ctx context.Context, userID string) error
}

// New selects a backend by name. Unknown names fall back to the static
// backend so a misconfigured deployment degrades to "always verified"
// rather than locking takers out.
func New(backend string, rdb *redis.Client, bcryptCost int) Verifier {
	switch backend {
	case "credential":
		return &credentialVerifier{rdb: rdb, cost: bcryptCost}
	case "static":
		return staticVerifier{}
	default:
		log.Warn().Str("backend", backend).Msg("Unknown identity backend, using static")
		return staticVerifier{}
	}
}

// staticVerifier always succeeds. It mirrors running on hardware with no
// secure credential store available.
type staticVerifier struct{}

func (staticVerifier) Capable(context.Context) bool { return false }

func (staticVerifier) Verify(context.Context, string, string) error { return nil }

func (staticVerifier) HasCredential(context.Context, string) (bool, error) { return false, nil }

func (staticVerifier) Enroll(context.Context, string, string) error { return nil }

func (staticVerifier) ClearCredential(context.Context, string) error { return nil }

// credentialVerifier keeps a bcrypt hash of the enrolled secret in Redis.
type credentialVerifier struct {
	rdb  *redis.Client
	cost int
}

func (v *credentialVerifier) Capable(ctx context.Context) bool {
	return v.rdb.Ping(ctx).Err() == nil
}

func (v *credentialVerifier) Verify(ctx context.Context, userID, secret string) error {
	hash, err := v.rdb.Get(ctx, config.CacheKey.IdentityCredentialKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotEnrolled
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) != nil {
		return ErrBadSecret
	}
	return nil
}

func (v *credentialVerifier) HasCredential(ctx context.Context, userID string) (bool, error) {
	_, err := v.rdb.Get(ctx, config.CacheKey.IdentityCredentialKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (v *credentialVerifier) Enroll(ctx context.Context, userID, secret string) error {
	if secret == "" {
		return ErrEmptySecret
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), v.cost)
	if err != nil {
		return err
	}
	return v.rdb.Set(ctx, config.CacheKey.IdentityCredentialKey(userID), string(hash), 0).Err()
}

func (v *credentialVerifier) ClearCredential(ctx context.Context, userID string) error {
	return v.rdb.Del(ctx, config.CacheKey.IdentityCredentialKey(userID)).Err()
}
