package config

import (
	"fmt"
)

type CacheKeyStruct struct{}

func NewCacheKeyStruct() *CacheKeyStruct {
	return &CacheKeyStruct{}
}

// UserSessionKey returns the cache key for a user's login session.
func (r *CacheKeyStruct) UserSessionKey(userID string) string {
	return fmt.Sprintf("login:%s", userID)
}

// IdentityCredentialKey returns the cache key for a user's stored
// identity-verification secret.
func (r *CacheKeyStruct) IdentityCredentialKey(userID string) string {
	return fmt.Sprintf("identity:%s:credential", userID)
}

var CacheKey = NewCacheKeyStruct()
