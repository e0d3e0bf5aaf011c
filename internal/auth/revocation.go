package auth

import "sync"

// Tokens revoked via logout before their natural expiry. Entries live for the
// lifetime of the process; a multi-instance deployment would need a shared
// store with expiry-based eviction instead.
var (
	revokedMu     sync.RWMutex
	revokedTokens = make(map[string]struct{})
)

func RevokeToken(token string) {
	revokedMu.Lock()
	defer revokedMu.Unlock()
	revokedTokens[token] = struct{}{}
}

func IsTokenRevoked(token string) bool {
	revokedMu.RLock()
	defer revokedMu.RUnlock()
	_, revoked := revokedTokens[token]
	return revoked
}
