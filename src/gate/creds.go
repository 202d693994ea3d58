package gate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ghodjeezreal/paygate/src/types"
	"github.com/Ghodjeezreal/paygate/src/utils"
	"github.com/redis/go-redis/v9"
)

var (
	ErrCredentialsNotCached = errors.New("credentials not cached for offline login")
	ErrRoleNotAllowed       = errors.New("role not allowed to log in offline")
	ErrInvalidLogin         = errors.New("invalid username or password")
)

const credentialTTL = 720 * time.Hour

type cachedCredential struct {
	Hash     string `json:"hash"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

// CredentialCache keeps bcrypt hashes of recently seen logins so security
// staff can sign in at the terminal while the server is unreachable. Only
// SECURITY accounts may log in offline; admin actions always need the
// server.
type CredentialCache struct {
	rdb *redis.Client
}

func NewCredentialCache(rdb *redis.Client) *CredentialCache {
	return &CredentialCache{rdb: rdb}
}

func credentialKey(username string) string {
	return fmt.Sprintf("gate:creds:%s", username)
}

// Store refreshes the cached hash after a successful online login.
func (c *CredentialCache) Store(ctx context.Context, username string, hash string, role types.Role, fullName string) error {
	payload, err := json.Marshal(cachedCredential{
		Hash:     hash,
		Role:     string(role),
		FullName: fullName,
	})
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, credentialKey(username), string(payload), credentialTTL).Err()
}

// OfflineLogin validates a password against the cached hash. It returns the
// cached full name on success.
func (c *CredentialCache) OfflineLogin(ctx context.Context, username string, password string) (string, error) {
	payload, err := c.rdb.Get(ctx, credentialKey(username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCredentialsNotCached
		}
		return "", err
	}
	var cred cachedCredential
	if err := json.Unmarshal([]byte(payload), &cred); err != nil {
		return "", err
	}
	if cred.Role != string(types.ROLE_SECURITY) {
		return "", ErrRoleNotAllowed
	}
	if !utils.CheckPassword(cred.Hash, password) {
		return "", ErrInvalidLogin
	}
	return cred.FullName, nil
}
