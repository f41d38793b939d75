package auth

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Winter-Krimmert/Advanced-Blog-API/models"
	"github.com/Winter-Krimmert/Advanced-Blog-API/utils"
)

var (
	ErrMissingCredentials = errors.New("missing username or password")
	// ErrInvalidCredentials is returned both for unknown usernames and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var (
	dummyHashOnce sync.Once
	dummyHash     string
)

// CredentialVerifier checks a username/password pair against stored bcrypt hashes.
type CredentialVerifier struct {
	users UserStore
}

func NewCredentialVerifier(users UserStore) *CredentialVerifier {
	return &CredentialVerifier{users: users}
}

// VerifyCredentials returns the user owning username when password matches its hash.
func (v *CredentialVerifier) VerifyCredentials(ctx context.Context, username, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	user, err := v.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// spend the same bcrypt work as a real comparison
			utils.CheckPassword(unknownUserHash(), password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func unknownUserHash() string {
	dummyHashOnce.Do(func() {
		dummyHash, _ = utils.HashPassword("unknown-user-placeholder")
	})
	return dummyHash
}
