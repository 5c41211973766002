package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"imagedrop/api/internal/config"
	"imagedrop/api/internal/ids"
	"imagedrop/api/internal/models"
	"imagedrop/api/internal/session"
)

// ErrInvalidCredentials is returned for unknown usernames and wrong passwords
// alike; the two cases must not be distinguishable by the caller.
var ErrInvalidCredentials = errors.New("invalid username or password")

// CredentialSource resolves usernames to users. The static config-backed
// implementation is the only one today; the interface exists so a future
// backing store only swaps the lookup, not the gate.
type CredentialSource interface {
	Lookup(username string) (models.User, bool)
}

// StaticUsers is the fixed user list loaded once at startup and immutable
// afterwards.
type StaticUsers struct {
	byName map[string]models.User
}

func NewStaticUsers(credentials []config.UserCredential) (*StaticUsers, error) {
	byName := make(map[string]models.User, len(credentials))
	for _, cred := range credentials {
		if cred.Username == "" || cred.PasswordHash == "" {
			return nil, fmt.Errorf("user entry missing username or password hash")
		}
		if _, exists := byName[cred.Username]; exists {
			return nil, fmt.Errorf("duplicate username %q", cred.Username)
		}
		id := cred.ID
		if id == "" {
			id = ids.New()
		}
		byName[cred.Username] = models.User{
			ID:           id,
			Username:     cred.Username,
			PasswordHash: []byte(cred.PasswordHash),
		}
	}
	return &StaticUsers{byName: byName}, nil
}

func (u *StaticUsers) Lookup(username string) (models.User, bool) {
	user, ok := u.byName[username]
	return user, ok
}

type PasswordVerifier func(password string, encodedHash []byte) (bool, error)

type AuthService struct {
	users    CredentialSource
	sessions session.Store
	verify   PasswordVerifier
	ttl      time.Duration
	log      zerolog.Logger
}

func NewAuthService(users CredentialSource, sessions session.Store, verify PasswordVerifier, ttl time.Duration, log zerolog.Logger) *AuthService {
	return &AuthService{
		users:    users,
		sessions: sessions,
		verify:   verify,
		ttl:      ttl,
		log:      log,
	}
}

// Login checks the credential pair against the user list and establishes a
// session on success.
func (s *AuthService) Login(ctx context.Context, username, password string) (models.Session, models.User, error) {
	user, found := s.users.Lookup(username)
	if !found {
		return models.Session{}, models.User{}, ErrInvalidCredentials
	}

	ok, err := s.verify(password, user.PasswordHash)
	if err != nil || !ok {
		return models.Session{}, models.User{}, ErrInvalidCredentials
	}

	now := time.Now()
	sess := models.Session{
		ID:        ids.New(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return models.Session{}, models.User{}, fmt.Errorf("create session: %w", err)
	}

	s.log.Info().Str("username", user.Username).Msg("login succeeded")
	return sess, user, nil
}

// Logout destroys the session. A store failure is reported to the caller
// rather than swallowed; logging out must not silently succeed.
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}

func (s *AuthService) SessionTTL() time.Duration {
	return s.ttl
}
