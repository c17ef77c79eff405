// Package session tracks the authenticated DutyFlow user and answers role
// checks for the dashboard and navigation.
//
// A session is either fully authenticated (email and role present) or
// absent. Tokens are bearer JWTs issued by the reminder service; the role is
// read from the "role" claim. Hiding controls here is a UX guard only: the
// remote API checks the same token on every mutating call.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/kingrea/dutyflow/internal/access"
	"github.com/kingrea/dutyflow/internal/failure"
	"github.com/kingrea/dutyflow/internal/storage"
)

// StorageKey is where the session is persisted between runs.
const StorageKey = "session"

// Session is the authenticated identity.
type Session struct {
	Email     string      `json:"email"`
	Role      access.Role `json:"role"`
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at,omitempty"`
}

func (s Session) expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// Claims is the token payload DutyFlow understands.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// Store owns the current session.
type Store struct {
	port   storage.Port
	secret []byte
	clock  func() time.Time
	log    zerolog.Logger

	mu      sync.RWMutex
	current *Session
	loading bool
}

// Option customizes a Store.
type Option func(*Store)

// WithSigningSecret enables HS256 signature verification on Login.
func WithSigningSecret(secret string) Option {
	return func(s *Store) {
		if secret = strings.TrimSpace(secret); secret != "" {
			s.secret = []byte(secret)
		}
	}
}

// WithClock lets tests control expiry.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(log zerolog.Logger) Option {
	return func(s *Store) {
		s.log = log
	}
}

// NewStore returns an unauthenticated store persisting through port.
func NewStore(port storage.Port, opts ...Option) *Store {
	s := &Store{
		port:  port,
		clock: time.Now,
		log:   zerolog.Nop(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Restore loads a previously persisted session. Missing, malformed or
// expired sessions leave the store unauthenticated; only storage failures
// are returned.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if s.port == nil {
		return nil
	}
	data, err := s.port.Read(ctx, StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		s.log.Error().Err(err).Msg("session restore failed")
		return failure.Persistence("session: restore", err)
	}
	var restored Session
	if err := json.Unmarshal(data, &restored); err != nil || restored.Email == "" || !restored.Role.Valid() {
		s.log.Warn().Err(err).Msg("discarding malformed persisted session")
		_ = s.port.Clear(ctx, StorageKey)
		return nil
	}
	if restored.expired(s.clock()) {
		s.log.Info().Str("email", restored.Email).Msg("persisted session expired")
		_ = s.port.Clear(ctx, StorageKey)
		return nil
	}
	s.mu.Lock()
	s.current = &restored
	s.mu.Unlock()
	s.log.Info().Str("email", restored.Email).Str("role", restored.Role.String()).Msg("session restored")
	return nil
}

// Login authenticates with a bearer token. On any error the store stays
// unauthenticated.
func (s *Store) Login(ctx context.Context, token string) (Session, error) {
	sess, err := s.parse(strings.TrimSpace(token))
	if err != nil {
		s.log.Warn().Err(err).Msg("login rejected")
		return Session{}, err
	}
	s.mu.Lock()
	s.current = &sess
	s.mu.Unlock()
	s.persist(ctx, sess)
	s.log.Info().Str("email", sess.Email).Str("role", sess.Role.String()).Msg("logged in")
	return sess, nil
}

func (s *Store) parse(token string) (Session, error) {
	const op = "session: login"
	if token == "" {
		return Session{}, failure.Validation(op, "A token is required.")
	}
	claims := &Claims{}
	opts := []jwt.ParserOption{jwt.WithTimeFunc(s.clock)}
	var err error
	if len(s.secret) > 0 {
		opts = append(opts, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		_, err = jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
			return s.secret, nil
		}, opts...)
	} else {
		// Without a shared secret the client cannot verify signatures; the
		// remote API remains the authority.
		_, _, err = jwt.NewParser(opts...).ParseUnverified(token, claims)
		if err == nil && claims.ExpiresAt != nil && !s.clock().Before(claims.ExpiresAt.Time) {
			err = jwt.ErrTokenExpired
		}
	}
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Session{}, failure.Validation(op, "Your session has expired. Please log in again.")
		}
		return Session{}, &failure.Error{Kind: failure.KindValidation, Op: op, Message: "The token could not be verified.", Err: err}
	}
	email := strings.TrimSpace(claims.Email)
	if email == "" {
		email = strings.TrimSpace(claims.Subject)
	}
	if email == "" {
		return Session{}, failure.Validation(op, "The token does not name a user.")
	}
	role, err := access.ParseRole(claims.Role)
	if err != nil {
		return Session{}, failure.Validation(op, fmt.Sprintf("The token carries an unknown role %q.", claims.Role))
	}
	sess := Session{Email: email, Role: role, Token: token}
	if claims.ExpiresAt != nil {
		sess.ExpiresAt = claims.ExpiresAt.Time
	}
	return sess, nil
}

func (s *Store) persist(ctx context.Context, sess Session) {
	if s.port == nil {
		return
	}
	data, err := json.Marshal(sess)
	if err == nil {
		err = s.port.Write(ctx, StorageKey, data)
	}
	if err != nil {
		s.log.Error().Err(err).Msg("session persist failed")
	}
}

// Logout clears the session and its persisted copy.
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	prev := s.current
	s.current = nil
	s.mu.Unlock()
	if s.port != nil {
		if err := s.port.Clear(ctx, StorageKey); err != nil {
			s.log.Error().Err(err).Msg("session clear failed")
		}
	}
	if prev != nil {
		s.log.Info().Str("email", prev.Email).Msg("logged out")
	}
}

// Current returns the live session, destroying it first if it expired.
func (s *Store) Current() (Session, bool) {
	s.mu.RLock()
	cur := s.current
	s.mu.RUnlock()
	if cur == nil {
		return Session{}, false
	}
	if cur.expired(s.clock()) {
		s.expire(cur)
		return Session{}, false
	}
	return *cur, true
}

func (s *Store) expire(stale *Session) {
	s.mu.Lock()
	if s.current != stale {
		s.mu.Unlock()
		return
	}
	s.current = nil
	s.mu.Unlock()
	s.log.Info().Str("email", stale.Email).Msg("session expired")
	if s.port != nil {
		_ = s.port.Clear(context.Background(), StorageKey)
	}
}

// IsAuthenticated reports whether a live session exists.
func (s *Store) IsAuthenticated() bool {
	_, ok := s.Current()
	return ok
}

// IsLoading is true only while Restore runs.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// Role returns the current role or RoleNone.
func (s *Store) Role() access.Role {
	cur, ok := s.Current()
	if !ok {
		return access.RoleNone
	}
	return cur.Role
}

// HasRole reports whether the current role is in allowed. It is false when
// unauthenticated.
func (s *Store) HasRole(allowed ...access.Role) bool {
	return access.RoleSet(allowed).Contains(s.Role())
}

// Can reports whether the current user may use action.
func (s *Store) Can(action access.Action) bool {
	return access.Can(s.Role(), action)
}

// Token returns the bearer token for API calls, or "".
func (s *Store) Token() string {
	cur, ok := s.Current()
	if !ok {
		return ""
	}
	return cur.Token
}
