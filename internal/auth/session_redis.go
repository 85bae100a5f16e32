package auth

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/barsan/reservation-service/internal/domain"
)

const sessionKeyPrefix = "session:"

// redisSessionStore keeps one hash per session with a TTL matching its
// expiry, so Redis reclaims abandoned sessions on its own.
type redisSessionStore struct {
	client *redis.Client
}

// NewRedisSessionStore returns a Redis-backed SessionStore.
func NewRedisSessionStore(client *redis.Client) SessionStore {
	return &redisSessionStore{client: client}
}

func sessionKey(token string) string {
	return sessionKeyPrefix + token
}

func (s *redisSessionStore) Save(ctx context.Context, session *domain.Session) error {
	key := sessionKey(session.Token)
	fields := map[string]any{
		"subject_id":   session.SubjectID,
		"subject":      string(session.Subject),
		"issued_at":    session.IssuedAt.Unix(),
		"expires_at":   session.ExpiresAt.Unix(),
		"last_seen_at": session.LastSeenAt.Unix(),
		"revoked":      strconv.FormatBool(session.Revoked),
	}
	if err := s.client.HSet(ctx, key, fields).Err(); err != nil {
		return err
	}
	return s.client.ExpireAt(ctx, key, session.ExpiresAt).Err()
}

func (s *redisSessionStore) Get(ctx context.Context, token string) (*domain.Session, error) {
	values, err := s.client.HGetAll(ctx, sessionKey(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrSessionNotFound
	}

	session := &domain.Session{
		Token:     token,
		SubjectID: values["subject_id"],
		Subject:   domain.SubjectType(values["subject"]),
	}
	session.IssuedAt = unixField(values, "issued_at")
	session.ExpiresAt = unixField(values, "expires_at")
	session.LastSeenAt = unixField(values, "last_seen_at")
	session.Revoked, _ = strconv.ParseBool(values["revoked"])
	return session, nil
}

func (s *redisSessionStore) Revoke(ctx context.Context, token string) error {
	key := sessionKey(token)
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return err
	}
	if exists == 0 {
		return ErrSessionNotFound
	}
	return s.client.HSet(ctx, key, "revoked", "true").Err()
}

func (s *redisSessionStore) Touch(ctx context.Context, token string, at time.Time) error {
	return s.client.HSet(ctx, sessionKey(token), "last_seen_at", at.Unix()).Err()
}

func unixField(values map[string]string, field string) time.Time {
	sec, err := strconv.ParseInt(values[field], 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
