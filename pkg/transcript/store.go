package transcript

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"emotlink/internal/util"
	"emotlink/pkg/domain"
)

const (
	messagesKeyPrefix     = "chat:messages:"
	participantsKeyPrefix = "chat:participants:"
)

// DefaultTTL is how long an idle room survives. Refreshed on every append.
const DefaultTTL = 2 * time.Hour

// Store keeps ordered chat turns and the participant set per room in
// Redis. Transcripts live in a sorted set scored by append timestamp;
// participants in a plain set. Both keys expire together.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore builds a Redis-backed transcript store.
func NewStore(addr, password string, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
		}),
		ttl: ttl,
	}
}

// CreateRoom allocates a fresh room identifier. The room materializes in
// Redis on the first append.
func (s *Store) CreateRoom() string {
	return util.NewID()
}

// AppendMessage appends one turn with a fresh timestamp and message ID
// and resets the room's expiry countdown. Appending to an expired room
// recreates nothing useful for the caller; existence is checked upstream.
func (s *Store) AppendMessage(ctx context.Context, roomID, userID, text, role string) error {
	msg := domain.ChatMessage{
		ID:     util.NewID(),
		RoomID: roomID,
		Time:   float64(time.Now().UnixNano()) / 1e9,
		Role:   role,
		UserID: userID,
		Text:   text,
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	key := messagesKeyPrefix + roomID
	if err := s.client.ZAdd(ctx, key, redis.Z{Score: msg.Time, Member: payload}).Err(); err != nil {
		return err
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, participantsKeyPrefix+roomID, s.ttl).Err()
}

// ListMessages returns up to limit most recent messages in chronological
// order. limit <= 0 returns the whole transcript. A missing or expired
// room yields an empty slice, not an error.
func (s *Store) ListMessages(ctx context.Context, roomID string, limit int) ([]domain.ChatMessage, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}
	raw, err := s.client.ZRevRange(ctx, messagesKeyPrefix+roomID, 0, stop).Result()
	if err != nil {
		return nil, err
	}
	messages := make([]domain.ChatMessage, 0, len(raw))
	for _, item := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			continue
		}
		msg.RoomID = roomID
		messages = append(messages, msg)
	}
	// ZREVRANGE hands back newest-first; re-reverse to chronological.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// RoomExists reports whether the room's transcript key is live.
func (s *Store) RoomExists(ctx context.Context, roomID string) (bool, error) {
	n, err := s.client.Exists(ctx, messagesKeyPrefix+roomID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// AddParticipant registers a user in the room's participant set.
func (s *Store) AddParticipant(ctx context.Context, roomID, userID string) error {
	key := participantsKeyPrefix + roomID
	if err := s.client.SAdd(ctx, key, userID).Err(); err != nil {
		return err
	}
	return s.client.Expire(ctx, key, s.ttl).Err()
}

// IsParticipant reports room membership. Reads do not refresh the TTL.
func (s *Store) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	return s.client.SIsMember(ctx, participantsKeyPrefix+roomID, userID).Result()
}

// DeleteRoom removes the transcript and the participant set together.
func (s *Store) DeleteRoom(ctx context.Context, roomID string) error {
	return s.client.Del(ctx, messagesKeyPrefix+roomID, participantsKeyPrefix+roomID).Err()
}
