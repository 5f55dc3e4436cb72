package domain

import "time"

// AccountType discriminates journaling users from supporters.
type AccountType int

const (
	// AccountEmoter journals through the AI counselor chat.
	AccountEmoter AccountType = 0
	// AccountLinker may view a consenting emoter's emotional trend.
	AccountLinker AccountType = 1
)

type LinkStatus string

const (
	LinkPending  LinkStatus = "pending"
	LinkAccepted LinkStatus = "accepted"
	LinkDeclined LinkStatus = "declined"
)

type User struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	Email         string      `json:"email"`
	PasswordHash  string      `json:"-"`
	Birthday      time.Time   `json:"birthday"`
	AccountType   AccountType `json:"accountType"`
	EmailVerified bool        `json:"emailVerified"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// IsLinker reports whether the user is a supporter account.
func (u User) IsLinker() bool {
	return u.AccountType == AccountLinker
}

// DiaryEntry is a durable journal record with three derived affect scores.
// Scores are nominally 0-100 but not validated at write time, and are
// never recomputed once written.
type DiaryEntry struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Emotion      string    `json:"emotion"`
	AuthorID     string    `json:"authorId"`
	CreatedAt    time.Time `json:"createdAt"`
	LastModified time.Time `json:"lastModified"`
	Depression   int       `json:"depression"`
	Isolation    int       `json:"isolation"`
	Frustration  int       `json:"frustration"`
}

// Link is a consent-gated relationship between a linker and an emoter.
// At most one row exists per (linker, emoter) pair.
type Link struct {
	LinkerID  string     `json:"linkerId"`
	EmoterID  string     `json:"emoterId"`
	Status    LinkStatus `json:"status"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ChatMessage is one turn in an ephemeral counseling conversation.
// Time doubles as ordering key and uniqueness disambiguator in the
// transcript store.
type ChatMessage struct {
	ID     string  `json:"message_id"`
	RoomID string  `json:"-"`
	Time   float64 `json:"time"`
	Role   string  `json:"role"`
	UserID string  `json:"user_id"`
	Text   string  `json:"message"`
}

// EmotionStats aggregates a user's diary records.
type EmotionStats struct {
	EmotionCounts  map[string]int `json:"emotion_counts"`
	TotalEntries   int            `json:"total_entries"`
	AverageScore   float64        `json:"average_score"`
	TotalScore     int            `json:"total_score"`
	AvgDepression  float64        `json:"avg_depression"`
	AvgIsolation   float64        `json:"avg_isolation"`
	AvgFrustration float64        `json:"avg_frustration"`
}

// HealthIndicator classifies the change in mean affect score between a
// user's two most recent diary entries.
type HealthIndicator struct {
	Color string  `json:"color"`
	Delta float64 `json:"delta"`
}
