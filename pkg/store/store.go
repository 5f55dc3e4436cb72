package store

import "emotlink/pkg/domain"

// Store defines persistence operations for users, diary entries, and
// linker/emoter links.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserID(id string) (bool, error)
	HasUserEmail(email string) (bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	// FindUser resolves either a user ID or an email address.
	FindUser(key string) (domain.User, bool, error)
	ListUsersByIDs(ids []string) ([]domain.User, error)
	UpdateUserName(id, name string) error

	// diary entries
	SaveDiaryEntry(domain.DiaryEntry) error
	ListDiaryEntries(authorID string) ([]domain.DiaryEntry, error)
	// LastDiaryEntries returns up to n entries, newest first.
	LastDiaryEntries(authorID string, n int) ([]domain.DiaryEntry, error)

	// links
	UpsertLink(domain.Link) error
	GetLink(linkerID, emoterID string) (domain.Link, bool, error)
	ListLinksByLinker(linkerID string) ([]domain.Link, error)
	ListLinksByEmoter(emoterID string, status domain.LinkStatus) ([]domain.Link, error)
	SetLinkStatus(linkerID, emoterID string, status domain.LinkStatus) error
	DeleteLink(linkerID, emoterID string) error

	// DeleteUserData erases the user row, the user's diary entries, and
	// every link naming the user on either side.
	DeleteUserData(userID string) error
}
