package store

import (
	"sort"
	"sync"
	"time"

	"emotlink/pkg/domain"
)

type linkKey struct {
	linkerID string
	emoterID string
}

// MemoryStore keeps everything in-process. Used by tests.
type MemoryStore struct {
	mu      sync.RWMutex
	users   map[string]domain.User // key: user ID
	email   map[string]string      // email -> user ID
	diaries map[string][]domain.DiaryEntry
	links   map[linkKey]domain.Link
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:   make(map[string]domain.User),
		email:   make(map[string]string),
		diaries: make(map[string][]domain.DiaryEntry),
		links:   make(map[linkKey]domain.Link),
	}
}

func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if old, ok := m.users[u.ID]; ok {
		delete(m.email, old.Email)
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) HasUserID(id string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.users[id]
	return ok, nil
}

func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) FindUser(key string) (domain.User, bool, error) {
	if u, ok, err := m.GetUserByID(key); err != nil || ok {
		return u, ok, err
	}
	return m.GetUserByEmail(key)
}

func (m *MemoryStore) ListUsersByIDs(ids []string) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (m *MemoryStore) UpdateUserName(id, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil
	}
	u.Name = name
	m.users[id] = u
	return nil
}

func (m *MemoryStore) SaveDiaryEntry(e domain.DiaryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.diaries[e.AuthorID] = append(m.diaries[e.AuthorID], e)
	return nil
}

func (m *MemoryStore) ListDiaryEntries(authorID string) ([]domain.DiaryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := append([]domain.DiaryEntry(nil), m.diaries[authorID]...)
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.Before(entries[j].CreatedAt)
	})
	return entries, nil
}

func (m *MemoryStore) LastDiaryEntries(authorID string, n int) ([]domain.DiaryEntry, error) {
	entries, err := m.ListDiaryEntries(authorID)
	if err != nil {
		return nil, err
	}
	// newest first
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	if n > 0 && len(entries) > n {
		entries = entries[:n]
	}
	return entries, nil
}

func (m *MemoryStore) UpsertLink(l domain.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := linkKey{l.LinkerID, l.EmoterID}
	if existing, ok := m.links[key]; ok {
		l.CreatedAt = existing.CreatedAt
	}
	m.links[key] = l
	return nil
}

func (m *MemoryStore) GetLink(linkerID, emoterID string) (domain.Link, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.links[linkKey{linkerID, emoterID}]
	return l, ok, nil
}

func (m *MemoryStore) ListLinksByLinker(linkerID string) ([]domain.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Link
	for key, l := range m.links {
		if key.linkerID == linkerID {
			res = append(res, l)
		}
	}
	sortLinks(res)
	return res, nil
}

func (m *MemoryStore) ListLinksByEmoter(emoterID string, status domain.LinkStatus) ([]domain.Link, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var res []domain.Link
	for key, l := range m.links {
		if key.emoterID != emoterID {
			continue
		}
		if status != "" && l.Status != status {
			continue
		}
		res = append(res, l)
	}
	sortLinks(res)
	return res, nil
}

func (m *MemoryStore) SetLinkStatus(linkerID, emoterID string, status domain.LinkStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := linkKey{linkerID, emoterID}
	l, ok := m.links[key]
	if !ok {
		return nil
	}
	l.Status = status
	l.UpdatedAt = time.Now().UTC()
	m.links[key] = l
	return nil
}

func (m *MemoryStore) DeleteLink(linkerID, emoterID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.links, linkKey{linkerID, emoterID})
	return nil
}

func (m *MemoryStore) DeleteUserData(userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[userID]; ok {
		delete(m.email, u.Email)
		delete(m.users, userID)
	}
	delete(m.diaries, userID)
	for key := range m.links {
		if key.linkerID == userID || key.emoterID == userID {
			delete(m.links, key)
		}
	}
	return nil
}

// LinkCount reports the number of link rows. Test helper.
func (m *MemoryStore) LinkCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.links)
}

func sortLinks(links []domain.Link) {
	sort.SliceStable(links, func(i, j int) bool {
		return links[i].CreatedAt.Before(links[j].CreatedAt)
	})
}
