package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"emotlink/pkg/domain"
)

const migrateLockID int64 = 40172101

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		if err := tx.AutoMigrate(&UserModel{}, &DiaryEntryModel{}, &LinkModel{}); err != nil {
			return fmt.Errorf("auto migrate: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "password_hash", "birthday", "account_type", "email_verified"}),
	}).Create(&model).Error
}

// HasUserID checks if a user ID is taken.
func (s *GormStore) HasUserID(id string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// FindUser resolves either a user ID or an email address.
func (s *GormStore) FindUser(key string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("id = ? OR email = ?", key, key).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsersByIDs returns users matching the ID set.
func (s *GormStore) ListUsersByIDs(ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []UserModel
	if err := s.db.Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// UpdateUserName changes the display name.
func (s *GormStore) UpdateUserName(id, name string) error {
	return s.db.Model(&UserModel{}).Where("id = ?", id).Update("name", name).Error
}

// SaveDiaryEntry persists a new diary record. Entries are never updated.
func (s *GormStore) SaveDiaryEntry(e domain.DiaryEntry) error {
	model := diaryToModel(e)
	return s.db.Create(&model).Error
}

// ListDiaryEntries returns the user's entries in chronological order.
func (s *GormStore) ListDiaryEntries(authorID string) ([]domain.DiaryEntry, error) {
	var models []DiaryEntryModel
	if err := s.db.Where("author_id = ?", authorID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.DiaryEntry, 0, len(models))
	for _, m := range models {
		res = append(res, diaryFromModel(m))
	}
	return res, nil
}

// LastDiaryEntries returns up to n entries, newest first.
func (s *GormStore) LastDiaryEntries(authorID string, n int) ([]domain.DiaryEntry, error) {
	var models []DiaryEntryModel
	if err := s.db.Where("author_id = ?", authorID).Order("created_at DESC").Limit(n).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.DiaryEntry, 0, len(models))
	for _, m := range models {
		res = append(res, diaryFromModel(m))
	}
	return res, nil
}

// UpsertLink writes the link row for its (linker, emoter) pair, keeping
// the original created_at on conflict.
func (s *GormStore) UpsertLink(l domain.Link) error {
	model := linkToModel(l)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "linker_id"}, {Name: "emoter_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(&model).Error
}

// GetLink returns the link row for a pair.
func (s *GormStore) GetLink(linkerID, emoterID string) (domain.Link, bool, error) {
	var model LinkModel
	if err := s.db.Where("linker_id = ? AND emoter_id = ?", linkerID, emoterID).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Link{}, false, nil
		}
		return domain.Link{}, false, err
	}
	return linkFromModel(model), true, nil
}

// ListLinksByLinker returns all links created by a linker.
func (s *GormStore) ListLinksByLinker(linkerID string) ([]domain.Link, error) {
	var models []LinkModel
	if err := s.db.Where("linker_id = ?", linkerID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Link, 0, len(models))
	for _, m := range models {
		res = append(res, linkFromModel(m))
	}
	return res, nil
}

// ListLinksByEmoter returns links naming the emoter, optionally filtered
// by status (empty status returns all).
func (s *GormStore) ListLinksByEmoter(emoterID string, status domain.LinkStatus) ([]domain.Link, error) {
	tx := s.db.Where("emoter_id = ?", emoterID)
	if status != "" {
		tx = tx.Where("status = ?", string(status))
	}
	var models []LinkModel
	if err := tx.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Link, 0, len(models))
	for _, m := range models {
		res = append(res, linkFromModel(m))
	}
	return res, nil
}

// SetLinkStatus transitions an existing link row.
func (s *GormStore) SetLinkStatus(linkerID, emoterID string, status domain.LinkStatus) error {
	return s.db.Model(&LinkModel{}).
		Where("linker_id = ? AND emoter_id = ?", linkerID, emoterID).
		Updates(map[string]any{
			"status":     string(status),
			"updated_at": time.Now().UTC(),
		}).Error
}

// DeleteLink removes the row for a pair.
func (s *GormStore) DeleteLink(linkerID, emoterID string) error {
	return s.db.Where("linker_id = ? AND emoter_id = ?", linkerID, emoterID).Delete(&LinkModel{}).Error
}

// DeleteUserData erases a user and everything referencing them.
func (s *GormStore) DeleteUserData(userID string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("author_id = ?", userID).Delete(&DiaryEntryModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("linker_id = ? OR emoter_id = ?", userID, userID).Delete(&LinkModel{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).Delete(&UserModel{}).Error
	})
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:            u.ID,
		Name:          u.Name,
		Email:         u.Email,
		PasswordHash:  u.PasswordHash,
		Birthday:      datatypes.Date(u.Birthday),
		AccountType:   int(u.AccountType),
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:            m.ID,
		Name:          m.Name,
		Email:         m.Email,
		PasswordHash:  m.PasswordHash,
		Birthday:      time.Time(m.Birthday),
		AccountType:   domain.AccountType(m.AccountType),
		EmailVerified: m.EmailVerified,
		CreatedAt:     m.CreatedAt,
	}
}

func diaryToModel(e domain.DiaryEntry) DiaryEntryModel {
	return DiaryEntryModel{
		ID:           e.ID,
		Title:        e.Title,
		Content:      e.Content,
		Emotion:      e.Emotion,
		AuthorID:     e.AuthorID,
		CreatedAt:    e.CreatedAt,
		LastModified: e.LastModified,
		Depression:   e.Depression,
		Isolation:    e.Isolation,
		Frustration:  e.Frustration,
	}
}

func diaryFromModel(m DiaryEntryModel) domain.DiaryEntry {
	return domain.DiaryEntry{
		ID:           m.ID,
		Title:        m.Title,
		Content:      m.Content,
		Emotion:      m.Emotion,
		AuthorID:     m.AuthorID,
		CreatedAt:    m.CreatedAt,
		LastModified: m.LastModified,
		Depression:   m.Depression,
		Isolation:    m.Isolation,
		Frustration:  m.Frustration,
	}
}

func linkToModel(l domain.Link) LinkModel {
	return LinkModel{
		LinkerID:  l.LinkerID,
		EmoterID:  l.EmoterID,
		Status:    string(l.Status),
		CreatedAt: l.CreatedAt,
		UpdatedAt: l.UpdatedAt,
	}
}

func linkFromModel(m LinkModel) domain.Link {
	return domain.Link{
		LinkerID:  m.LinkerID,
		EmoterID:  m.EmoterID,
		Status:    domain.LinkStatus(m.Status),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
