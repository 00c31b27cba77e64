// Package emulator is a local stand-in for the hosted auth provider and
// document database. It keeps users, tasks and the signed-in session in a
// SQLite file through gorm and reports failures with the same codes the
// hosted services use, so the rest of the app cannot tell them apart.
package emulator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tgienger/lumina/internal/logging"
	"github.com/tgienger/lumina/internal/models"
	"github.com/tgienger/lumina/internal/remote"
)

type userRecord struct {
	UID           string `gorm:"primaryKey"`
	Email         string `gorm:"uniqueIndex;not null"`
	DisplayName   string
	PasswordHash  string `gorm:"not null"`
	EmailVerified bool
	CreatedAt     time.Time
}

func (userRecord) TableName() string { return "users" }

type taskRecord struct {
	ID          string `gorm:"primaryKey"`
	UserID      string `gorm:"index;not null"`
	Title       string `gorm:"not null"`
	Description string
	Status      string `gorm:"not null"`
	WorkspaceID string
	CategoryID  string
	CreatedAt   time.Time `gorm:"index"`
}

func (taskRecord) TableName() string { return "tasks" }

// sessionRecord holds the single persisted session, row ID 1
type sessionRecord struct {
	ID        uint `gorm:"primaryKey"`
	UID       string
	UpdatedAt time.Time
}

func (sessionRecord) TableName() string { return "emulator_sessions" }

// Emulator implements auth.Provider and tasks.Backend.
type Emulator struct {
	db  *gorm.DB
	log *zap.Logger
	now func() time.Time
	hub *hub

	mu      sync.Mutex
	session *userRecord
}

// Open opens or creates the emulator database at path
func Open(path string, log *zap.Logger) (*Emulator, error) {
	log = logging.OrNop(log).Named("emulator")

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create emulator dir %q: %w", dir, err)
		}
	}

	gormLog := logger.New(zap.NewStdLog(log), logger.Config{
		SlowThreshold:             time.Second,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open emulator db: %w", err)
	}
	if err := db.AutoMigrate(&userRecord{}, &taskRecord{}, &sessionRecord{}); err != nil {
		return nil, fmt.Errorf("migrate emulator db: %w", err)
	}

	return &Emulator{
		db:  db,
		log: log,
		now: time.Now,
		hub: newHub(),
	}, nil
}

// Close closes the underlying database
func (e *Emulator) Close() error {
	sqlDB, err := e.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (e *Emulator) currentUID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return ""
	}
	return e.session.UID
}

func (e *Emulator) setSession(ctx context.Context, u *userRecord) error {
	e.mu.Lock()
	e.session = u
	e.mu.Unlock()

	if u == nil {
		return e.db.WithContext(ctx).Where("id = ?", 1).Delete(&sessionRecord{}).Error
	}
	return e.db.WithContext(ctx).Save(&sessionRecord{ID: 1, UID: u.UID}).Error
}

func toUser(u *userRecord) *models.User {
	return &models.User{
		UID:           u.UID,
		DisplayName:   u.DisplayName,
		Email:         u.Email,
		EmailVerified: u.EmailVerified,
	}
}

func toTask(r taskRecord) models.Task {
	return models.Task{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Status:      models.TaskStatus(r.Status),
		WorkspaceID: r.WorkspaceID,
		CategoryID:  r.CategoryID,
		CreatedAt:   r.CreatedAt,
	}
}

func errPermission() error {
	return remote.Errorf(remote.CodePermissionDenied, "Missing or insufficient permissions.")
}

func isNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
