package store

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/qrevent/qrevent/internal/models"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicate      = errors.New("duplicate record")
	ErrTokenCollision = errors.New("ticket token already exists")
	ErrInUse          = errors.New("record is still referenced")
)

// Store is the gorm-backed persistence layer.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) DB() *gorm.DB {
	return s.db
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the database is reachable.
func (s *Store) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Migrate creates or updates the schema and seeds roles.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.Event{}, "Participants", &models.EventParticipant{}); err != nil {
		return fmt.Errorf("setup event roster: %w", err)
	}
	if err := db.SetupJoinTable(&models.User{}, "ParticipatedEvents", &models.EventParticipant{}); err != nil {
		return fmt.Errorf("setup user roster: %w", err)
	}

	err := db.AutoMigrate(&models.Role{}, &models.User{}, &models.Category{}, &models.Event{}, &models.EventParticipant{}, &models.Ticket{})
	if err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	return seedRoles(db)
}

func seedRoles(db *gorm.DB) error {
	for _, name := range models.Roles {
		role := models.Role{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return fmt.Errorf("seed role %s: %w", name, err)
		}
	}
	return nil
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case isDuplicate(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	default:
		return err
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") || strings.Contains(msg, "unique constraint")
}
