// Package postgres provides a PostgreSQL implementation of storage.Store on gorm.
package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/mmynk/expensetracker/internal/models"
	"github.com/mmynk/expensetracker/internal/storage"
)

var _ storage.Store = (*PostgresStore)(nil)

// PostgresStore implements storage.Store using PostgreSQL.
type PostgresStore struct {
	db *gorm.DB
}

type userRow struct {
	ID           string    `gorm:"primaryKey;type:text"`
	Username     string    `gorm:"uniqueIndex;not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt    time.Time `gorm:"autoUpdateTime:false;not null"`
}

func (userRow) TableName() string { return "users" }

type expenseRow struct {
	ID          string    `gorm:"primaryKey;type:text"`
	Seq         int64     `gorm:"autoIncrement;not null"`
	UserID      string    `gorm:"type:text;not null;index:idx_expenses_user_date,priority:1"`
	User        userRow   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	AmountCents int64     `gorm:"not null;check:amount_cents > 0"`
	Category    string    `gorm:"not null;index"`
	Date        time.Time `gorm:"type:date;not null;index:idx_expenses_user_date,priority:2"`
	Description string    `gorm:"not null;default:''"`
	CreatedAt   time.Time `gorm:"autoCreateTime:false;not null"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime:false;not null"`
}

func (expenseRow) TableName() string { return "expenses" }

// New connects to dsn and migrates the schema.
func New(dsn string) (*PostgresStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect postgres database: %w", err)
	}

	if err := db.AutoMigrate(&userRow{}, &expenseRow{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Close closes the underlying connection pool.
func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isUnique(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) || storage.IsUniqueViolation(err)
}

func rowFromUser(u *models.User) *userRow {
	return &userRow{
		ID:           u.ID,
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt.UTC().Truncate(time.Microsecond),
		UpdatedAt:    u.UpdatedAt.UTC().Truncate(time.Microsecond),
	}
}

func (r *userRow) toModel() *models.User {
	return &models.User{
		ID:           r.ID,
		Username:     r.Username,
		Email:        r.Email,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func rowFromExpense(e *models.Expense) *expenseRow {
	return &expenseRow{
		ID:          e.ID,
		UserID:      e.UserID,
		AmountCents: models.AmountToCents(e.Amount),
		Category:    string(e.Category),
		Date:        models.TruncateDate(e.Date),
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}

func (r *expenseRow) toModel() *models.Expense {
	return &models.Expense{
		ID:          r.ID,
		UserID:      r.UserID,
		Amount:      models.AmountFromCents(r.AmountCents),
		Category:    models.Category(r.Category),
		Date:        models.TruncateDate(r.Date),
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}
