package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/contactbook/backend/internal/domain"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// UserRepository is the credential store. Uniqueness of the (normalized)
// email is enforced by the database index, so concurrent creates for the same
// address cannot both succeed.
type UserRepository interface {
	CreateUser(ctx context.Context, user *domain.User) (*domain.User, error)
	FindUserByEmail(ctx context.Context, email string) (*domain.User, error)
	FindUserByID(ctx context.Context, userID uint) (*domain.User, error)
	SaveUser(ctx context.Context, user *domain.User) error

	// RotateRefreshFingerprint swaps the stored fingerprint only if it still
	// equals old. Returns domain.ErrRevokedToken when the guard fails, which
	// keeps two concurrent refresh calls from both succeeding.
	RotateRefreshFingerprint(ctx context.Context, userID uint, old, next string) error
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

const uniqueViolation = "23505"

func (r *userRepository) CreateUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, errors.New("nil user")
	}

	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.ErrDuplicateEmail
		}
		return nil, storageErr("create user", err)
	}

	return user, nil
}

func (r *userRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user := &domain.User{}

	err := r.db.WithContext(ctx).First(user, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find user by email", err)
	}

	return user, nil
}

func (r *userRepository) FindUserByID(ctx context.Context, userID uint) (*domain.User, error) {
	user := &domain.User{}

	err := r.db.WithContext(ctx).First(user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find user by id", err)
	}

	return user, nil
}

func (r *userRepository) SaveUser(ctx context.Context, user *domain.User) error {
	if user == nil {
		return errors.New("nil user")
	}

	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return storageErr("save user", err)
	}
	return nil
}

func (r *userRepository) RotateRefreshFingerprint(ctx context.Context, userID uint, old, next string) error {
	res := r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ? AND refresh_token_fingerprint = ?", userID, old).
		Update("refresh_token_fingerprint", next)
	if res.Error != nil {
		return storageErr("rotate refresh fingerprint", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrRevokedToken
	}
	return nil
}

// storageErr logs the driver error and surfaces the retryable sentinel; the
// underlying cause never reaches clients.
func storageErr(op string, err error) error {
	log.Printf("%s error: %v", op, err)
	return fmt.Errorf("%s: %w", op, domain.ErrStorageUnavailable)
}
