package repository

import (
	"context"
	"errors"
	"time"

	"github.com/contactbook/backend/internal/domain"
	"gorm.io/gorm"
)

// ContactRepository is ownership-scoped: every query carries the owner id, so
// a contact can never leak across users no matter what a handler passes in.
type ContactRepository interface {
	CreateContact(ctx context.Context, contact *domain.Contact) (*domain.Contact, error)
	ListContacts(ctx context.Context, ownerID uint, limit, offset int) ([]domain.Contact, error)
	FindContactByID(ctx context.Context, ownerID, contactID uint) (*domain.Contact, error)
	SaveContact(ctx context.Context, contact *domain.Contact) error
	DeleteContact(ctx context.Context, ownerID, contactID uint) error
	SearchContacts(ctx context.Context, ownerID uint, query string) ([]domain.Contact, error)
	UpcomingBirthdays(ctx context.Context, ownerID uint, days int) ([]domain.Contact, error)
}

type contactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &contactRepository{db: db}
}

func (r *contactRepository) CreateContact(ctx context.Context, contact *domain.Contact) (*domain.Contact, error) {
	if contact == nil || contact.OwnerID == 0 {
		return nil, errors.New("contact must have an owner")
	}
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		return nil, storageErr("create contact", err)
	}
	return contact, nil
}

func (r *contactRepository) ListContacts(ctx context.Context, ownerID uint, limit, offset int) ([]domain.Contact, error) {
	if limit <= 0 {
		limit = 10
	}

	var contacts []domain.Contact
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Limit(limit).
		Offset(offset).
		Order("id").
		Find(&contacts).Error
	if err != nil {
		return nil, storageErr("list contacts", err)
	}
	return contacts, nil
}

func (r *contactRepository) FindContactByID(ctx context.Context, ownerID, contactID uint) (*domain.Contact, error) {
	contact := &domain.Contact{}

	err := r.db.WithContext(ctx).
		Where("owner_id = ? AND id = ?", ownerID, contactID).
		First(contact).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("find contact", err)
	}
	return contact, nil
}

func (r *contactRepository) SaveContact(ctx context.Context, contact *domain.Contact) error {
	if contact == nil {
		return errors.New("nil contact")
	}
	if err := r.db.WithContext(ctx).Save(contact).Error; err != nil {
		return storageErr("save contact", err)
	}
	return nil
}

func (r *contactRepository) DeleteContact(ctx context.Context, ownerID, contactID uint) error {
	res := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Delete(&domain.Contact{}, contactID)
	if res.Error != nil {
		return storageErr("delete contact", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *contactRepository) SearchContacts(ctx context.Context, ownerID uint, query string) ([]domain.Contact, error) {
	var contacts []domain.Contact
	pattern := "%" + query + "%"

	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Where("first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ?", pattern, pattern, pattern).
		Order("id").
		Find(&contacts).Error
	if err != nil {
		return nil, storageErr("search contacts", err)
	}
	return contacts, nil
}

func (r *contactRepository) UpcomingBirthdays(ctx context.Context, ownerID uint, days int) ([]domain.Contact, error) {
	from, to, wraps := DayOfYearWindow(time.Now(), days)

	q := r.db.WithContext(ctx).Where("owner_id = ?", ownerID)
	if wraps {
		q = q.Where("extract(doy from birthday) >= ? OR extract(doy from birthday) <= ?", from, to)
	} else {
		q = q.Where("extract(doy from birthday) BETWEEN ? AND ?", from, to)
	}

	var contacts []domain.Contact
	if err := q.Order("id").Find(&contacts).Error; err != nil {
		return nil, storageErr("upcoming birthdays", err)
	}
	return contacts, nil
}

// DayOfYearWindow returns the inclusive day-of-year range covering today
// through today+days. wraps is true when the range crosses the year boundary,
// in which case the range is [from..end-of-year] plus [start-of-year..to].
func DayOfYearWindow(today time.Time, days int) (from, to int, wraps bool) {
	if days < 0 {
		days = 0
	}
	from = today.YearDay()
	to = today.AddDate(0, 0, days).YearDay()
	return from, to, to < from
}
