package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/contactbook/backend/internal/domain"
	"github.com/contactbook/backend/internal/dto"
	"github.com/contactbook/backend/internal/repository"
)

// ContactService scopes every operation to the authenticated owner; the owner
// id always comes from the verified access token, never from the request body.
type ContactService interface {
	Create(ctx context.Context, ownerID uint, input dto.ContactCreate) (*domain.Contact, error)
	List(ctx context.Context, ownerID uint, limit, offset int) ([]domain.Contact, error)
	Get(ctx context.Context, ownerID, contactID uint) (*domain.Contact, error)
	Update(ctx context.Context, ownerID, contactID uint, input dto.ContactUpdate) (*domain.Contact, error)
	Delete(ctx context.Context, ownerID, contactID uint) error
	Search(ctx context.Context, ownerID uint, query string) ([]domain.Contact, error)
	UpcomingBirthdays(ctx context.Context, ownerID uint, days int) ([]domain.Contact, error)
}

type contactService struct {
	repo repository.ContactRepository
}

func NewContactService(repo repository.ContactRepository) ContactService {
	return &contactService{repo: repo}
}

func (s *contactService) Create(ctx context.Context, ownerID uint, input dto.ContactCreate) (*domain.Contact, error) {
	firstName := strings.TrimSpace(input.FirstName)
	if firstName == "" {
		return nil, fmt.Errorf("%w: first_name is required", domain.ErrInvalidInput)
	}

	return s.repo.CreateContact(ctx, &domain.Contact{
		OwnerID:   ownerID,
		FirstName: firstName,
		LastName:  strings.TrimSpace(input.LastName),
		Email:     strings.TrimSpace(input.Email),
		Phone:     strings.TrimSpace(input.Phone),
		Birthday:  input.Birthday,
	})
}

func (s *contactService) List(ctx context.Context, ownerID uint, limit, offset int) ([]domain.Contact, error) {
	return s.repo.ListContacts(ctx, ownerID, limit, offset)
}

func (s *contactService) Get(ctx context.Context, ownerID, contactID uint) (*domain.Contact, error) {
	contact, err := s.repo.FindContactByID(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}
	if contact == nil {
		return nil, domain.ErrNotFound
	}
	return contact, nil
}

func (s *contactService) Update(ctx context.Context, ownerID, contactID uint, input dto.ContactUpdate) (*domain.Contact, error) {
	contact, err := s.Get(ctx, ownerID, contactID)
	if err != nil {
		return nil, err
	}

	if input.FirstName != nil {
		fn := strings.TrimSpace(*input.FirstName)
		if fn == "" {
			return nil, fmt.Errorf("%w: first_name cannot be empty", domain.ErrInvalidInput)
		}
		contact.FirstName = fn
	}
	if input.LastName != nil {
		contact.LastName = strings.TrimSpace(*input.LastName)
	}
	if input.Email != nil {
		contact.Email = strings.TrimSpace(*input.Email)
	}
	if input.Phone != nil {
		contact.Phone = strings.TrimSpace(*input.Phone)
	}
	if input.Birthday != nil {
		contact.Birthday = input.Birthday
	}

	if err := s.repo.SaveContact(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *contactService) Delete(ctx context.Context, ownerID, contactID uint) error {
	return s.repo.DeleteContact(ctx, ownerID, contactID)
}

func (s *contactService) Search(ctx context.Context, ownerID uint, query string) ([]domain.Contact, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.ListContacts(ctx, ownerID, 10, 0)
	}
	return s.repo.SearchContacts(ctx, ownerID, query)
}

func (s *contactService) UpcomingBirthdays(ctx context.Context, ownerID uint, days int) ([]domain.Contact, error) {
	if days <= 0 {
		days = 7
	}
	return s.repo.UpcomingBirthdays(ctx, ownerID, days)
}
