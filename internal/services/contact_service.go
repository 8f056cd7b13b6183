package services

import (
	"errors"

	"phonebook/internal/models"
	"phonebook/internal/repositories"

	"go.uber.org/zap"
)

// ContactService exposes CRUD over contacts.
type ContactService struct {
	repo   repositories.ContactRepository
	logger *zap.Logger
}

// NewContactService creates a new ContactService.
func NewContactService(repo repositories.ContactRepository, logger *zap.Logger) *ContactService {
	return &ContactService{
		repo:   repo,
		logger: logger,
	}
}

// ListContacts retrieves all contacts.
func (s *ContactService) ListContacts() ([]models.Contact, error) {
	return s.repo.GetAll()
}

// GetContactByID retrieves a single contact by its ID.
func (s *ContactService) GetContactByID(id string) (*models.Contact, error) {
	contact, err := s.repo.GetByID(id)
	if err != nil {
		return nil, notFound(err)
	}
	return contact, nil
}

// AddContact stores a new contact built from fields.
func (s *ContactService) AddContact(fields map[string]interface{}) (*models.Contact, error) {
	contact := &models.Contact{Fields: models.ContactFields(fields)}
	if err := s.repo.Create(contact); err != nil {
		s.logger.Error("failed to save contact", zap.Error(err))
		return nil, ErrContactNotSaved
	}
	return contact, nil
}

// RemoveContact deletes a contact by its ID.
func (s *ContactService) RemoveContact(id string) error {
	return notFound(s.repo.Delete(id))
}

// UpdateContact merges fields into the contact and returns the result.
func (s *ContactService) UpdateContact(id string, fields map[string]interface{}) (*models.Contact, error) {
	contact, err := s.repo.Update(id, models.ContactFields(fields))
	if err != nil {
		return nil, notFound(err)
	}
	return contact, nil
}

// UpdateFavorite is UpdateContact under the name the favorite route uses.
func (s *ContactService) UpdateFavorite(id string, fields map[string]interface{}) (*models.Contact, error) {
	return s.UpdateContact(id, fields)
}

func notFound(err error) error {
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrContactNotFound
	}
	return err
}
