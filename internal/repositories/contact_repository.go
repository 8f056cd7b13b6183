package repositories

import "phonebook/internal/models"

// ContactRepository defines the interface for contact data access.
type ContactRepository interface {
	GetAll() ([]models.Contact, error)
	GetByID(id string) (*models.Contact, error)
	Create(contact *models.Contact) error
	// Update merges fields into the stored attributes and returns the result.
	Update(id string, fields map[string]interface{}) (*models.Contact, error)
	Delete(id string) error
}
