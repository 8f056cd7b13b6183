package repositories

import (
	"errors"
	"fmt"

	"phonebook/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMContactRepository is a GORM implementation of ContactRepository.
type GORMContactRepository struct {
	db *gorm.DB
}

// NewGORMContactRepository creates a new instance of GORMContactRepository.
func NewGORMContactRepository(db *gorm.DB) *GORMContactRepository {
	return &GORMContactRepository{
		db: db,
	}
}

// GetAll retrieves all contacts in insertion order.
func (r *GORMContactRepository) GetAll() ([]models.Contact, error) {
	var contacts []models.Contact
	if err := r.db.Order("created_at").Find(&contacts).Error; err != nil {
		return nil, fmt.Errorf("failed to get all contacts: %w", err)
	}
	return contacts, nil
}

// GetByID retrieves a single contact by its ID.
func (r *GORMContactRepository) GetByID(id string) (*models.Contact, error) {
	return getContact(r.db, id)
}

// Create stores a new contact.
func (r *GORMContactRepository) Create(contact *models.Contact) error {
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	if contact.Fields == nil {
		contact.Fields = map[string]interface{}{}
	}
	if err := r.db.Create(contact).Error; err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// Update merges fields into the contact's attributes inside a transaction.
func (r *GORMContactRepository) Update(id string, fields map[string]interface{}) (*models.Contact, error) {
	var updated *models.Contact
	err := r.db.Transaction(func(tx *gorm.DB) error {
		contact, err := getContact(tx, id)
		if err != nil {
			return err
		}
		if contact.Fields == nil {
			contact.Fields = map[string]interface{}{}
		}
		for k, v := range fields {
			contact.Fields[k] = v
		}
		if err := tx.Save(contact).Error; err != nil {
			return fmt.Errorf("failed to update contact %s: %w", id, err)
		}
		updated = contact
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete deletes a contact by its ID.
func (r *GORMContactRepository) Delete(id string) error {
	res := r.db.Delete(&models.Contact{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete contact: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("contact with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

func getContact(db *gorm.DB, id string) (*models.Contact, error) {
	var contact models.Contact
	if err := db.First(&contact, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("contact with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contact by ID %s: %w", id, err)
	}
	return &contact, nil
}
