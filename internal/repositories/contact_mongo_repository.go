package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"phonebook/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// contactDocument is the stored shape of a contact; attributes live in a
// sub-document so they never collide with the bookkeeping keys.
type contactDocument struct {
	ID        string                 `bson:"_id"`
	Fields    map[string]interface{} `bson:"fields"`
	CreatedAt time.Time              `bson:"createdAt"`
	UpdatedAt time.Time              `bson:"updatedAt"`
}

func (d contactDocument) model() models.Contact {
	return models.Contact{ID: d.ID, Fields: d.Fields, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
}

// MongoContactRepository stores contacts in a MongoDB collection.
type MongoContactRepository struct {
	coll *mongo.Collection
}

// NewMongoContactRepository creates a new instance of MongoContactRepository.
func NewMongoContactRepository(db *mongo.Database) *MongoContactRepository {
	return &MongoContactRepository{
		coll: db.Collection("contacts"),
	}
}

// GetAll retrieves all contacts in insertion order.
func (r *MongoContactRepository) GetAll() ([]models.Contact, error) {
	ctx := context.Background()
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to get all contacts: %w", err)
	}
	var docs []contactDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}
	contacts := make([]models.Contact, 0, len(docs))
	for _, d := range docs {
		contacts = append(contacts, d.model())
	}
	return contacts, nil
}

// GetByID retrieves a single contact by its ID.
func (r *MongoContactRepository) GetByID(id string) (*models.Contact, error) {
	var doc contactDocument
	if err := r.coll.FindOne(context.Background(), bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("contact with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get contact by ID %s: %w", id, err)
	}
	c := doc.model()
	return &c, nil
}

// Create inserts a new contact document.
func (r *MongoContactRepository) Create(contact *models.Contact) error {
	if err := checkMongoKeys(contact.Fields); err != nil {
		return err
	}
	if contact.ID == "" {
		contact.ID = uuid.New().String()
	}
	if contact.Fields == nil {
		contact.Fields = map[string]interface{}{}
	}
	now := time.Now().UTC()
	contact.CreatedAt = now
	contact.UpdatedAt = now
	doc := contactDocument{ID: contact.ID, Fields: contact.Fields, CreatedAt: now, UpdatedAt: now}
	if _, err := r.coll.InsertOne(context.Background(), doc); err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// Update sets each of fields on the stored attributes and returns the new document.
func (r *MongoContactRepository) Update(id string, fields map[string]interface{}) (*models.Contact, error) {
	if err := checkMongoKeys(fields); err != nil {
		return nil, err
	}
	set := bson.M{"updatedAt": time.Now().UTC()}
	for k, v := range fields {
		set["fields."+k] = v
	}
	var doc contactDocument
	err := r.coll.FindOneAndUpdate(
		context.Background(),
		bson.M{"_id": id},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("contact with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update contact %s: %w", id, err)
	}
	c := doc.model()
	return &c, nil
}

// Delete removes a contact by its ID.
func (r *MongoContactRepository) Delete(id string) error {
	res, err := r.coll.DeleteOne(context.Background(), bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("contact with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// checkMongoKeys rejects attribute names Mongo would read as paths or operators.
func checkMongoKeys(fields map[string]interface{}) error {
	for k := range fields {
		if k == "" || strings.HasPrefix(k, "$") || strings.Contains(k, ".") {
			return fmt.Errorf("invalid contact attribute %q", k)
		}
	}
	return nil
}
