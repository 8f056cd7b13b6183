package models

import (
	"encoding/json"
	"time"
)

// Contact is a free-form address book entry. Its attributes (name, email,
// phone, favorite, ...) are kept as-is in Fields.
type Contact struct {
	ID        string                 `gorm:"primaryKey;type:varchar(36)"`
	Fields    map[string]interface{} `gorm:"serializer:json;type:text;not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// reservedContactKeys are owned by the store and never taken from a request body.
var reservedContactKeys = []string{"id", "_id", "createdAt", "updatedAt"}

// ContactFields copies body without the store-owned keys.
func ContactFields(body map[string]interface{}) map[string]interface{} {
	fields := make(map[string]interface{}, len(body))
	for k, v := range body {
		fields[k] = v
	}
	for _, k := range reservedContactKeys {
		delete(fields, k)
	}
	return fields
}

// MarshalJSON flattens the attributes next to the identity and timestamps.
func (c Contact) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Fields)+3)
	for k, v := range c.Fields {
		out[k] = v
	}
	out["id"] = c.ID
	out["createdAt"] = c.CreatedAt
	out["updatedAt"] = c.UpdatedAt
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (c *Contact) UnmarshalJSON(data []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if id, ok := raw["id"].(string); ok {
		c.ID = id
	}
	for key, dst := range map[string]*time.Time{"createdAt": &c.CreatedAt, "updatedAt": &c.UpdatedAt} {
		if s, ok := raw[key].(string); ok {
			t, err := time.Parse(time.RFC3339Nano, s)
			if err != nil {
				return err
			}
			*dst = t
		}
	}
	c.Fields = ContactFields(raw)
	return nil
}
