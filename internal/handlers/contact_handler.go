package handlers

import (
	"encoding/json"

	"phonebook/internal/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ContactHandler handles HTTP requests for contacts.
type ContactHandler struct {
	service *services.ContactService
	logger  *zap.Logger
}

// NewContactHandler creates a new ContactHandler.
func NewContactHandler(service *services.ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes registers the contact routes with the Fiber app.
func (h *ContactHandler) RegisterRoutes(router fiber.Router) {
	contactRoutes := router.Group("/contacts")
	contactRoutes.Get("/", h.HandleListContacts)
	contactRoutes.Get("/:id", h.HandleGetContact)
	contactRoutes.Post("/", h.HandleAddContact)
	contactRoutes.Delete("/:id", h.HandleRemoveContact)
	contactRoutes.Put("/:id", h.HandleUpdateContact)
	contactRoutes.Patch("/:id/favorite", h.HandleUpdateFavorite)
}

// HandleListContacts retrieves all contacts.
func (h *ContactHandler) HandleListContacts(c *fiber.Ctx) error {
	contacts, err := h.service.ListContacts()
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(contacts)
}

// HandleGetContact retrieves a single contact by its ID.
func (h *ContactHandler) HandleGetContact(c *fiber.Ctx) error {
	contact, err := h.service.GetContactByID(c.Params("id"))
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(contact)
}

// HandleAddContact creates a contact from the request body.
func (h *ContactHandler) HandleAddContact(c *fiber.Ctx) error {
	fields, ok, err := contactBody(c)
	if !ok {
		return err
	}
	contact, err := h.service.AddContact(fields)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.Status(fiber.StatusCreated).JSON(contact)
}

// HandleRemoveContact deletes a contact by its ID.
func (h *ContactHandler) HandleRemoveContact(c *fiber.Ctx) error {
	if err := h.service.RemoveContact(c.Params("id")); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Contact deleted"})
}

// HandleUpdateContact replaces the given attributes of a contact.
func (h *ContactHandler) HandleUpdateContact(c *fiber.Ctx) error {
	fields, ok, err := contactBody(c)
	if !ok {
		return err
	}
	contact, err := h.service.UpdateContact(c.Params("id"), fields)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(contact)
}

// HandleUpdateFavorite updates a contact through the favorite route.
func (h *ContactHandler) HandleUpdateFavorite(c *fiber.Ctx) error {
	fields, ok, err := contactBody(c)
	if !ok {
		return err
	}
	contact, err := h.service.UpdateFavorite(c.Params("id"), fields)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(contact)
}

// contactBody decodes a non-empty JSON object. On failure it writes the 400
// response itself and returns ok == false.
func contactBody(c *fiber.Ctx) (map[string]interface{}, bool, error) {
	var fields map[string]interface{}
	if err := json.Unmarshal(c.Body(), &fields); err != nil {
		return nil, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Invalid request body",
		})
	}
	if len(fields) == 0 {
		return nil, false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "missing fields",
		})
	}
	return fields, true, nil
}
