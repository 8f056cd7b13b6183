package handlers

import (
	"os"
	"path/filepath"

	"phonebook/internal/middleware"
	"phonebook/internal/models"
	"phonebook/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	tempDir     string
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler. Avatar uploads are staged in tempDir.
func NewAuthHandler(authService *services.AuthService, tempDir string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    NewValidator(),
		tempDir:     tempDir,
		logger:      logger,
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	authenticate := middleware.AuthRequired(h.authService)

	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Get("/verify/:verificationToken", h.HandleVerifyEmail)
	authRoutes.Post("/verify", h.HandleResendVerifyEmail)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Get("/current", authenticate, h.HandleCurrent)
	authRoutes.Post("/logout", authenticate, h.HandleLogout)
	authRoutes.Patch("/avatar", authenticate, h.HandleUpdateAvatar)
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	user, err := h.authService.Register(services.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		Subscription: models.Subscription(req.Subscription),
	})
	if err != nil {
		return writeError(c, h.logger, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"email":        user.Email,
		"subscription": user.Subscription,
	})
}

// HandleVerifyEmail confirms the address owning the token in the path.
func (h *AuthHandler) HandleVerifyEmail(c *fiber.Ctx) error {
	if err := h.authService.VerifyEmail(c.Params("verificationToken")); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Verification successful"})
}

// HandleResendVerifyEmail sends the verification link again.
func (h *AuthHandler) HandleResendVerifyEmail(c *fiber.Ctx) error {
	var req EmailRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}
	if err := h.authService.ResendVerifyEmail(req.Email); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"message": "Verification email sent"})
}

// HandleLogin handles user login and issues a session token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := parseAndValidate(c, h.validate, &req); !ok {
		return err
	}

	token, user, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		h.logger.Info("login rejected", zap.String("email", req.Email), zap.Error(err))
		return writeError(c, h.logger, err)
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"email":        user.Email,
			"subscription": user.Subscription,
		},
	})
}

// HandleCurrent returns the authenticated caller.
func (h *AuthHandler) HandleCurrent(c *fiber.Ctx) error {
	user := middleware.CurrentUser(c)
	return c.JSON(fiber.Map{
		"email":        user.Email,
		"subscription": user.Subscription,
	})
}

// HandleLogout ends the caller's session.
func (h *AuthHandler) HandleLogout(c *fiber.Ctx) error {
	if err := h.authService.Logout(middleware.CurrentUser(c)); err != nil {
		return writeError(c, h.logger, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleUpdateAvatar stages the multipart "avatar" file and hands it to the service.
func (h *AuthHandler) HandleUpdateAvatar(c *fiber.Ctx) error {
	file, err := c.FormFile("avatar")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Avatar file is required",
		})
	}

	if err := os.MkdirAll(h.tempDir, 0o755); err != nil {
		return writeError(c, h.logger, err)
	}
	tempPath := filepath.Join(h.tempDir, uuid.New().String()+filepath.Ext(file.Filename))
	if err := c.SaveFile(file, tempPath); err != nil {
		return writeError(c, h.logger, err)
	}
	defer os.Remove(tempPath)

	avatarURL, err := h.authService.UpdateAvatar(middleware.CurrentUser(c), file.Filename, tempPath)
	if err != nil {
		return writeError(c, h.logger, err)
	}
	return c.JSON(fiber.Map{"avatarURL": avatarURL})
}
