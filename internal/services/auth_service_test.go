package services_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"phonebook/internal/avatar"
	"phonebook/internal/models"
	"phonebook/internal/repositories"
	"phonebook/internal/services"
	"phonebook/pkg/mailer"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByEmail(email string) (*models.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(id string) (*models.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByVerificationToken(token string) (*models.User, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

// MockMailer is a mock implementation of mailer.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Send(email mailer.Email) error {
	args := m.Called(email)
	return args.Error(0)
}

// MockAvatarStore is a mock implementation of avatar.Store
type MockAvatarStore struct {
	mock.Mock
}

func (m *MockAvatarStore) Save(userID, originalName, tempPath string) (string, error) {
	args := m.Called(userID, originalName, tempPath)
	return args.String(0), args.Error(1)
}

const testJWTSecret = "test_jwt_secret"

var errNotFound = fmt.Errorf("user: %w", repositories.ErrNotFound)

func newAuthService(repo *MockUserRepository, m *MockMailer, store *MockAvatarStore) *services.AuthService {
	return services.NewAuthService(repo, m, store, services.AuthConfig{
		JWTSecret: testJWTSecret,
		TokenTTL:  23 * time.Hour,
		BaseURL:   "http://localhost:3000/",
	}, zap.NewNop())
}

func verifiedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "user-123",
		Email:        "test@example.com",
		Password:     string(hash),
		Subscription: models.SubscriptionStarter,
		Verify:       true,
	}
}

func TestAuthService_Register(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockMailer := new(MockMailer)
	authService := newAuthService(mockRepo, mockMailer, nil)

	var created *models.User
	mockRepo.On("GetByEmail", "test@example.com").Return(nil, errNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Run(func(args mock.Arguments) {
		created = args.Get(0).(*models.User)
		created.ID = "user-1"
	}).Return(nil).Once()
	mockMailer.On("Send", mock.MatchedBy(func(e mailer.Email) bool {
		return e.To == "test@example.com" &&
			strings.Contains(e.HTML, "http://localhost:3000/api/auth/verify/"+created.VerificationToken)
	})).Return(nil).Once()

	user, err := authService.Register(services.RegisterInput{Email: "test@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, "test@example.com", user.Email)
	assert.Equal(t, models.SubscriptionStarter, user.Subscription)
	assert.False(t, user.Verify)
	assert.NotEmpty(t, user.VerificationToken)
	assert.Equal(t, services.GravatarURL("test@example.com"), user.AvatarURL)
	assert.NotEqual(t, "password123", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("password123")))
	cost, err := bcrypt.Cost([]byte(user.Password))
	require.NoError(t, err)
	assert.Equal(t, 10, cost)
	mockRepo.AssertExpectations(t)
	mockMailer.AssertExpectations(t)
}

func TestAuthService_RegisterConflict(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockMailer := new(MockMailer)
	authService := newAuthService(mockRepo, mockMailer, nil)

	mockRepo.On("GetByEmail", "test@example.com").Return(&models.User{ID: "1"}, nil).Once()
	_, err := authService.Register(services.RegisterInput{Email: "test@example.com", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrEmailInUse)

	// a concurrent sign-up wins the unique index
	mockRepo.On("GetByEmail", "race@example.com").Return(nil, errNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).
		Return(fmt.Errorf("insert: %w", repositories.ErrDuplicate)).Once()
	_, err = authService.Register(services.RegisterInput{Email: "race@example.com", Password: "password123"})
	assert.ErrorIs(t, err, services.ErrEmailInUse)

	mockRepo.AssertExpectations(t)
	mockMailer.AssertNotCalled(t, "Send", mock.Anything)
}

func TestAuthService_RegisterMailFailure(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockMailer := new(MockMailer)
	authService := newAuthService(mockRepo, mockMailer, nil)

	mockRepo.On("GetByEmail", "test@example.com").Return(nil, errNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()
	mockMailer.On("Send", mock.Anything).Return(errors.New("smtp down")).Once()

	_, err := authService.Register(services.RegisterInput{Email: "test@example.com", Password: "password123"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
}

func TestAuthService_VerifyEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, nil, nil)

	user := &models.User{ID: "user-1", VerificationToken: "tok"}
	mockRepo.On("GetByVerificationToken", "tok").Return(user, nil).Once()
	mockRepo.On("Update", user).Return(nil).Once()

	require.NoError(t, authService.VerifyEmail("tok"))
	assert.True(t, user.Verify)
	assert.Empty(t, user.VerificationToken)

	// the token is cleared, so a second use finds nobody
	mockRepo.On("GetByVerificationToken", "tok").Return(nil, errNotFound).Once()
	assert.ErrorIs(t, authService.VerifyEmail("tok"), services.ErrUserNotFound)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ResendVerifyEmail(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockMailer := new(MockMailer)
	authService := newAuthService(mockRepo, mockMailer, nil)

	mockRepo.On("GetByEmail", "nobody@example.com").Return(nil, errNotFound).Once()
	assert.ErrorIs(t, authService.ResendVerifyEmail("nobody@example.com"), services.ErrUserNotFound)

	mockRepo.On("GetByEmail", "done@example.com").Return(&models.User{Email: "done@example.com", Verify: true}, nil).Once()
	assert.ErrorIs(t, authService.ResendVerifyEmail("done@example.com"), services.ErrAlreadyVerified)

	pending := &models.User{Email: "pending@example.com", VerificationToken: "stored-token"}
	mockRepo.On("GetByEmail", "pending@example.com").Return(pending, nil).Once()
	mockMailer.On("Send", mock.MatchedBy(func(e mailer.Email) bool {
		return e.To == "pending@example.com" && strings.Contains(e.HTML, "/api/auth/verify/stored-token")
	})).Return(nil).Once()
	assert.NoError(t, authService.ResendVerifyEmail("pending@example.com"))

	mockRepo.AssertExpectations(t)
	mockMailer.AssertExpectations(t)
}

func TestAuthService_Login(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, nil, nil)
	user := verifiedUser(t, "password123")

	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	mockRepo.On("Update", user).Return(nil).Once()

	token, loggedIn, err := authService.Login(user.Email, "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Same(t, user, loggedIn)
	require.NotNil(t, user.Token)
	assert.Equal(t, token, *user.Token)

	parsedToken, err := jwt.Parse(token, func(token *jwt.Token) (interface{}, error) {
		return []byte(testJWTSecret), nil
	})
	require.NoError(t, err)
	claims, ok := parsedToken.Claims.(jwt.MapClaims)
	require.True(t, ok)
	assert.Equal(t, user.ID, claims["id"])
	exp := time.Unix(int64(claims["exp"].(float64)), 0)
	assert.WithinDuration(t, time.Now().Add(23*time.Hour), exp, time.Minute)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_LoginFailures(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, nil, nil)

	user := verifiedUser(t, "password123")
	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	_, _, wrongPassword := authService.Login(user.Email, "wrongpassword")

	mockRepo.On("GetByEmail", "ghost@example.com").Return(nil, errNotFound).Once()
	_, _, unknownEmail := authService.Login("ghost@example.com", "password123")

	assert.ErrorIs(t, wrongPassword, services.ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, services.ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())

	unverified := verifiedUser(t, "password123")
	unverified.Verify = false
	mockRepo.On("GetByEmail", "new@example.com").Return(unverified, nil).Once()
	_, _, err := authService.Login("new@example.com", "password123")
	assert.ErrorIs(t, err, services.ErrEmailNotVerified)

	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Update", mock.Anything)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService := newAuthService(new(MockUserRepository), nil, nil)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "user-123",
		"exp": jwt.TimeFunc().Add(time.Hour).Unix(),
	})
	validTokenString, _ := token.SignedString([]byte(testJWTSecret))

	claims, err := authService.ValidateToken(validTokenString)
	assert.NoError(t, err)
	assert.Equal(t, "user-123", claims["id"])

	_, err = authService.ValidateToken("invalid.token.string")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "invalid token")

	expiredToken := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  "user-123",
		"exp": jwt.TimeFunc().Add(-time.Hour).Unix(),
	})
	expiredTokenString, _ := expiredToken.SignedString([]byte(testJWTSecret))
	_, err = authService.ValidateToken(expiredTokenString)
	assert.Error(t, err)

	foreign := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"id": "user-123"})
	foreignString, _ := foreign.SignedString([]byte("another_secret"))
	_, err = authService.ValidateToken(foreignString)
	assert.Error(t, err)
}

func TestAuthService_AuthenticateAndLogout(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, nil, nil)
	user := verifiedUser(t, "password123")

	mockRepo.On("GetByEmail", user.Email).Return(user, nil).Once()
	mockRepo.On("Update", user).Return(nil)
	token, _, err := authService.Login(user.Email, "password123")
	require.NoError(t, err)

	mockRepo.On("GetByID", user.ID).Return(user, nil)
	current, err := authService.Authenticate(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, current.ID)

	require.NoError(t, authService.Logout(user))
	assert.Nil(t, user.Token)

	_, err = authService.Authenticate(token)
	assert.ErrorIs(t, err, services.ErrNotAuthorized)

	_, err = authService.Authenticate("garbage")
	assert.ErrorIs(t, err, services.ErrNotAuthorized)
}

func TestAuthService_LoginReplacesPreviousSession(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := newAuthService(mockRepo, nil, nil)
	user := verifiedUser(t, "password123")
	stale := "previous-session"
	user.Token = &stale

	mockRepo.On("GetByEmail", user.Email).Return(user, nil)
	mockRepo.On("Update", user).Return(nil)
	mockRepo.On("GetByID", user.ID).Return(user, nil)

	token, _, err := authService.Login(user.Email, "password123")
	require.NoError(t, err)
	assert.NotEqual(t, stale, token)
	assert.False(t, user.HasSession(stale))
}

func TestAuthService_UpdateAvatar(t *testing.T) {
	mockRepo := new(MockUserRepository)
	mockStore := new(MockAvatarStore)
	authService := newAuthService(mockRepo, nil, mockStore)
	user := &models.User{ID: "user-1", AvatarURL: "//www.gravatar.com/avatar/x"}

	mockStore.On("Save", "user-1", "me.png", "/tmp/upload").Return("avatars/user-1_me.png", nil).Once()
	mockRepo.On("Update", user).Return(nil).Once()

	url, err := authService.UpdateAvatar(user, "me.png", "/tmp/upload")
	require.NoError(t, err)
	assert.Equal(t, "avatars/user-1_me.png", url)
	assert.Equal(t, url, user.AvatarURL)

	mockStore.On("Save", "user-1", "bad.png", "/tmp/bad").
		Return("", fmt.Errorf("%w: decode failed", avatar.ErrInvalidImage)).Once()
	_, err = authService.UpdateAvatar(user, "bad.png", "/tmp/bad")
	assert.ErrorIs(t, err, services.ErrInvalidAvatar)
	assert.Equal(t, "avatars/user-1_me.png", user.AvatarURL)

	mockStore.On("Save", "user-1", "me.png", "/tmp/other").Return("", errors.New("disk full")).Once()
	_, err = authService.UpdateAvatar(user, "me.png", "/tmp/other")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, services.ErrInvalidAvatar)

	mockRepo.AssertExpectations(t)
	mockStore.AssertExpectations(t)
}

func TestGravatarURL(t *testing.T) {
	assert.Equal(t, services.GravatarURL("Test@Example.com "), services.GravatarURL("test@example.com"))
	assert.Equal(t, "//www.gravatar.com/avatar/55502f40dc8b7c769880b10874abc9d0", services.GravatarURL("test@example.com"))
}
