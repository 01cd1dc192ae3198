package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"medibook/internal/auth"
	apperrors "medibook/internal/errors"
	"medibook/internal/model"
)

func newAuthService(repo *MockUserRepository, store *MockTokenStore) AuthService {
	return NewAuthService(repo, auth.NewJWTService("test-secret"), store, zerolog.Nop())
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestAuthService_Register(t *testing.T) {
	tests := []struct {
		name          string
		input         RegisterInput
		setupMock     func(*MockUserRepository)
		expectedError error
	}{
		{
			name: "successful registration",
			input: RegisterInput{
				FirstName: "Test",
				LastName:  "User",
				Email:     "test@example.com",
				Password:  "password123",
				Phone:     "555-0100",
			},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "test@example.com").Return(nil, apperrors.ErrUserNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
			},
		},
		{
			name:  "user already exists",
			input: RegisterInput{Email: "existing@example.com", Password: "password123"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "existing@example.com").Return(&model.User{Email: "existing@example.com"}, nil)
			},
			expectedError: apperrors.ErrUserAlreadyExists,
		},
		{
			name:  "racing duplicate reported by storage",
			input: RegisterInput{Email: "race@example.com", Password: "password123"},
			setupMock: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "race@example.com").Return(nil, apperrors.ErrUserNotFound)
				m.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(apperrors.ErrUserAlreadyExists)
			},
			expectedError: apperrors.ErrUserAlreadyExists,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			tt.setupMock(mockRepo)

			user, err := newAuthService(mockRepo, new(MockTokenStore)).Register(context.Background(), tt.input)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.input.Email, user.Email)
				assert.Equal(t, "Test User", user.FullName())
				assert.Equal(t, model.RoleUser, user.Role)
				assert.NotEqual(t, tt.input.Password, user.PasswordHash)
				assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(tt.input.Password)))
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name          string
		email         string
		password      string
		setupMock     func(*MockUserRepository, *MockTokenStore)
		expectedError error
	}{
		{
			name:     "successful login",
			email:    "test@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, mToken *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					ID:           userID,
					Email:        "test@example.com",
					PasswordHash: hashed(t, "password123"),
					Role:         model.RoleUser,
				}, nil)
				mToken.On("StoreRefreshToken", mock.Anything, mock.Anything, userID, "test@example.com", auth.RefreshTokenExpiry).Return(nil)
			},
		},
		{
			name:     "invalid credentials - user not found",
			email:    "notfound@example.com",
			password: "password123",
			setupMock: func(mRepo *MockUserRepository, _ *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "notfound@example.com").Return(nil, apperrors.ErrUserNotFound)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
		{
			name:     "invalid credentials - wrong password",
			email:    "test@example.com",
			password: "wrong",
			setupMock: func(mRepo *MockUserRepository, _ *MockTokenStore) {
				mRepo.On("FindByEmail", mock.Anything, "test@example.com").Return(&model.User{
					ID:           userID,
					Email:        "test@example.com",
					PasswordHash: hashed(t, "password123"),
				}, nil)
			},
			expectedError: apperrors.ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockUserRepository)
			mockTokenStore := new(MockTokenStore)
			tt.setupMock(mockRepo, mockTokenStore)

			accessToken, refreshToken, user, err := newAuthService(mockRepo, mockTokenStore).Login(context.Background(), tt.email, tt.password)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, accessToken)
				assert.Empty(t, refreshToken)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, accessToken)
				assert.NotEmpty(t, refreshToken)
				assert.Equal(t, tt.email, user.Email)
			}

			mockRepo.AssertExpectations(t)
			mockTokenStore.AssertExpectations(t)
		})
	}
}

func TestAuthService_RefreshToken(t *testing.T) {
	ctx := context.Background()
	jwtService := auth.NewJWTService("test-secret")
	user := &model.User{ID: uuid.New(), Email: "test@example.com", Role: model.RoleAdmin}

	tokenID, refresh, err := jwtService.GenerateRefreshToken(user.ID, user.Email, string(model.RoleUser))
	require.NoError(t, err)

	t.Run("issues access token with current role", func(t *testing.T) {
		mockRepo := new(MockUserRepository)
		mockStore := new(MockTokenStore)
		mockStore.On("GetRefreshToken", mock.Anything, tokenID).Return(user.ID, user.Email, nil)
		mockRepo.On("FindByID", mock.Anything, user.ID).Return(user, nil)

		svc := NewAuthService(mockRepo, jwtService, mockStore, zerolog.Nop())
		access, err := svc.RefreshToken(ctx, refresh)
		require.NoError(t, err)

		claims, err := jwtService.ValidateToken(access)
		require.NoError(t, err)
		assert.Equal(t, string(model.RoleAdmin), claims.Role)
		assert.Equal(t, user.Email, claims.Email())
	})

	t.Run("revoked token", func(t *testing.T) {
		mockStore := new(MockTokenStore)
		mockStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uuid.Nil, "", auth.ErrTokenNotFound)

		svc := NewAuthService(new(MockUserRepository), jwtService, mockStore, zerolog.Nop())
		_, err := svc.RefreshToken(ctx, refresh)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})

	t.Run("stored owner mismatch", func(t *testing.T) {
		mockStore := new(MockTokenStore)
		mockStore.On("GetRefreshToken", mock.Anything, tokenID).Return(uuid.New(), user.Email, nil)

		svc := NewAuthService(new(MockUserRepository), jwtService, mockStore, zerolog.Nop())
		_, err := svc.RefreshToken(ctx, refresh)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})

	t.Run("access token is not a refresh token", func(t *testing.T) {
		access, err := jwtService.GenerateAccessToken(user.ID, user.Email, string(user.Role))
		require.NoError(t, err)

		svc := NewAuthService(new(MockUserRepository), jwtService, new(MockTokenStore), zerolog.Nop())
		_, err = svc.RefreshToken(ctx, access)
		assert.ErrorIs(t, err, apperrors.ErrInvalidRefreshToken)
	})
}

func TestAuthService_Logout(t *testing.T) {
	jwtService := auth.NewJWTService("test-secret")
	tokenID, refresh, err := jwtService.GenerateRefreshToken(uuid.New(), "test@example.com", string(model.RoleUser))
	require.NoError(t, err)

	mockStore := new(MockTokenStore)
	mockStore.On("DeleteRefreshToken", mock.Anything, tokenID).Return(nil)

	svc := NewAuthService(new(MockUserRepository), jwtService, mockStore, zerolog.Nop())
	require.NoError(t, svc.Logout(context.Background(), refresh))
	mockStore.AssertExpectations(t)

	assert.ErrorIs(t, svc.Logout(context.Background(), "garbage"), apperrors.ErrInvalidRefreshToken)
}

func TestAuthService_LoginWithGoogle(t *testing.T) {
	userID := uuid.New()
	identity := &auth.ExternalIdentity{Subject: "1234", Email: "ada@example.com", GivenName: "Ada", FamilyName: "Lovelace"}

	tests := []struct {
		name          string
		setupMock     func(*MockIDTokenVerifier, *MockUserRepository, *MockTokenStore)
		expectedError error
		expectedName  [2]string
	}{
		{
			name: "existing account",
			setupMock: func(v *MockIDTokenVerifier, r *MockUserRepository, s *MockTokenStore) {
				v.On("Verify", mock.Anything, "id-token").Return(identity, nil)
				r.On("FindByEmail", mock.Anything, "ada@example.com").Return(&model.User{
					ID: userID, FirstName: "Augusta", LastName: "King", Email: "ada@example.com", Role: model.RoleAdmin,
				}, nil)
				s.On("StoreRefreshToken", mock.Anything, mock.Anything, userID, "ada@example.com", auth.RefreshTokenExpiry).Return(nil)
			},
			expectedName: [2]string{"Augusta", "King"},
		},
		{
			name: "first sign-in creates a user account",
			setupMock: func(v *MockIDTokenVerifier, r *MockUserRepository, s *MockTokenStore) {
				v.On("Verify", mock.Anything, "id-token").Return(identity, nil)
				r.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, apperrors.ErrUserNotFound)
				r.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
					return u.Role == model.RoleUser && u.PasswordHash == "" && u.FirstName == "Ada" && u.LastName == "Lovelace"
				})).Return(nil)
				s.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, "ada@example.com", auth.RefreshTokenExpiry).Return(nil)
			},
			expectedName: [2]string{"Ada", "Lovelace"},
		},
		{
			name: "missing names default",
			setupMock: func(v *MockIDTokenVerifier, r *MockUserRepository, s *MockTokenStore) {
				v.On("Verify", mock.Anything, "id-token").Return(&auth.ExternalIdentity{Email: "ada@example.com"}, nil)
				r.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, apperrors.ErrUserNotFound)
				r.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(nil)
				s.On("StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything, "ada@example.com", auth.RefreshTokenExpiry).Return(nil)
			},
			expectedName: [2]string{"Google", "User"},
		},
		{
			name: "concurrent first sign-in",
			setupMock: func(v *MockIDTokenVerifier, r *MockUserRepository, s *MockTokenStore) {
				v.On("Verify", mock.Anything, "id-token").Return(identity, nil)
				r.On("FindByEmail", mock.Anything, "ada@example.com").Return(nil, apperrors.ErrUserNotFound).Once()
				r.On("Create", mock.Anything, mock.AnythingOfType("*model.User")).Return(apperrors.ErrUserAlreadyExists)
				r.On("FindByEmail", mock.Anything, "ada@example.com").Return(&model.User{
					ID: userID, FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Role: model.RoleUser,
				}, nil).Once()
				s.On("StoreRefreshToken", mock.Anything, mock.Anything, userID, "ada@example.com", auth.RefreshTokenExpiry).Return(nil)
			},
			expectedName: [2]string{"Ada", "Lovelace"},
		},
		{
			name: "rejected token",
			setupMock: func(v *MockIDTokenVerifier, _ *MockUserRepository, _ *MockTokenStore) {
				v.On("Verify", mock.Anything, "id-token").Return(nil, auth.ErrInvalidIDToken)
			},
			expectedError: apperrors.ErrInvalidGoogleToken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			verifier := new(MockIDTokenVerifier)
			repo := new(MockUserRepository)
			store := new(MockTokenStore)
			tt.setupMock(verifier, repo, store)

			svc := NewAuthService(repo, auth.NewJWTService("test-secret"), store, zerolog.Nop(), WithGoogleSignIn(verifier))
			access, refresh, user, err := svc.LoginWithGoogle(context.Background(), "id-token")

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Empty(t, access)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.NotEmpty(t, access)
				assert.NotEmpty(t, refresh)
				assert.Equal(t, tt.expectedName, [2]string{user.FirstName, user.LastName})
			}

			verifier.AssertExpectations(t)
			repo.AssertExpectations(t)
			store.AssertExpectations(t)
		})
	}
}

func TestAuthService_LoginWithGoogleDisabled(t *testing.T) {
	_, _, _, err := newAuthService(new(MockUserRepository), new(MockTokenStore)).LoginWithGoogle(context.Background(), "id-token")
	assert.ErrorIs(t, err, apperrors.ErrGoogleSignInDisabled)
}

func TestAuthService_GoogleAccountCannotUsePasswordLogin(t *testing.T) {
	repo := new(MockUserRepository)
	repo.On("FindByEmail", mock.Anything, "ada@example.com").Return(&model.User{Email: "ada@example.com", Role: model.RoleUser}, nil)

	_, _, _, err := newAuthService(repo, new(MockTokenStore)).Login(context.Background(), "ada@example.com", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}
