package service

import (
	"context"
	"testing"
	"time"

	"microcred/internal/dto"
	"microcred/internal/repository"
	"microcred/pkg/auth"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var userTestColumns = []string{
	"id", "email", "password", "name", "phone", "address", "date_of_birth", "created_at", "updated_at",
}

func newAuthServiceForTest(t *testing.T) (*AuthService, pgxmock.PgxPoolIface) {
	t.Helper()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	logger := zap.NewNop()
	jwtManager := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	svc := NewAuthService(repository.NewUserRepository(mock, logger), jwtManager, logger)
	return svc, mock
}

func userRow(userID uuid.UUID, email, passwordHash string) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(userTestColumns).
		AddRow(userID, email, passwordHash, "Priya Sharma", "+91-9876543210", "Mumbai", "1992-04-11", now, now)
}

func TestAuthService_Register(t *testing.T) {
	svc, mock := newAuthServiceForTest(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("priya@example.com").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectExec("INSERT INTO users").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	resp, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "priya@example.com",
		Password: "secret123",
		Name:     "Priya Sharma",
		Phone:    "+91-9876543210",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	assert.Equal(t, "priya@example.com", resp.User.Email)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, mock := newAuthServiceForTest(t)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("priya@example.com").
		WillReturnRows(userRow(uuid.New(), "priya@example.com", "hash"))

	_, err := svc.Register(context.Background(), &dto.RegisterRequest{
		Email:    "priya@example.com",
		Password: "secret123",
		Name:     "Priya Sharma",
	})
	assert.ErrorIs(t, err, ErrUserExists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Login(t *testing.T) {
	svc, mock := newAuthServiceForTest(t)

	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("priya@example.com").
		WillReturnRows(userRow(uuid.New(), "priya@example.com", hash))

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "priya@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.Equal(t, "Priya Sharma", resp.User.Name)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	svc, mock := newAuthServiceForTest(t)

	hash, err := auth.HashPassword("secret123")
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("priya@example.com").
		WillReturnRows(userRow(uuid.New(), "priya@example.com", hash))

	_, err = svc.Login(context.Background(), &dto.LoginRequest{
		Email:    "priya@example.com",
		Password: "not-the-password",
	})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_RefreshToken(t *testing.T) {
	svc, mock := newAuthServiceForTest(t)
	userID := uuid.New()

	jwtManager := auth.NewJWTManager("test-secret", time.Hour, 24*time.Hour)
	refreshToken, err := jwtManager.GenerateRefreshToken(userID.String())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(userID).
		WillReturnRows(userRow(userID, "priya@example.com", "hash"))

	resp, err := svc.RefreshToken(context.Background(), refreshToken)
	require.NoError(t, err)

	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, userID.String(), resp.User.ID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthService_RefreshToken_Invalid(t *testing.T) {
	svc, _ := newAuthServiceForTest(t)

	_, err := svc.RefreshToken(context.Background(), "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
