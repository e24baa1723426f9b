package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"golang.org/x/crypto/bcrypt"

	"github.com/ndlovu/church-venue-hire/internal/config"
	"github.com/ndlovu/church-venue-hire/internal/repository"
	"github.com/ndlovu/church-venue-hire/internal/utils"
)

func newAuthTest(t *testing.T) (*AuthHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 30,
		BcryptCost:     bcrypt.MinCost,
	}
	return NewAuthHandler(cfg, repository.NewChurchRepo(db), repository.NewTokenRepo(db)), mock
}

func churchRow(hash string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "phone", "address",
		"city", "province", "zip_code", "description", "created_at",
	}).AddRow(1, "Grace Fellowship", "grace@example.org", hash, "MEMBER",
		nil, nil, nil, nil, nil, nil, time.Now().UTC())
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	h, _ := newAuthTest(t)

	body, _ := json.Marshal(map[string]any{
		"name":     "Grace Fellowship",
		"email":    "grace@example.org",
		"password": "weak",
	})
	rec := doJSON(h.Register, http.MethodPost, "/v1/auth/register", string(body), 0, nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password must be at least 8 characters")
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, mock := newAuthTest(t)

	// The repo detects duplicates by the MySQL error code in the message.
	mock.ExpectExec("INSERT INTO churches").WillReturnError(
		errors.New("Error 1062 (23000): Duplicate entry 'grace@example.org' for key 'churches.email'"))

	body, _ := json.Marshal(map[string]any{
		"name":     "Grace Fellowship",
		"email":    "grace@example.org",
		"password": "Secret#123",
	})
	rec := doJSON(h.Register, http.MethodPost, "/v1/auth/register", string(body), 0, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email already exists")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginSuccess(t *testing.T) {
	h, mock := newAuthTest(t)

	hash, err := utils.HashPassword("Secret#123", bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery("FROM churches WHERE email").WithArgs("grace@example.org").
		WillReturnRows(churchRow(hash))
	mock.ExpectExec("INSERT INTO refresh_tokens").WillReturnResult(sqlmock.NewResult(1, 1))

	body, _ := json.Marshal(map[string]any{
		"email":    "Grace@Example.org", // normalized to lower case
		"password": "Secret#123",
	})
	rec := doJSON(h.Login, http.MethodPost, "/v1/auth/login", string(body), 0, nil)

	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.NoError(t, mock.ExpectationsWereMet())

	var resp struct {
		Church struct {
			ID   uint64 `json:"id"`
			Role string `json:"role"`
		} `json:"church"`
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, uint64(1), resp.Church.ID)
	assert.Equal(t, "MEMBER", resp.Church.Role)
	assert.NotEmpty(t, resp.Access.Token)
	assert.Len(t, resp.Refresh.Token, 96)
}

func TestLoginWrongPassword(t *testing.T) {
	h, mock := newAuthTest(t)

	hash, err := utils.HashPassword("Secret#123", bcrypt.MinCost)
	require.NoError(t, err)
	mock.ExpectQuery("FROM churches WHERE email").WithArgs("grace@example.org").
		WillReturnRows(churchRow(hash))

	body, _ := json.Marshal(map[string]any{
		"email":    "grace@example.org",
		"password": "Wrong#123",
	})
	rec := doJSON(h.Login, http.MethodPost, "/v1/auth/login", string(body), 0, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid credentials")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLoginUnknownEmail(t *testing.T) {
	h, mock := newAuthTest(t)

	mock.ExpectQuery("FROM churches WHERE email").WithArgs("nobody@example.org").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	body, _ := json.Marshal(map[string]any{
		"email":    "nobody@example.org",
		"password": "Secret#123",
	})
	rec := doJSON(h.Login, http.MethodPost, "/v1/auth/login", string(body), 0, nil)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
