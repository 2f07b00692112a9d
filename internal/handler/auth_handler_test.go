package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/instructor-eval-api/internal/models"
	"github.com/noah-isme/instructor-eval-api/internal/service"
)

type fakeAccountStore struct {
	account *models.Account
	exists  bool
}

func (f *fakeAccountStore) FindByIdentifier(context.Context, models.Role, string) (*models.Account, error) {
	if f.account == nil {
		return nil, sql.ErrNoRows
	}
	return f.account, nil
}

func (f *fakeAccountStore) FindByID(context.Context, models.Role, string) (*models.Account, error) {
	if f.account == nil {
		return nil, sql.ErrNoRows
	}
	return f.account, nil
}

func (f *fakeAccountStore) ExistsByIdentifier(context.Context, models.Role, string) (bool, error) {
	return f.exists, nil
}

func (f *fakeAccountStore) Create(ctx context.Context, account *models.Account) error {
	account.ID = "acc-1"
	return nil
}

func newAuthTestHandler(store *fakeAccountStore) *AuthHandler {
	svc := service.NewAuthService(store, nil, nil, service.AuthConfig{
		AccessTokenSecret: "test-secret",
		AccessTokenExpiry: time.Hour,
		Issuer:            "test",
	})
	return NewAuthHandler(svc)
}

func TestAuthHandlerLogin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	hash, err := bcrypt.GenerateFromPassword([]byte("secret1"), bcrypt.MinCost)
	require.NoError(t, err)
	h := newAuthTestHandler(&fakeAccountStore{account: &models.Account{
		ID:           "stu-1",
		Identifier:   "2021-001",
		FullName:     "Student A",
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
	}})

	body, _ := json.Marshal(models.LoginRequest{Identifier: "2021-001", Password: "secret1", Role: models.RoleStudent})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data models.LoginResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.NotEmpty(t, envelope.Data.AccessToken)
	assert.Equal(t, "stu-1", envelope.Data.User.ID)
}

func TestAuthHandlerLoginBadCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&fakeAccountStore{})

	body, _ := json.Marshal(models.LoginRequest{Identifier: "ghost", Password: "secret1", Role: models.RoleStudent})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Login(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthHandlerRegisterConflict(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newAuthTestHandler(&fakeAccountStore{exists: true})

	body, _ := json.Marshal(models.RegisterRequest{Identifier: "2021-001", FullName: "Student A", Password: "secret1", Role: models.RoleStudent})
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Register(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
