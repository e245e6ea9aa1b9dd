package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/clockwise-hq/timetrack-api/internal/models"
	appErrors "github.com/clockwise-hq/timetrack-api/pkg/errors"
)

type mockAuthEmployees struct {
	byEmail   map[string]*models.Employee
	byID      map[string]*models.Employee
	lastLogin map[string]time.Time
	newHashes map[string]string
}

func (m *mockAuthEmployees) FindByEmail(ctx context.Context, email string) (*models.Employee, error) {
	if e, ok := m.byEmail[email]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthEmployees) FindByID(ctx context.Context, id string) (*models.Employee, error) {
	if e, ok := m.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthEmployees) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if m.lastLogin == nil {
		m.lastLogin = make(map[string]time.Time)
	}
	m.lastLogin[id] = ts
	return nil
}

func (m *mockAuthEmployees) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	if m.newHashes == nil {
		m.newHashes = make(map[string]string)
	}
	m.newHashes[id] = passwordHash
	return nil
}

type mockTokens struct {
	byToken    map[string]*models.RefreshToken
	stored     []*models.RefreshToken
	revoked    []string
	revokedAll []string
}

func (m *mockTokens) Store(ctx context.Context, token *models.RefreshToken) error {
	if m.byToken == nil {
		m.byToken = make(map[string]*models.RefreshToken)
	}
	token.ID = "rt-" + token.Token[:6]
	m.byToken[token.Token] = token
	m.stored = append(m.stored, token)
	return nil
}

func (m *mockTokens) FindByToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.byToken[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockTokens) Revoke(ctx context.Context, id string) error {
	m.revoked = append(m.revoked, id)
	now := time.Now().UTC()
	for _, t := range m.byToken {
		if t.ID == id {
			t.RevokedAt = &now
		}
	}
	return nil
}

func (m *mockTokens) RevokeAllForEmployee(ctx context.Context, employeeID string) error {
	m.revokedAll = append(m.revokedAll, employeeID)
	return nil
}

type mockAudits struct {
	entries []models.AuditLog
}

func (m *mockAudits) Insert(ctx context.Context, log *models.AuditLog) error {
	m.entries = append(m.entries, *log)
	return nil
}

func newAuthFixture(t *testing.T) (*AuthService, *mockAuthEmployees, *mockTokens, *mockAudits) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("correct-horse"), bcrypt.MinCost)
	require.NoError(t, err)

	emp := &models.Employee{
		ID:           "emp-1",
		Email:        "ada@example.com",
		PasswordHash: string(hash),
		FirstName:    "Ada",
		LastName:     "Lovelace",
		PayGroup:     models.PayGroupA,
		IsActive:     true,
	}
	employees := &mockAuthEmployees{
		byEmail: map[string]*models.Employee{emp.Email: emp},
		byID:    map[string]*models.Employee{emp.ID: emp},
	}
	tokens := &mockTokens{}
	audits := &mockAudits{}
	svc := NewAuthService(employees, tokens, audits, nil, nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Hour,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "timetrack-test",
	})
	return svc, employees, tokens, audits
}

func TestLogin(t *testing.T) {
	svc, employees, tokens, audits := newAuthFixture(t)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "Ada Lovelace", resp.Employee.FullName)
	assert.Len(t, tokens.stored, 1)
	assert.Contains(t, employees.lastLogin, "emp-1")
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionLogin, audits.entries[0].Action)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "emp-1", claims.UserID)
	assert.Equal(t, models.PayGroupA, claims.PayGroup)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ada@example.com",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "nobody@example.com",
		Password: "correct-horse",
	})
	require.Error(t, err)
	// Unknown account and bad password are indistinguishable to callers.
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestLoginInactiveAccount(t *testing.T) {
	svc, employees, _, _ := newAuthFixture(t)
	employees.byEmail["ada@example.com"].IsActive = false

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveAccount.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	svc, _, tokens, _ := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "ada@example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)

	rotated, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)
	assert.Len(t, tokens.revoked, 1)

	// The consumed token cannot be replayed.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenExpired(t *testing.T) {
	svc, _, tokens, _ := newAuthFixture(t)
	tokens.byToken = map[string]*models.RefreshToken{
		"stale": {ID: "rt-1", EmployeeID: "emp-1", Token: "stale", ExpiresAt: time.Now().UTC().Add(-time.Hour)},
	}

	_, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: "stale"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutRejectsForeignToken(t *testing.T) {
	svc, _, tokens, _ := newAuthFixture(t)
	tokens.byToken = map[string]*models.RefreshToken{
		"other": {ID: "rt-2", EmployeeID: "emp-2", Token: "other", ExpiresAt: time.Now().UTC().Add(time.Hour)},
	}

	err := svc.Logout(context.Background(), "emp-1", "other", "", "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestChangePassword(t *testing.T) {
	svc, employees, tokens, audits := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), "emp-1", models.ChangePasswordRequest{
		OldPassword: "correct-horse",
		NewPassword: "battery-staple",
	})
	require.NoError(t, err)
	assert.Contains(t, employees.newHashes, "emp-1")
	assert.Equal(t, []string{"emp-1"}, tokens.revokedAll)
	require.Len(t, audits.entries, 1)
	assert.Equal(t, models.AuditActionPasswordChange, audits.entries[0].Action)
}

func TestChangePasswordWrongOld(t *testing.T) {
	svc, employees, _, _ := newAuthFixture(t)

	err := svc.ChangePassword(context.Background(), "emp-1", models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "battery-staple",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, employees.newHashes)
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, err := svc.ValidateToken("not.a.token")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
