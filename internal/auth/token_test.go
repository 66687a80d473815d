package auth

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"poscore/internal/fault"
	"poscore/internal/model"
)

type memDirectory struct {
	users map[uuid.UUID]*model.User
}

func (d *memDirectory) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	u, ok := d.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return u, nil
}

func (d *memDirectory) FindByUsername(_ context.Context, username string) (*model.User, error) {
	for _, u := range d.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func seedDirectory(t *testing.T, username, password string, role model.Role, active bool) (*memDirectory, *model.User) {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &model.User{ID: uuid.New(), Username: username, Name: "Test User", PasswordHash: string(hash), Role: role, Active: active}
	return &memDirectory{users: map[uuid.UUID]*model.User{u.ID: u}}, u
}

func TestIssueAndVerify(t *testing.T) {
	dir, supervisor := seedDirectory(t, "sup", "secret", model.RoleSupervisor, true)
	svc := NewService(dir, "test-signing-key", 2*time.Minute)

	token, err := svc.Issue(context.Background(), "sup", "secret", ScopeWithdrawal)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	grant, err := svc.Verify(token, ScopeWithdrawal)
	require.NoError(t, err)
	assert.Equal(t, supervisor.ID, grant.UserID)
	assert.Equal(t, model.RoleSupervisor, grant.Role)
}

func TestIssueRejectsBadPassword(t *testing.T) {
	dir, _ := seedDirectory(t, "sup", "secret", model.RoleSupervisor, true)
	svc := NewService(dir, "test-signing-key", 2*time.Minute)

	_, err := svc.Issue(context.Background(), "sup", "wrong", ScopeWithdrawal)
	require.Error(t, err)
	assert.True(t, fault.IsPermissionDenied(err))
}

func TestIssueRejectsCashier(t *testing.T) {
	dir, _ := seedDirectory(t, "cash", "secret", model.RoleCashier, true)
	svc := NewService(dir, "test-signing-key", 2*time.Minute)

	_, err := svc.Issue(context.Background(), "cash", "secret", ScopeWithdrawal)
	require.Error(t, err)
	assert.True(t, fault.IsPermissionDenied(err))
}

func TestIssueRejectsInactiveUser(t *testing.T) {
	dir, _ := seedDirectory(t, "sup", "secret", model.RoleSupervisor, false)
	svc := NewService(dir, "test-signing-key", 2*time.Minute)

	_, err := svc.Issue(context.Background(), "sup", "secret", ScopeWithdrawal)
	require.Error(t, err)
	assert.True(t, fault.IsPermissionDenied(err))
}

func TestVerifyRejectsWrongScope(t *testing.T) {
	dir, _ := seedDirectory(t, "sup", "secret", model.RoleSupervisor, true)
	svc := NewService(dir, "test-signing-key", 2*time.Minute)

	token, err := svc.Issue(context.Background(), "sup", "secret", ScopeWithdrawal)
	require.NoError(t, err)

	_, err = svc.Verify(token, ScopeCreditOverride)
	require.Error(t, err)
	assert.True(t, fault.IsPermissionDenied(err))
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	dir, _ := seedDirectory(t, "sup", "secret", model.RoleSupervisor, true)
	svc := NewService(dir, "test-signing-key", -time.Minute)

	token, err := svc.Issue(context.Background(), "sup", "secret", ScopeWithdrawal)
	require.NoError(t, err)

	_, err = svc.Verify(token, ScopeWithdrawal)
	require.Error(t, err)
	assert.True(t, fault.IsPermissionDenied(err))
}

func TestVerifyRejectsForeignSignature(t *testing.T) {
	dir, _ := seedDirectory(t, "sup", "secret", model.RoleSupervisor, true)
	issuer := NewService(dir, "key-one", 2*time.Minute)
	verifier := NewService(dir, "key-two", 2*time.Minute)

	token, err := issuer.Issue(context.Background(), "sup", "secret", ScopeWithdrawal)
	require.NoError(t, err)

	_, err = verifier.Verify(token, ScopeWithdrawal)
	require.Error(t, err)
	assert.True(t, fault.IsPermissionDenied(err))
}
