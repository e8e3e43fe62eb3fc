package service

import (
	"testing"
	"time"

	"polkaedu_backend/internal/repository"
	"polkaedu_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserService(t *testing.T) *UserService {
	svc := NewUserService(repository.NewUserRepository(newTestDB(t)), "0123456789abcdef0123456789abcdef", time.Hour)
	svc.PasswordCost = bcrypt.MinCost
	return svc
}

func TestCreateUser(t *testing.T) {
	svc := newUserService(t)

	user, err := svc.CreateUser(CreateUserRequest{Email: "ada@example.com", Password: "secret", Name: "Ada", WalletAddress: aliceAddress})
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "secret", user.PasswordHash)
	assert.Equal(t, aliceAddress, user.Wallet())

	_, err = svc.CreateUser(CreateUserRequest{Email: "ada@example.com", Password: "x"})
	assert.ErrorIs(t, err, util.ErrEmailAlreadyRegistered)

	_, err = svc.CreateUser(CreateUserRequest{Email: "other@example.com", Password: "x", WalletAddress: aliceAddress})
	assert.ErrorIs(t, err, util.ErrWalletAlreadyAssociated)

	_, err = svc.CreateUser(CreateUserRequest{Email: "bad@example.com", Password: "x", WalletAddress: "0xnotss58"})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = svc.CreateUser(CreateUserRequest{Password: "x"})
	assert.ErrorIs(t, err, util.ErrEmailRequired)

	_, err = svc.CreateUser(CreateUserRequest{Email: "nopass@example.com"})
	assert.ErrorIs(t, err, util.ErrPasswordRequired)
}

func TestGetOrCreateByWallet(t *testing.T) {
	svc := newUserService(t)

	user, err := svc.GetOrCreateByWallet(bobAddress, "", "")
	require.NoError(t, err)
	assert.Equal(t, "wallet_5FHneW46@polkaedu.local", user.Email)
	assert.Equal(t, "User 5FHneW46", user.Name)
	assert.Empty(t, user.PasswordHash)

	again, err := svc.GetOrCreateByWallet(bobAddress, "", "")
	require.NoError(t, err)
	assert.Equal(t, user.ID, again.ID)

	renamed, err := svc.GetOrCreateByWallet(bobAddress, "Bob", "bob@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, renamed.ID)
	assert.Equal(t, "Bob", renamed.Name)
	assert.Equal(t, "bob@example.com", renamed.Email)

	_, err = svc.CreateUser(CreateUserRequest{Email: "taken@example.com", Password: "x"})
	require.NoError(t, err)
	_, err = svc.GetOrCreateByWallet(aliceAddress, "", "taken@example.com")
	assert.ErrorIs(t, err, util.ErrEmailAlreadyRegistered)

	_, err = svc.GetOrCreateByWallet("", "", "")
	assert.ErrorIs(t, err, util.ErrValidation)

	users, err := svc.ListUsers()
	require.NoError(t, err)
	assert.Len(t, users, 2)
}

func TestAssociateWalletAndUpdate(t *testing.T) {
	svc := newUserService(t)

	ada, err := svc.CreateUser(CreateUserRequest{Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)
	_, err = svc.GetOrCreateByWallet(bobAddress, "", "")
	require.NoError(t, err)

	_, err = svc.AssociateWallet(ada.ID, bobAddress)
	assert.ErrorIs(t, err, util.ErrWalletAlreadyAssociated)

	updated, err := svc.AssociateWallet(ada.ID, aliceAddress)
	require.NoError(t, err)
	assert.Equal(t, aliceAddress, updated.Wallet())

	found, err := svc.GetUserByWallet(aliceAddress)
	require.NoError(t, err)
	assert.Equal(t, ada.ID, found.ID)

	name := "Ada Lovelace"
	empty := ""
	updated, err = svc.UpdateUser(ada.ID, UpdateUserRequest{Name: &name, WalletAddress: &empty})
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", updated.Name)
	assert.Nil(t, updated.WalletAddress)

	_, err = svc.UpdateUser("missing", UpdateUserRequest{Name: &name})
	assert.ErrorIs(t, err, util.ErrUserNotFound)

	require.NoError(t, svc.DeleteUser(ada.ID))
	assert.ErrorIs(t, svc.DeleteUser(ada.ID), util.ErrUserNotFound)
	_, err = svc.GetUser(ada.ID)
	assert.ErrorIs(t, err, util.ErrUserNotFound)
}

func TestLogin(t *testing.T) {
	svc := newUserService(t)
	_, err := svc.CreateUser(CreateUserRequest{Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)
	_, err = svc.GetOrCreateByWallet(bobAddress, "", "")
	require.NoError(t, err)

	resp, err := svc.Login(LoginRequest{Email: "ada@example.com", Password: "secret"})
	require.NoError(t, err)
	claims, err := util.ParseJWT(resp.Token, svc.JWTSecret)
	require.NoError(t, err)
	assert.Equal(t, resp.User.ID, claims.UserID)

	_, err = svc.Login(LoginRequest{Email: "ada@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = svc.Login(LoginRequest{Email: "nobody@example.com", Password: "secret"})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)

	_, err = svc.Login(LoginRequest{Email: "wallet_5FHneW46@polkaedu.local", Password: ""})
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}
