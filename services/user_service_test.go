package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/pizzeria-app/models"
	"github.com/yeremiapane/pizzeria-app/services"
	"github.com/yeremiapane/pizzeria-app/utils"
)

func registerInput(email string) services.RegisterInput {
	return services.RegisterInput{
		Name:     "Joana",
		Email:    email,
		Password: "secret123",
		Phone:    "11911112222",
		Address:  testAddress(),
	}
}

func TestRegisterIssuesTokenAndNormalizesEmail(t *testing.T) {
	store := setupTestStore(t)
	users := newUserService(store)

	user, token, err := users.Register(context.Background(), registerInput("  Joana@Example.COM "))
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "joana@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "secret123", user.PasswordHash)

	claims, err := utils.NewTokenManager("test-secret", "pizzeria-test", 0).ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
}

func TestRegisterDuplicateEmailAnyCase(t *testing.T) {
	store := setupTestStore(t)
	users := newUserService(store)
	ctx := context.Background()

	_, _, err := users.Register(ctx, registerInput("joana@example.com"))
	require.NoError(t, err)

	_, _, err = users.Register(ctx, registerInput("JOANA@example.com"))
	assertKind(t, err, utils.KindValidation)
	assert.Contains(t, err.Error(), "email already registered")
}

func TestRegisterValidation(t *testing.T) {
	store := setupTestStore(t)
	users := newUserService(store)

	cases := map[string]func(in *services.RegisterInput){
		"short password":  func(in *services.RegisterInput) { in.Password = "12345" },
		"missing name":    func(in *services.RegisterInput) { in.Name = " " },
		"missing phone":   func(in *services.RegisterInput) { in.Phone = "" },
		"missing zipcode": func(in *services.RegisterInput) { in.Address.ZipCode = "" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := registerInput("case@example.com")
			mutate(&in)
			_, _, err := users.Register(context.Background(), in)
			assertKind(t, err, utils.KindValidation)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	store := setupTestStore(t)
	users := newUserService(store)
	ctx := context.Background()

	registered, _, err := users.Register(ctx, registerInput("joana@example.com"))
	require.NoError(t, err)

	user, token, err := users.Authenticate(ctx, "JOANA@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)

	_, _, err = users.Authenticate(ctx, "joana@example.com", "wrong-password")
	assertKind(t, err, utils.KindInvalidCredential)

	_, _, err = users.Authenticate(ctx, "nobody@example.com", "secret123")
	assertKind(t, err, utils.KindInvalidCredential)
}

func TestIdentifyReadsCurrentRole(t *testing.T) {
	store := setupTestStore(t)
	users := newUserService(store)
	ctx := context.Background()

	user, _, err := users.Register(ctx, registerInput("joana@example.com"))
	require.NoError(t, err)

	caller, err := users.Identify(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, caller.IsAdmin())

	_, err = users.SetRole(ctx, user.ID, models.RoleAdmin)
	require.NoError(t, err)
	caller, err = users.Identify(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, caller.IsAdmin())

	_, err = users.Identify(ctx, "deleted-user")
	assertKind(t, err, utils.KindInvalidCredential)

	_, err = users.SetRole(ctx, user.ID, "owner")
	assertKind(t, err, utils.KindValidation)
}

func TestUpdateProfileAndChangePassword(t *testing.T) {
	store := setupTestStore(t)
	users := newUserService(store)
	ctx := context.Background()

	user, _, err := users.Register(ctx, registerInput("joana@example.com"))
	require.NoError(t, err)
	caller := services.Caller{UserID: user.ID, Role: user.Role}

	phone := "11933334444"
	addr := testAddress()
	addr.Number = "10"
	updated, err := users.UpdateProfile(ctx, caller, services.ProfileInput{Phone: &phone, Address: &addr})
	require.NoError(t, err)
	assert.Equal(t, "Joana", updated.Name)
	assert.Equal(t, phone, updated.Phone)
	assert.Equal(t, "10", updated.Address.Number)

	empty := ""
	_, err = users.UpdateProfile(ctx, caller, services.ProfileInput{Name: &empty})
	assertKind(t, err, utils.KindValidation)

	err = users.ChangePassword(ctx, caller, "wrong", "newsecret")
	assertKind(t, err, utils.KindInvalidCredential)

	err = users.ChangePassword(ctx, caller, "secret123", "short")
	assertKind(t, err, utils.KindValidation)

	require.NoError(t, users.ChangePassword(ctx, caller, "secret123", "newsecret"))
	_, _, err = users.Authenticate(ctx, "joana@example.com", "newsecret")
	require.NoError(t, err)
	_, _, err = users.Authenticate(ctx, "joana@example.com", "secret123")
	assertKind(t, err, utils.KindInvalidCredential)
}

func TestEnsureAdminIsIdempotent(t *testing.T) {
	store := setupTestStore(t)
	users := newUserService(store)
	ctx := context.Background()

	require.NoError(t, users.EnsureAdmin(ctx, "Boss", "Admin@Pizzeria.com", "admin123"))
	require.NoError(t, users.EnsureAdmin(ctx, "Boss", "admin@pizzeria.com", "other-password"))

	admin, _, err := users.Authenticate(ctx, "admin@pizzeria.com", "admin123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, admin.Role)

	all, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}
