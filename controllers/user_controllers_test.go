package controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/pizzeria-app/models"
)

func TestUpdateProfile(t *testing.T) {
	s := setupTestServer(t)
	token, _ := s.register(t, "cliente@example.com")

	address := addressPayload()
	address["number"] = "42"
	code, resp := s.do(t, http.MethodPut, "/api/users/profile", token, map[string]interface{}{
		"name":    "Cliente Novo",
		"address": address,
	})
	require.Equal(t, http.StatusOK, code, resp.Message)

	var data struct {
		User models.User `json:"user"`
	}
	decodeData(t, resp, &data)
	assert.Equal(t, "Cliente Novo", data.User.Name)
	assert.Equal(t, "42", data.User.Address.Number)
	assert.Equal(t, "11955554444", data.User.Phone)

	code, _ = s.do(t, http.MethodPut, "/api/users/profile", token, map[string]interface{}{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestChangePassword(t *testing.T) {
	s := setupTestServer(t)
	token, _ := s.register(t, "cliente@example.com")

	code, _ := s.do(t, http.MethodPut, "/api/users/change-password", token, map[string]string{
		"currentPassword": "wrong-one", "newPassword": "another123",
	})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = s.do(t, http.MethodPut, "/api/users/change-password", token, map[string]string{
		"currentPassword": "secret123", "newPassword": "123",
	})
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPut, "/api/users/change-password", token, map[string]string{
		"currentPassword": "secret123", "newPassword": "another123",
	})
	require.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "cliente@example.com", "password": "another123",
	})
	assert.Equal(t, http.StatusOK, code)
}

func TestAdminUserManagement(t *testing.T) {
	s := setupTestServer(t)
	token, userID := s.register(t, "cliente@example.com")

	code, _ := s.do(t, http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, resp := s.do(t, http.MethodGet, "/api/users", s.adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	var users []models.User
	decodeData(t, resp, &users)
	assert.Len(t, users, 2)

	code, _ = s.do(t, http.MethodPatch, "/api/users/"+userID+"/role", s.adminToken, map[string]string{"role": "chef"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = s.do(t, http.MethodPatch, "/api/users/"+userID+"/role", s.adminToken, map[string]string{"role": "admin"})
	require.Equal(t, http.StatusOK, code, resp.Message)

	// the role is re-read on every request, so the old token now has admin rights
	code, _ = s.do(t, http.MethodGet, "/api/users", token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/api/users/missing", s.adminToken, nil)
	assert.Equal(t, http.StatusNotFound, code)
}
