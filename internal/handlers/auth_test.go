package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupPasswordRules(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/signup", map[string]string{"email": "a@example.com", "password": "abc"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorsBody
	decode(t, rec, &body)
	assert.Equal(t, "Password must be at least 8 characters long.", body.Errors["password"])

	rec = api.do(http.MethodPost, "/signup", map[string]string{"email": "a@example.com", "password": "abcdefg1!"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "Password must contain at least one uppercase letter.", body.Errors["password"])

	rec = api.do(http.MethodPost, "/signup", map[string]string{"email": "a@example.com", "password": testPassword + strings.Repeat("x", 70)}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "Password must be at most 72 bytes long.", body.Errors["password"])

	rec = api.do(http.MethodPost, "/signup", map[string]interface{}{
		"email":         "  Ann@Example.COM ",
		"password":      testPassword,
		"first_name":    "Ann",
		"date_of_birth": "1990-04-02",
	}, "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var profile models.UserProfile
	decode(t, rec, &profile)
	assert.Equal(t, "ann@example.com", profile.Email)
	assert.Equal(t, "Ann", profile.FirstName)
	require.NotNil(t, profile.DateOfBirth)
	assert.Equal(t, "1990-04-02", *profile.DateOfBirth)
	assert.Nil(t, profile.ProfilePicture)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestSignupValidationErrors(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/signup", map[string]string{"email": "not-an-email", "password": testPassword, "date_of_birth": "02/04/1990"}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorsBody
	decode(t, rec, &body)
	assert.Equal(t, "Enter a valid email address.", body.Errors["email"])
	assert.Equal(t, "Date has wrong format. Use YYYY-MM-DD.", body.Errors["date_of_birth"])

	rec = api.do(http.MethodPost, "/signup", map[string]string{}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	decode(t, rec, &body)
	assert.Equal(t, "This field is required.", body.Errors["email"])
	assert.Equal(t, "This field is required.", body.Errors["password"])
}

func TestSignupDuplicateEmail(t *testing.T) {
	api := newTestAPI(t)
	api.register("dup@example.com")

	rec := api.do(http.MethodPost, "/signup", map[string]string{"email": "DUP@example.com", "password": testPassword}, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorsBody
	decode(t, rec, &body)
	assert.Equal(t, "Email is already in use.", body.Errors["email"])
}

func TestSignupMultipartWithPicture(t *testing.T) {
	api := newTestAPI(t)

	rec := api.upload(http.MethodPost, "/signup", map[string]string{
		"email":     "pic@example.com",
		"password":  testPassword,
		"last_name": "Lee",
	}, "profile_picture", "me.png", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var profile models.UserProfile
	decode(t, rec, &profile)
	assert.Equal(t, "Lee", profile.LastName)
	require.NotNil(t, profile.ProfilePicture)
	assert.True(t, api.media.has(*profile.ProfilePicture))

	rec = api.upload(http.MethodPost, "/signup", map[string]string{
		"email":    "doc@example.com",
		"password": testPassword,
	}, "profile_picture", "cv.pdf", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorsBody
	decode(t, rec, &body)
	assert.Contains(t, body.Errors, "profile_picture")
}

func TestLoginAndRefresh(t *testing.T) {
	api := newTestAPI(t)
	api.register("log@example.com")

	rec := api.do(http.MethodPost, "/login", map[string]string{"email": "log@example.com", "password": "Wrong123!"}, "")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	var body errorsBody
	decode(t, rec, &body)
	assert.Equal(t, "No active account found with the given credentials", body.Error)

	rec = api.do(http.MethodPost, "/login", map[string]string{"email": "nobody@example.com", "password": testPassword}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/login", map[string]string{"email": "LOG@example.com", "password": testPassword}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pair models.TokenPair
	decode(t, rec, &pair)
	require.NotEmpty(t, pair.Access)
	require.NotEmpty(t, pair.Refresh)

	rec = api.do(http.MethodPost, "/token/refresh", map[string]string{"refresh": pair.Refresh}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var access models.AccessToken
	decode(t, rec, &access)
	assert.NotEmpty(t, access.Access)

	// token types are not interchangeable
	rec = api.do(http.MethodPost, "/token/refresh", map[string]string{"refresh": pair.Access}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = api.do(http.MethodGet, "/profile", nil, pair.Refresh)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = api.do(http.MethodGet, "/profile", nil, access.Access)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestFirebaseLogin(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/firebase-login", map[string]string{"id_token": "good-token"}, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var pair models.TokenPair
	decode(t, rec, &pair)

	rec = api.do(http.MethodGet, "/profile", nil, pair.Access)
	require.Equal(t, http.StatusOK, rec.Code)
	var profile models.UserProfile
	decode(t, rec, &profile)
	assert.Equal(t, "fire@example.com", profile.Email)
	assert.Equal(t, "Fire", profile.FirstName)
	assert.Equal(t, "Base", profile.LastName)

	// a second login resolves to the same account
	rec = api.do(http.MethodPost, "/firebase-login", map[string]string{"id_token": "good-token"}, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, api.store.users, 1)

	rec = api.do(http.MethodPost, "/firebase-login", map[string]string{"id_token": "forged"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/firebase-login", map[string]string{"id_token": "no-email"}, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestFirebaseLoginLinksExistingEmail(t *testing.T) {
	api := newTestAPI(t)
	id, _ := api.register("fire@example.com")

	rec := api.do(http.MethodPost, "/firebase-login", map[string]string{"id_token": "good-token"}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	user, err := api.store.GetUserByFirebaseUID(context.Background(), "fb-1")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
}
