package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreatePostRequiresAuth(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(http.MethodPost, "/posts", map[string]string{"description": "hi"}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodPost, "/posts", map[string]string{"description": "hi"}, "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateAndGetPost(t *testing.T) {
	api := newTestAPI(t)
	authorID, token := api.register("author@example.com")

	post := api.createPost(token, "hello world")
	assert.Equal(t, authorID, post.User.ID)
	assert.Equal(t, "author@example.com", post.User.Email)
	assert.Equal(t, "hello world", post.Description)
	assert.Nil(t, post.Image)
	assert.Zero(t, post.LikesCount)
	assert.Zero(t, post.DislikesCount)
	assert.False(t, post.IsLiked)
	assert.False(t, post.IsDisliked)

	rec := api.do(http.MethodGet, fmt.Sprintf("/posts/%d", post.ID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got PostResponse
	decode(t, rec, &got)
	assert.Equal(t, post.ID, got.ID)
	assert.False(t, got.IsLiked)
	assert.False(t, got.IsDisliked)

	rec = api.do(http.MethodGet, "/posts/9999", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = api.do(http.MethodGet, "/posts/abc", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreatePostWithImage(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register("img@example.com")

	rec := api.upload(http.MethodPost, "/posts", map[string]string{"description": "sunset"}, "image", "sunset.jpg", token)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var post PostResponse
	decode(t, rec, &post)
	require.NotNil(t, post.Image)
	assert.True(t, api.media.has(*post.Image))
	assert.Equal(t, "sunset", post.Description)

	rec = api.upload(http.MethodPost, "/posts", nil, "image", "script.sh", token)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorsBody
	decode(t, rec, &body)
	assert.Contains(t, body.Errors, "image")
}

func TestListPostsFilterAndOrder(t *testing.T) {
	api := newTestAPI(t)
	aliceID, alice := api.register("alice@example.com")
	_, bob := api.register("bob@example.com")

	a1 := api.createPost(alice, "a1")
	api.createPost(bob, "b1")
	a2 := api.createPost(alice, "a2")

	rec := api.do(http.MethodGet, fmt.Sprintf("/posts?user_id=%d", aliceID), nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var posts []PostResponse
	decode(t, rec, &posts)
	require.Len(t, posts, 2)
	assert.Equal(t, a2.ID, posts[0].ID)
	assert.Equal(t, a1.ID, posts[1].ID)
	for _, p := range posts {
		assert.Equal(t, aliceID, p.User.ID)
	}

	rec = api.do(http.MethodGet, "/posts/", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &posts)
	assert.Len(t, posts, 3)

	rec = api.do(http.MethodGet, "/posts?skip=1&limit=1", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &posts)
	require.Len(t, posts, 1)
	assert.Equal(t, "b1", posts[0].Description)

	rec = api.do(http.MethodGet, "/posts?user_id=abc&limit=0", nil, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body errorsBody
	decode(t, rec, &body)
	assert.Contains(t, body.Errors, "user_id")
	assert.Contains(t, body.Errors, "limit")
}

func TestDeletePostOwnership(t *testing.T) {
	api := newTestAPI(t)
	_, owner := api.register("owner@example.com")
	_, other := api.register("other@example.com")

	rec := api.upload(http.MethodPost, "/posts", map[string]string{"description": "mine"}, "image", "mine.png", owner)
	require.Equal(t, http.StatusCreated, rec.Code)
	var post PostResponse
	decode(t, rec, &post)
	path := fmt.Sprintf("/posts/%d", post.ID)

	rec = api.do(http.MethodDelete, path, nil, other)
	require.Equal(t, http.StatusForbidden, rec.Code)
	var body errorsBody
	decode(t, rec, &body)
	assert.Equal(t, "You are not authorized to delete this post", body.Error)
	assert.Equal(t, http.StatusOK, api.do(http.MethodGet, path, nil, "").Code)

	rec = api.do(http.MethodDelete, path, nil, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(http.MethodDelete, path, nil, owner)
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, http.StatusNotFound, api.do(http.MethodGet, path, nil, "").Code)
	assert.False(t, api.media.has(*post.Image))

	rec = api.do(http.MethodDelete, path, nil, owner)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostsHaveNoEditRoute(t *testing.T) {
	api := newTestAPI(t)
	_, token := api.register("edit@example.com")
	post := api.createPost(token, "original")

	rec := api.do(http.MethodPut, fmt.Sprintf("/posts/%d", post.ID), map[string]string{"description": "changed"}, token)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
