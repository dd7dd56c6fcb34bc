package controllers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"blogd/config"
	"blogd/models"
	"blogd/routes"
	"blogd/utils"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type postView struct {
	models.Post
	LikeCount int64 `json:"like_count"`
	IsLiked   bool  `json:"is_liked"`
	IsSaved   bool  `json:"is_saved"`
}

func setupTestApp(t *testing.T) (*gorm.DB, *gin.Engine) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.Comment{},
		&models.Like{},
		&models.Follow{},
		&models.SavedPost{},
	))

	cfg := config.AppConfig{GinMode: "test", AllowedOrigins: []string{"*"}}
	tokens := utils.NewTokenManager("test-secret", time.Hour)
	return db, routes.SetupRouter(db, cfg, tokens)
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return w, env
}

func register(t *testing.T, r *gin.Engine, name, email, password string) models.User {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"phone":    "555-0100",
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.User
}

func login(t *testing.T, r *gin.Engine, email, password string) string {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func adminToken(t *testing.T, db *gorm.DB, r *gin.Engine) string {
	t.Helper()
	require.NoError(t, models.EnsureAdmin(db, "Admin User", "admin@example.com", "0000000000", "adminpassword"))
	return login(t, r, "admin@example.com", "adminpassword")
}

func createPost(t *testing.T, r *gin.Engine, token, title, content string) models.Post {
	t.Helper()
	w, env := do(t, r, http.MethodPost, "/api/v1/posts", token, gin.H{"title": title, "content": content})
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Post models.Post `json:"post"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Post
}

func toggle(t *testing.T, r *gin.Engine, token, path string) (int, bool) {
	t.Helper()
	w, env := do(t, r, http.MethodPost, path, token, nil)
	var data struct {
		Changed bool `json:"changed"`
	}
	if w.Code == http.StatusOK {
		require.NoError(t, json.Unmarshal(env.Data, &data))
	}
	return w.Code, data.Changed
}

func getPostView(t *testing.T, r *gin.Engine, token string, postID uint) postView {
	t.Helper()
	w, env := do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/posts/%d", postID), token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Post postView `json:"post"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Post
}

func TestRegisterAndLogin(t *testing.T) {
	_, r := setupTestApp(t)

	user := register(t, r, "Alice", "alice@example.com", "password1")
	require.NotZero(t, user.ID)
	require.False(t, user.IsAdmin)

	w, _ := do(t, r, http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Alice Again", "email": "alice@example.com", "password": "password2",
	})
	require.Equal(t, http.StatusConflict, w.Code)

	login(t, r, "alice@example.com", "password1")

	w, _ = do(t, r, http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "alice@example.com", "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	_, r := setupTestApp(t)
	register(t, r, "Alice", "alice@example.com", "password1")
	token := login(t, r, "alice@example.com", "password1")

	w, _ := do(t, r, http.MethodGet, "/api/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, _ = do(t, r, http.MethodGet, "/api/v1/auth/me", "garbage", nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := do(t, r, http.MethodGet, "/api/v1/auth/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		User models.User `json:"user"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, "alice@example.com", data.User.Email)
}

func TestDeletedAccountTokenIsUnauthorized(t *testing.T) {
	db, r := setupTestApp(t)
	bob := register(t, r, "Bob", "bob@example.com", "password1")
	bobToken := login(t, r, "bob@example.com", "password1")
	admin := adminToken(t, db, r)

	w, _ := do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", bob.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// a valid token whose subject no longer exists resolves as unauthenticated
	w, _ = do(t, r, http.MethodGet, "/api/v1/auth/me", bobToken, nil)
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLikeFlow(t *testing.T) {
	_, r := setupTestApp(t)
	register(t, r, "Alice", "alice@example.com", "password1")
	register(t, r, "Bob", "bob@example.com", "password1")
	aliceToken := login(t, r, "alice@example.com", "password1")
	bobToken := login(t, r, "bob@example.com", "password1")

	post := createPost(t, r, aliceToken, "P1", "content")
	likePath := fmt.Sprintf("/api/v1/posts/%d/like", post.ID)

	status, changed := toggle(t, r, bobToken, likePath)
	require.Equal(t, http.StatusOK, status)
	require.True(t, changed)

	// repeating the toggle is a success that changes nothing
	status, changed = toggle(t, r, bobToken, likePath)
	require.Equal(t, http.StatusOK, status)
	require.False(t, changed)

	view := getPostView(t, r, bobToken, post.ID)
	require.EqualValues(t, 1, view.LikeCount)
	require.True(t, view.IsLiked)

	status, changed = toggle(t, r, bobToken, fmt.Sprintf("/api/v1/posts/%d/unlike", post.ID))
	require.Equal(t, http.StatusOK, status)
	require.True(t, changed)

	view = getPostView(t, r, bobToken, post.ID)
	require.EqualValues(t, 0, view.LikeCount)
	require.False(t, view.IsLiked)

	status, _ = toggle(t, r, bobToken, "/api/v1/posts/99999/like")
	require.Equal(t, http.StatusNotFound, status)
}

func TestSaveFlow(t *testing.T) {
	_, r := setupTestApp(t)
	register(t, r, "Alice", "alice@example.com", "password1")
	register(t, r, "Bob", "bob@example.com", "password1")
	aliceToken := login(t, r, "alice@example.com", "password1")
	bobToken := login(t, r, "bob@example.com", "password1")

	post := createPost(t, r, aliceToken, "P1", "content")

	status, changed := toggle(t, r, bobToken, fmt.Sprintf("/api/v1/posts/%d/save", post.ID))
	require.Equal(t, http.StatusOK, status)
	require.True(t, changed)

	w, env := do(t, r, http.MethodGet, "/api/v1/users/me/saved", bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Items []models.Post `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Items, 1)
	require.Equal(t, post.ID, data.Items[0].ID)

	status, changed = toggle(t, r, bobToken, fmt.Sprintf("/api/v1/posts/%d/unsave", post.ID))
	require.Equal(t, http.StatusOK, status)
	require.True(t, changed)

	_, env = do(t, r, http.MethodGet, "/api/v1/users/me/saved", bobToken, nil)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Empty(t, data.Items)
}

func TestFollowFlow(t *testing.T) {
	_, r := setupTestApp(t)
	alice := register(t, r, "Alice", "alice@example.com", "password1")
	bob := register(t, r, "Bob", "bob@example.com", "password1")
	aliceToken := login(t, r, "alice@example.com", "password1")

	// self-follow is a malformed request, not a permissions failure
	status, _ := toggle(t, r, aliceToken, fmt.Sprintf("/api/v1/users/%d/follow", alice.ID))
	require.Equal(t, http.StatusBadRequest, status)

	status, changed := toggle(t, r, aliceToken, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID))
	require.Equal(t, http.StatusOK, status)
	require.True(t, changed)

	status, changed = toggle(t, r, aliceToken, fmt.Sprintf("/api/v1/users/%d/follow", bob.ID))
	require.Equal(t, http.StatusOK, status)
	require.False(t, changed)

	w, env := do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/followers", bob.ID), "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Items []models.User `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Items, 1)
	require.Equal(t, alice.ID, data.Items[0].ID)

	// alice's following set contains only bob
	_, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/v1/users/%d/following", alice.ID), "", nil)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Items, 1)
	require.Equal(t, bob.ID, data.Items[0].ID)

	status, _ = toggle(t, r, aliceToken, "/api/v1/users/99999/follow")
	require.Equal(t, http.StatusNotFound, status)
}

func TestDeletePostAuthorization(t *testing.T) {
	db, r := setupTestApp(t)
	register(t, r, "Alice", "alice@example.com", "password1")
	register(t, r, "Bob", "bob@example.com", "password1")
	aliceToken := login(t, r, "alice@example.com", "password1")
	bobToken := login(t, r, "bob@example.com", "password1")
	admin := adminToken(t, db, r)

	post := createPost(t, r, aliceToken, "P1", "content")
	path := fmt.Sprintf("/api/v1/posts/%d", post.ID)

	w, _ := do(t, r, http.MethodDelete, path, bobToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w, _ = do(t, r, http.MethodDelete, path, aliceToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	// admins may delete posts they do not own
	post = createPost(t, r, aliceToken, "P2", "content")
	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/posts/%d", post.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodDelete, "/api/v1/posts/99999", admin, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestComments(t *testing.T) {
	_, r := setupTestApp(t)
	register(t, r, "Alice", "alice@example.com", "password1")
	register(t, r, "Bob", "bob@example.com", "password1")
	aliceToken := login(t, r, "alice@example.com", "password1")
	bobToken := login(t, r, "bob@example.com", "password1")

	post := createPost(t, r, aliceToken, "P1", "content")

	w, env := do(t, r, http.MethodPost, fmt.Sprintf("/api/v1/posts/%d/comments", post.ID), bobToken, gin.H{"content": "nice"})
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Comment models.Comment `json:"comment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Equal(t, post.ID, data.Comment.PostID)

	view := getPostView(t, r, "", post.ID)
	require.Len(t, view.Comments, 1)

	// comments attach only to existing posts
	w, _ = do(t, r, http.MethodPost, "/api/v1/posts/99999/comments", bobToken, gin.H{"content": "nice"})
	require.Equal(t, http.StatusNotFound, w.Code)

	// owner of the comment may remove it, a stranger may not
	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", data.Comment.ID), aliceToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)
	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/comments/%d", data.Comment.ID), bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestFeedOrderAndOptionalAuth(t *testing.T) {
	_, r := setupTestApp(t)
	register(t, r, "Alice", "alice@example.com", "password1")
	aliceToken := login(t, r, "alice@example.com", "password1")

	first := createPost(t, r, aliceToken, "first", "content")
	time.Sleep(10 * time.Millisecond)
	second := createPost(t, r, aliceToken, "second", "content")

	// an invalid token on a read path behaves as anonymous
	w, env := do(t, r, http.MethodGet, "/api/v1/posts", "garbage", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var data struct {
		Items []postView `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Items, 2)
	require.Equal(t, second.ID, data.Items[0].ID)
	require.Equal(t, first.ID, data.Items[1].ID)
	require.False(t, data.Items[0].IsLiked)
}

func TestAdminSurface(t *testing.T) {
	db, r := setupTestApp(t)
	bob := register(t, r, "Bob", "bob@example.com", "password1")
	bobToken := login(t, r, "bob@example.com", "password1")
	admin := adminToken(t, db, r)

	w, _ := do(t, r, http.MethodGet, "/api/v1/admin/users", bobToken, nil)
	require.Equal(t, http.StatusForbidden, w.Code)

	w, env := do(t, r, http.MethodGet, "/api/v1/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var data struct {
		Items []models.User `json:"items"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.Len(t, data.Items, 2)

	// self-delete is rejected even though the admin check passes
	var adminUser models.User
	require.NoError(t, db.Where("email = ?", "admin@example.com").First(&adminUser).Error)
	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", adminUser.ID), admin, nil)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", bob.ID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/v1/admin/users/%d", bob.ID), admin, nil)
	require.Equal(t, http.StatusNotFound, w.Code)
}
