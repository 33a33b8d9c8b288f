package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"civicsync/controllers"
	"civicsync/middlewares"
	"civicsync/models"
	"civicsync/services"
	"civicsync/storage"
	"civicsync/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const password = "secret123"

func init() {
	gin.SetMode(gin.TestMode)
}

type server struct {
	t      *testing.T
	router *gin.Engine
	store  *testutil.MemStore
	auth   *services.AuthService
}

// serverSetup adjusts the defaults used by newServer.
type serverSetup struct {
	options    controllers.Options
	origins    []string
	uploadsDir string
}

func newServer(t *testing.T, dailyLimit int) *server {
	return newServerWith(t, dailyLimit, serverSetup{})
}

func newServerWith(t *testing.T, dailyLimit int, setup serverSetup) *server {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var blobs services.BlobStore = testutil.NewMemBlobs()
	if setup.uploadsDir != "" {
		local, err := storage.NewLocalStore(setup.uploadsDir, "http://civic.test")
		require.NoError(t, err)
		blobs = local
	}

	opts := setup.options
	opts.RequestTimeout = 5 * time.Second
	opts.MaxUploadBytes = 1 << 20

	log := zap.NewNop()
	store := testutil.NewMemStore()
	auth := services.NewAuthService(store, testutil.NewMemRevoker(), services.AuthConfig{
		Secret:   "test-secret",
		TokenTTL: time.Hour,
	}, log)
	issues := services.NewIssueService(store, blobs, log)
	router, err := NewRouter(Dependencies{
		Auth:           auth,
		Issues:         issues,
		Dashboards:     services.NewDashboardService(issues, store, log),
		Quota:          middlewares.NewIssueQuota(client, "issue_limit", dailyLimit),
		Options:        opts,
		AllowedOrigins: setup.origins,
		UploadsDir:     setup.uploadsDir,
		Log:            log,
	})
	require.NoError(t, err)
	return &server{t: t, router: router, store: store, auth: auth}
}

// token signs in a profile created with the given role.
func (s *server) token(name string, role models.Role) (string, *models.Profile) {
	s.t.Helper()
	profile := s.store.AddProfile(name, strings.ToLower(name)+"@civic.test", role, password)
	session, err := s.auth.SignIn(context.Background(), profile.Email, password)
	require.NoError(s.t, err)
	return session.Token, profile
}

func (s *server) do(method, target, token string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: token})
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *server) json(method, target, token string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(s.t, err)
		body = bytes.NewReader(raw)
	}
	return s.do(method, target, token, body, "application/json")
}

func (s *server) form(target, token string, values url.Values) *httptest.ResponseRecorder {
	return s.do(http.MethodPost, target, token, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded")
}

func (s *server) multipart(target, token string, fields map[string]string, fileField string, file []byte) *httptest.ResponseRecorder {
	return s.upload(target, token, fields, fileField, "photo.png", file)
}

func (s *server) upload(target, token string, fields map[string]string, fileField, filename string, file []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(s.t, mw.WriteField(k, v))
	}
	if file != nil {
		part, err := mw.CreateFormFile(fileField, filename)
		require.NoError(s.t, err)
		_, err = part.Write(file)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())
	return s.do(http.MethodPost, target, token, &buf, mw.FormDataContentType())
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

var pothole = map[string]string{
	"title":       "Pothole on Elm St",
	"description": "Deep enough to lose a wheel",
	"category":    "Roads",
	"location":    "Elm St & 5th",
}

func TestRouterBasics(t *testing.T) {
	s := newServer(t, 10)

	t.Run("ping", func(t *testing.T) {
		w := s.do(http.MethodGet, "/ping", "", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"pong"}`, w.Body.String())
	})

	t.Run("unknown api path", func(t *testing.T) {
		w := s.do(http.MethodGet, "/api/nope", "", nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"error"`)
	})

	t.Run("unknown page falls back home", func(t *testing.T) {
		w := s.do(http.MethodGet, "/somewhere/else", "", nil, "")
		assert.Equal(t, http.StatusFound, w.Code)
		assert.Equal(t, "/", w.Header().Get("Location"))
	})

	t.Run("home renders", func(t *testing.T) {
		w := s.do(http.MethodGet, "/", "", nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "CivicSync")
	})
}

func TestAuthAPI(t *testing.T) {
	s := newServer(t, 10)

	w := s.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@civic.test", "password": password,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var session struct {
		Token   string         `json:"token"`
		Profile models.Profile `json:"profile"`
	}
	decode(t, w, &session)
	assert.Equal(t, models.RoleCitizen, session.Profile.Role)
	assert.NotContains(t, w.Body.String(), "password")
	assert.NotEmpty(t, w.Result().Cookies())

	w = s.json(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name": "Alice", "email": "alice@civic.test", "password": password,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.JSONEq(t, `{"error":"User with this email already exists"}`, w.Body.String())

	w = s.json(http.MethodPost, "/api/auth/register", "", map[string]string{"name": "Bob", "email": "nope", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.json(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "alice@civic.test", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"error":"Invalid credentials"}`, w.Body.String())

	w = s.json(http.MethodGet, "/api/auth/me", session.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "alice@civic.test")

	w = s.json(http.MethodPost, "/api/auth/logout", session.Token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = s.json(http.MethodGet, "/api/auth/me", session.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthorityPortalRejectsCitizens(t *testing.T) {
	s := newServer(t, 10)
	s.store.AddProfile("Alice", "alice@civic.test", models.RoleCitizen, password)
	s.store.AddProfile("Officer", "officer@civic.test", models.RoleAuthority, password)

	t.Run("api", func(t *testing.T) {
		w := s.json(http.MethodPost, "/api/auth/authority/login", "", map[string]string{
			"email": "alice@civic.test", "password": password,
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"Only Authority members can access this portal"}`, w.Body.String())
		cookies := w.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "", cookies[0].Value)
		assert.Less(t, cookies[0].MaxAge, 0)

		w = s.json(http.MethodPost, "/api/auth/authority/login", "", map[string]string{
			"email": "officer@civic.test", "password": password,
		})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("page", func(t *testing.T) {
		w := s.form("/authority/login", "", url.Values{"email": {"alice@civic.test"}, "password": {password}})
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Only Authority members can access this portal")

		w = s.form("/authority/login", "", url.Values{"email": {"officer@civic.test"}, "password": {password}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/authority", w.Header().Get("Location"))
	})
}

func TestIssueAPI(t *testing.T) {
	s := newServer(t, 2)
	alice, _ := s.token("Alice", models.RoleCitizen)
	bob, _ := s.token("Bob", models.RoleCitizen)
	officer, _ := s.token("Officer", models.RoleAuthority)

	w := s.multipart("/api/issues", alice, pothole, "image", testutil.PNG)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var issue models.Issue
	decode(t, w, &issue)
	assert.Equal(t, models.StatusOpen, issue.Status)
	require.NotNil(t, issue.ImageURL)
	id := issue.ID.Hex()

	t.Run("listed open with no upvotes", func(t *testing.T) {
		w := s.json(http.MethodGet, "/api/issues?category=Roads&status=All", bob, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var list []services.IssueSummary
		decode(t, w, &list)
		require.Len(t, list, 1)
		assert.Equal(t, "Pothole on Elm St", list[0].Title)
		assert.Equal(t, int64(0), list[0].Upvotes)

		w = s.json(http.MethodGet, "/api/issues?category=Road", bob, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = s.json(http.MethodGet, "/api/issues", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("category binding rule", func(t *testing.T) {
		fields := map[string]string{"title": "t", "description": "d", "category": "Road", "location": "l"}
		w := s.multipart("/api/issues", bob, fields, "", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("daily limit", func(t *testing.T) {
		w := s.multipart("/api/issues", alice, pothole, "", nil)
		assert.Equal(t, http.StatusCreated, w.Code)
		w = s.multipart("/api/issues", alice, pothole, "", nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
	})

	t.Run("upvote toggles", func(t *testing.T) {
		var res services.UpvoteResult
		w := s.json(http.MethodPost, "/api/issues/"+id+"/upvote", bob, nil)
		decode(t, w, &res)
		assert.Equal(t, services.UpvoteResult{Upvoted: true, Upvotes: 1}, res)
		w = s.json(http.MethodPost, "/api/issues/"+id+"/upvote", bob, nil)
		decode(t, w, &res)
		assert.Equal(t, services.UpvoteResult{Upvoted: false, Upvotes: 0}, res)
	})

	t.Run("verify twice conflicts", func(t *testing.T) {
		w := s.json(http.MethodPost, "/api/issues/"+id+"/verify", bob, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		w = s.json(http.MethodPost, "/api/issues/"+id+"/verify", bob, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("comments", func(t *testing.T) {
		w := s.json(http.MethodPost, "/api/issues/"+id+"/comments", bob, map[string]string{"content": "Still there"})
		assert.Equal(t, http.StatusCreated, w.Code)
		w = s.json(http.MethodPost, "/api/issues/"+id+"/comments", bob, map[string]string{"content": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("status updates", func(t *testing.T) {
		w := s.json(http.MethodPut, "/api/issues/"+id+"/status", bob, map[string]string{"status": "IN_PROGRESS"})
		assert.Equal(t, http.StatusForbidden, w.Code)

		w = s.json(http.MethodPut, "/api/issues/"+id+"/status", officer, map[string]string{"status": "OPEN"})
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = s.json(http.MethodPut, "/api/issues/"+id+"/status", officer, map[string]string{"status": "IN_PROGRESS", "comment": "Crew dispatched"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.json(http.MethodPut, "/api/issues/"+id+"/status", officer, map[string]string{"status": "IN_PROGRESS"})
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("details", func(t *testing.T) {
		w := s.json(http.MethodGet, "/api/issues/"+id, bob, nil)
		require.Equal(t, http.StatusOK, w.Code)
		var details services.IssueDetails
		decode(t, w, &details)
		assert.Equal(t, models.StatusInProgress, details.Issue.Status)
		assert.Len(t, details.Comments, 2)
		assert.Len(t, details.History, 2)
		assert.False(t, details.CanVerify)

		assert.Equal(t, http.StatusBadRequest, s.json(http.MethodGet, "/api/issues/not-an-id", bob, nil).Code)
		assert.Equal(t, http.StatusNotFound, s.json(http.MethodGet, "/api/issues/0123456789abcdef01234567", bob, nil).Code)
	})
}

func TestRoleChangeAppliesImmediately(t *testing.T) {
	s := newServer(t, 10)
	admin, _ := s.token("Root", models.RoleAdmin)
	alice, profile := s.token("Alice", models.RoleCitizen)

	assert.Equal(t, http.StatusOK, s.json(http.MethodGet, "/api/dashboard/citizen", alice, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.json(http.MethodGet, "/api/dashboard/authority", alice, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.json(http.MethodGet, "/api/users", alice, nil).Code)

	w := s.json(http.MethodPut, "/api/users/"+profile.ID.Hex()+"/role", admin, map[string]string{"role": "AUTHORITY"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusOK, s.json(http.MethodGet, "/api/dashboard/authority", alice, nil).Code)
	assert.Equal(t, http.StatusForbidden, s.json(http.MethodGet, "/api/dashboard/citizen", alice, nil).Code)

	w = s.json(http.MethodGet, "/api/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.json(http.MethodGet, "/api/dashboard/admin", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var dash services.AdminDashboard
	decode(t, w, &dash)
	assert.Equal(t, 1, dash.RoleCounts[models.RoleAuthority])
	assert.Equal(t, 0.0, dash.ResolutionRate)

	w = s.json(http.MethodPut, "/api/users/"+profile.ID.Hex()+"/role", admin, map[string]string{"role": "MAYOR"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPages(t *testing.T) {
	s := newServer(t, 1)
	alice, _ := s.token("Alice", models.RoleCitizen)
	officer, _ := s.token("Officer", models.RoleAuthority)
	admin, _ := s.token("Root", models.RoleAdmin)

	t.Run("gates", func(t *testing.T) {
		w := s.do(http.MethodGet, "/issues", "", nil, "")
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/login", w.Header().Get("Location"))

		w = s.do(http.MethodGet, "/dashboard/admin", alice, nil, "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Access denied")
		assert.Contains(t, w.Body.String(), `href="/issues"`)

		w = s.do(http.MethodGet, "/login", alice, nil, "")
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/citizen", w.Header().Get("Location"))
	})

	t.Run("sign up and sign in", func(t *testing.T) {
		w := s.form("/signup", "", url.Values{"name": {"Dana"}, "email": {"dana@civic.test"}, "password": {password}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/citizen", w.Header().Get("Location"))

		w = s.form("/login", "", url.Values{"email": {"dana@civic.test"}, "password": {"wrong"}})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "Invalid credentials")

		w = s.form("/login", "", url.Values{"email": {"root@civic.test"}, "password": {password}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/dashboard/admin", w.Header().Get("Location"))
	})

	var issueID string
	t.Run("report", func(t *testing.T) {
		w := s.do(http.MethodGet, "/report", alice, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)

		w = s.multipart("/report", alice, pothole, "image", testutil.PNG)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Contains(t, w.Body.String(), `content="2;url=/issues"`)

		w = s.multipart("/report", alice, pothole, "", nil)
		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		assert.Contains(t, w.Body.String(), "report limit")

		issues, err := s.store.ListIssues(context.Background(), models.IssueFilter{})
		require.NoError(t, err)
		require.Len(t, issues, 1)
		issueID = issues[0].ID.Hex()
	})

	t.Run("list and details", func(t *testing.T) {
		w := s.do(http.MethodGet, "/issues?sort=upvotes", alice, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Pothole on Elm St")
		assert.Contains(t, w.Body.String(), "OPEN")

		w = s.do(http.MethodGet, "/issues/"+issueID, alice, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "I can confirm this issue")

		w = s.do(http.MethodGet, "/issues/0123456789abcdef01234567", alice, nil, "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("issue actions", func(t *testing.T) {
		w := s.form("/issues/"+issueID+"/upvote", alice, url.Values{"return_to": {"/issues?sort=upvotes"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/issues?sort=upvotes", w.Header().Get("Location"))

		w = s.form("/issues/"+issueID+"/upvote", alice, url.Values{"return_to": {"//evil.test"}})
		assert.Equal(t, "/issues/"+issueID, w.Header().Get("Location"))

		w = s.form("/issues/"+issueID+"/verify", alice, nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		w = s.form("/issues/"+issueID+"/verify", alice, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "already verified")

		w = s.form("/issues/"+issueID+"/comments", alice, url.Values{"content": {"Please fix"}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
	})

	t.Run("authority dashboard", func(t *testing.T) {
		w := s.multipart("/dashboard/authority/issues/"+issueID+"/status", officer,
			map[string]string{"status": "RESOLVED", "comment": "Filled"}, "proof", testutil.PNG)
		assert.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())

		w = s.form("/dashboard/authority/issues/"+issueID+"/status", officer, url.Values{"status": {"IN_PROGRESS"}})
		assert.Equal(t, http.StatusConflict, w.Code)

		w = s.do(http.MethodGet, "/dashboard/authority", officer, nil, "")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Pothole on Elm St")
	})

	t.Run("dashboards", func(t *testing.T) {
		w := s.do(http.MethodGet, "/dashboard/citizen", alice, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Bronze Reporter")

		w = s.do(http.MethodGet, "/dashboard/admin", admin, nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "100%")
	})

	t.Run("logout", func(t *testing.T) {
		w := s.form("/logout", alice, nil)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		w = s.do(http.MethodGet, "/issues", alice, nil, "")
		assert.Equal(t, http.StatusSeeOther, w.Code)
	})
}

func TestUploadsAreServedAsImages(t *testing.T) {
	s := newServerWith(t, 5, serverSetup{uploadsDir: t.TempDir()})
	alice, _ := s.token("Alice", models.RoleCitizen)

	payload := append(append([]byte{}, testutil.PNG...), []byte("<script>alert(document.cookie)</script>")...)
	w := s.upload("/api/issues", alice, pothole, "image", "x.html", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var issue models.Issue
	decode(t, w, &issue)
	require.NotNil(t, issue.ImageURL)
	assert.True(t, strings.HasSuffix(*issue.ImageURL, ".png"), *issue.ImageURL)

	link, err := url.Parse(*issue.ImageURL)
	require.NoError(t, err)
	w = s.do(http.MethodGet, link.Path, "", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
}

func TestCrossSiteRequestsRejected(t *testing.T) {
	s := newServerWith(t, 5, serverSetup{
		options: controllers.Options{Production: true},
		origins: []string{"https://app.civic.test"},
	})
	admin, _ := s.token("Root", models.RoleAdmin)
	_, eve := s.token("Eve", models.RoleCitizen)
	rolePath := "/dashboard/admin/profiles/" + eve.ID.Hex() + "/role"

	post := func(target, origin, site string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(url.Values{"role": {"ADMIN"}}.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.Header.Set("Origin", origin)
		if site != "" {
			req.Header.Set("Sec-Fetch-Site", site)
		}
		req.AddCookie(&http.Cookie{Name: middlewares.SessionCookie, Value: admin})
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		return w
	}
	roleOf := func() models.Role {
		profile, err := s.store.FindProfileByID(context.Background(), eve.ID)
		require.NoError(t, err)
		return profile.Role
	}

	t.Run("production cookie is cross-site", func(t *testing.T) {
		w := s.form("/login", "", url.Values{"email": {"root@civic.test"}, "password": {password}})
		require.Equal(t, http.StatusSeeOther, w.Code)
		cookie := w.Header().Get("Set-Cookie")
		assert.Contains(t, cookie, "SameSite=None")
		assert.Contains(t, cookie, "Secure")
	})

	t.Run("form post from another site", func(t *testing.T) {
		w := post(rolePath, "https://evil.test", "cross-site")
		assert.Equal(t, http.StatusForbidden, w.Code)
		w = post(rolePath, "https://evil.test", "")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Equal(t, models.RoleCitizen, roleOf())
	})

	t.Run("api post from another site", func(t *testing.T) {
		w := post("/api/issues/000000000000000000000000/upvote", "https://evil.test", "cross-site")
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Cross-origin request rejected")
	})

	t.Run("trusted origin reaches the api", func(t *testing.T) {
		w := post("/api/issues/000000000000000000000000/upvote", "https://app.civic.test", "cross-site")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("same-origin form post", func(t *testing.T) {
		w := post(rolePath, "http://example.com", "same-origin")
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, models.RoleAdmin, roleOf())
	})
}
