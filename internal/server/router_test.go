package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"jeeforces/configs"
	"jeeforces/internal/models"
	"jeeforces/internal/services"
	"jeeforces/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type testApp struct {
	router *gin.Engine
	stores *testutil.Stores
	tokens *services.TokenService
	mailer *testutil.Mailer
	queue  *testutil.Queue
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &configs.Config{
		BaseURL:           "https://jeeforces.test",
		SessionTTL:        time.Hour,
		VerifyTokenTTL:    24 * time.Hour,
		VerifyRedirectURL: "/sign-in?verified=true",
		CORSOrigins:       []string{"http://localhost:3000"},
	}
	stores := testutil.NewStores()
	tokens := services.NewTokenService("test-secret", cfg.SessionTTL)
	mailer := testutil.NewMailer()
	queue := &testutil.Queue{}
	windows := testutil.NewWindowStore()
	users := services.NewUserService(stores.Users, testutil.NewCache())

	router := NewRouter(Deps{
		Config:         cfg,
		Sessions:       services.NewSessionResolver(tokens),
		Auth:           services.NewAuthService(stores.Users, tokens, mailer, cfg.VerifyTokenTTL, cfg.BaseURL),
		Users:          users,
		Problems:       services.NewProblemService(stores.Problems, stores.Submissions, stores.Contests),
		Contests:       services.NewContestService(stores.Contests, stores.Problems, stores.Submissions, stores.Users),
		Discussions:    services.NewDiscussionService(stores.Discussions, stores.Users),
		Reports:        services.NewReportService(stores.Reports, stores.Users),
		Ratings:        services.NewRatingService(stores.Contests, stores.Users, queue, users),
		GeneralLimiter: services.NewGeneralLimiter(windows),
		AgentLimiter:   services.NewAgentLimiter(windows),
	})

	return &testApp{router: router, stores: stores, tokens: tokens, mailer: mailer, queue: queue}
}

// user stores a verified user and returns its id and an Authorization header value.
func (a *testApp) user(t *testing.T, username, role string) (primitive.ObjectID, string) {
	t.Helper()
	u := &models.User{Username: username, Email: username + "@example.com", Role: role, IsVerified: true, Rating: models.DefaultRating}
	require.NoError(t, a.stores.Users.CreateUser(context.Background(), u))
	token, err := a.tokens.GenerateSessionToken(u.ID.Hex(), u.Username, role)
	require.NoError(t, err)
	return u.ID, "Bearer " + token
}

func (a *testApp) do(method, path string, body any, auth string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealth(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestCommentRequiresText(t *testing.T) {
	app := newTestApp(t)
	_, auth := app.user(t, "ravi", models.RoleUser)

	w := app.do(http.MethodPost, "/api/discussions/abc123/comment", map[string]any{}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Comment text is required"}`, w.Body.String())

	req := httptest.NewRequest(http.MethodPost, "/api/discussions/abc123/comment", strings.NewReader(`{"text":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", auth)
	w = httptest.NewRecorder()
	app.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Comment text is required"}`, w.Body.String(), "a truncated body counts as missing text")

	w = app.do(http.MethodPost, "/api/discussions/abc123/comment", map[string]any{"text": "hi"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodPost, "/api/discussions/abc123/comment", map[string]any{"text": "hi"}, auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Discussion not found"}`, w.Body.String())
}

func TestDiscussionFlow(t *testing.T) {
	app := newTestApp(t)
	_, alice := app.user(t, "alice", models.RoleUser)
	_, bob := app.user(t, "bob", models.RoleUser)

	w := app.do(http.MethodPost, "/api/discussions", map[string]any{"title": "Thermo doubt", "content": "Is dU path independent?"}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["discussion"].(map[string]any)["_id"].(string)

	w = app.do(http.MethodPost, "/api/discussions/"+id+"/comment", map[string]any{"text": "Yes, state function"}, bob)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comments := decode(t, w)["discussion"].(map[string]any)["comments"].([]any)
	require.Len(t, comments, 1)
	comment := comments[0].(map[string]any)
	assert.Equal(t, "bob", comment["author"].(map[string]any)["username"])

	w = app.do(http.MethodPost, "/api/discussions/"+id+"/comments/"+comment["_id"].(string)+"/reply", map[string]any{"text": "thanks"}, alice)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(http.MethodGet, "/api/discussions/"+id, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	replies := decode(t, w)["discussion"].(map[string]any)["comments"].([]any)[0].(map[string]any)["replies"].([]any)
	require.Len(t, replies, 1)
	assert.Equal(t, "alice", replies[0].(map[string]any)["author"].(map[string]any)["username"])

	w = app.do(http.MethodGet, "/api/discussions", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["discussions"], 1)
}

func TestUnknownUserProfile(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/api/users/unknown_user", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"User not found"}`, w.Body.String())
}

func TestPublicProfileAndCount(t *testing.T) {
	app := newTestApp(t)
	app.user(t, "ravi", models.RoleUser)

	w := app.do(http.MethodGet, "/api/users/ravi", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "ravi", body["username"])
	assert.NotContains(t, body, "email")
	assert.NotContains(t, body, "password")

	w = app.do(http.MethodGet, "/api/user/count", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1}`, w.Body.String())
}

func TestUpdateProfile(t *testing.T) {
	app := newTestApp(t)
	_, auth := app.user(t, "ravi", models.RoleUser)

	w := app.do(http.MethodPost, "/api/update-profile", map[string]any{"username": "ravi_k"}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodPost, "/api/update-profile", map[string]any{"username": "ravi_k", "avatar": "a.png"}, auth)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"All fields are required"}`, w.Body.String())

	w = app.do(http.MethodPost, "/api/update-profile", map[string]any{
		"username": "ravi_k", "avatar": "a.png", "institute": "IIT Bombay", "yearofstudy": "12",
	}, auth)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "ravi_k", decode(t, w)["user"].(map[string]any)["username"])

	w = app.do(http.MethodGet, "/api/users/ravi_k", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthFlow(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodPost, "/api/auth/sign-up", map[string]any{"username": "ravi", "email": "ravi@example.com", "password": "correct-horse"}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(http.MethodPost, "/api/auth/sign-up", map[string]any{"username": "ravi", "email": "ravi2@example.com", "password": "correct-horse"}, "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = app.do(http.MethodPost, "/api/auth/sign-in", map[string]any{"email": "ravi@example.com", "password": "correct-horse"}, "")
	assert.Equal(t, http.StatusForbidden, w.Code)

	link, err := url.Parse(app.mailer.Links["ravi@example.com"])
	require.NoError(t, err)
	verifyPath := link.Path + "?" + link.RawQuery

	w = app.do(http.MethodGet, verifyPath, nil, "")
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/sign-in?verified=true", w.Header().Get("Location"))

	w = app.do(http.MethodGet, verifyPath, nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Invalid token"}`, w.Body.String())

	w = app.do(http.MethodPost, "/api/auth/sign-in", map[string]any{"email": "ravi@example.com", "password": "correct-horse"}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var session *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == services.SessionCookieName {
			session = c
		}
	}
	require.NotNil(t, session)
	assert.True(t, session.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/session", nil)
	req.AddCookie(session)
	rec := httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ravi", decode(t, rec)["user"].(map[string]any)["username"])

	// A signed-in visitor is sent away from the sign-in page.
	req = httptest.NewRequest(http.MethodGet, "/sign-in", nil)
	req.AddCookie(session)
	rec = httptest.NewRecorder()
	app.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.Equal(t, "/dashboard", rec.Header().Get("Location"))

	w = app.do(http.MethodPost, "/api/auth/sign-out", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Set-Cookie"), services.SessionCookieName+"=;")

	w = app.do(http.MethodGet, "/api/auth/session", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyRejectsMissingToken(t *testing.T) {
	app := newTestApp(t)
	w := app.do(http.MethodGet, "/api/auth/verify", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSignUpIsRateLimited(t *testing.T) {
	app := newTestApp(t)
	for i := 0; i < 5; i++ {
		w := app.do(http.MethodPost, "/api/auth/sign-up", map[string]any{"username": "x"}, "")
		require.Equal(t, http.StatusBadRequest, w.Code)
	}

	w := app.do(http.MethodPost, "/api/auth/sign-up", map[string]any{"username": "x"}, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Too many requests"}`, w.Body.String())
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
}

func createProblem(t *testing.T, app *testApp, admin string) string {
	t.Helper()
	w := app.do(http.MethodPost, "/api/problems", map[string]any{
		"title":         "Electrostatics 1",
		"description":   "Field of a ring",
		"difficulty":    2,
		"score":         4,
		"tags":          []string{"Physics"},
		"options":       []string{"0", "kQ/r^2", "kQx/(r^2+x^2)^1.5", "infinite"},
		"correctOption": 2,
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	problem := decode(t, w)["problem"].(map[string]any)
	assert.NotContains(t, problem, "correctOption")
	return problem["_id"].(string)
}

func TestProblemsAndSubmissions(t *testing.T) {
	app := newTestApp(t)
	_, admin := app.user(t, "admin", models.RoleAdmin)
	_, user := app.user(t, "ravi", models.RoleUser)

	w := app.do(http.MethodPost, "/api/problems", map[string]any{"title": "x"}, user)
	assert.Equal(t, http.StatusForbidden, w.Code)

	id := createProblem(t, app, admin)

	w = app.do(http.MethodGet, "/api/problems?tag=physics&difficulty=2", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	problems := decode(t, w)["problems"].([]any)
	require.Len(t, problems, 1)
	assert.Equal(t, "Medium", problems[0].(map[string]any)["difficultyLabel"])
	assert.NotContains(t, problems[0], "correctOption")

	w = app.do(http.MethodGet, "/api/problems?difficulty=9", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/problems/"+id, nil, "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/api/problems/nope", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Problem not found"}`, w.Body.String())

	w = app.do(http.MethodPost, "/api/problems/"+id+"/submit", map[string]any{"selectedOptions": []int{2}}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodPost, "/api/problems/"+id+"/submit", map[string]any{"selectedOptions": []int{2}}, user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	sub := decode(t, w)["submission"].(map[string]any)
	assert.Equal(t, models.VerdictCorrect, sub["verdict"])
	assert.EqualValues(t, 4, sub["score"])

	w = app.do(http.MethodPost, "/api/problems/"+id+"/submit", map[string]any{"selectedOptions": []int{7}}, user)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(http.MethodGet, "/api/problems/"+id+"/submissions", nil, user)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["submissions"], 1)
}

func TestContestRegistrationAndRatings(t *testing.T) {
	app := newTestApp(t)
	_, admin := app.user(t, "admin", models.RoleAdmin)
	ravi, user := app.user(t, "ravi", models.RoleUser)
	problemID := createProblem(t, app, admin)

	now := time.Now().UTC()
	w := app.do(http.MethodPost, "/api/contests", map[string]any{
		"title":     "JEE Main Mock",
		"startTime": now.Add(-time.Hour).Format(time.RFC3339),
		"endTime":   now.Add(time.Hour).Format(time.RFC3339),
		"problems":  []string{problemID},
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	contestID := decode(t, w)["contest"].(map[string]any)["_id"].(string)
	registerPath := "/api/contests/" + contestID + "/register"

	w = app.do(http.MethodPost, registerPath, nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodPost, registerPath, nil, user)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodPost, registerPath, nil, user)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Already registered"}`, w.Body.String())

	w = app.do(http.MethodPost, "/api/contests/"+primitive.NewObjectID().Hex()+"/register", nil, user)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Contest not found"}`, w.Body.String())

	w = app.do(http.MethodPost, "/api/problems/"+problemID+"/submit", map[string]any{"selectedOptions": []int{2}, "contestId": contestID}, user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = app.do(http.MethodGet, "/api/contests/"+contestID+"/leaderboard", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	board := decode(t, w)["leaderboard"].([]any)
	require.Len(t, board, 1)
	assert.Equal(t, "ravi", board[0].(map[string]any)["username"])
	assert.EqualValues(t, 4, board[0].(map[string]any)["score"])

	w = app.do(http.MethodGet, "/api/contests", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "running", decode(t, w)["contests"].([]any)[0].(map[string]any)["status"])

	ratingsPath := "/api/admin/contests/" + contestID + "/ratings"
	updates := map[string]any{"updates": []map[string]any{{"userId": ravi.Hex(), "rating": 1320}}}

	w = app.do(http.MethodPost, ratingsPath, updates, user)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodPost, ratingsPath, updates, admin)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	assert.Equal(t, 1, app.queue.Len())
}

func TestReports(t *testing.T) {
	app := newTestApp(t)
	_, admin := app.user(t, "admin", models.RoleAdmin)
	_, user := app.user(t, "ravi", models.RoleUser)
	app.user(t, "spammer", models.RoleUser)

	w := app.do(http.MethodPost, "/api/reports", map[string]any{"type": "Report", "message": "spam", "reportedUsername": "spammer"}, user)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["report"].(map[string]any)["_id"].(string)

	w = app.do(http.MethodPost, "/api/reports", map[string]any{"type": "Report", "message": "spam", "reportedUsername": "ghost"}, user)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = app.do(http.MethodGet, "/api/admin/reports?status=Open", nil, user)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = app.do(http.MethodGet, "/api/admin/reports?status=Open", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["reports"], 1)

	w = app.do(http.MethodPatch, "/api/admin/reports/"+id+"/close", nil, admin)
	assert.Equal(t, http.StatusOK, w.Code)

	w = app.do(http.MethodGet, "/api/admin/reports?status=Open", nil, admin)
	assert.Len(t, decode(t, w)["reports"], 0)
}

func TestAgentPracticeSetIsRateLimited(t *testing.T) {
	app := newTestApp(t)
	_, admin := app.user(t, "admin", models.RoleAdmin)
	_, user := app.user(t, "ravi", models.RoleUser)
	createProblem(t, app, admin)

	w := app.do(http.MethodPost, "/api/agent/practice-set", map[string]any{"count": 3}, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = app.do(http.MethodPost, "/api/agent/practice-set", map[string]any{"count": 3, "tags": []string{"physics"}}, user)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decode(t, w)["problems"], 1)

	w = app.do(http.MethodPost, "/api/agent/practice-set", map[string]any{"count": 3}, user)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestRobotsAndSitemap(t *testing.T) {
	app := newTestApp(t)

	w := app.do(http.MethodGet, "/robots.txt", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "User-agent: *")
	assert.Contains(t, w.Body.String(), "Allow: /")
	assert.Contains(t, w.Body.String(), "Sitemap: https://jeeforces.test/sitemap.xml")

	w = app.do(http.MethodGet, "/sitemap.xml", nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Equal(t, 6, strings.Count(body, "<url>"))
	for _, route := range []string{"/", "/problems", "/contests", "/discussions", "/sign-in", "/sign-up"} {
		assert.Contains(t, body, "<loc>https://jeeforces.test"+route+"</loc>")
	}
}

func TestPageGuard(t *testing.T) {
	app := newTestApp(t)
	_, user := app.user(t, "ravi", models.RoleUser)

	w := app.do(http.MethodGet, "/admin", nil, "")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = app.do(http.MethodGet, "/problems/create", nil, user)
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/dashboard", w.Header().Get("Location"))

	w = app.do(http.MethodGet, "/practice", nil, "")
	assert.Equal(t, http.StatusTemporaryRedirect, w.Code)
	assert.Equal(t, "/sign-in", w.Header().Get("Location"))

	w = app.do(http.MethodGet, "/api/nothing-here", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, w.Body.String())
}
