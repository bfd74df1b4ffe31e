package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	iauth "github.com/eventplaza/eventplaza/internal/auth"
	"github.com/eventplaza/eventplaza/internal/database/testutil"
	"github.com/eventplaza/eventplaza/internal/flash"
	"github.com/eventplaza/eventplaza/internal/models"
	"github.com/eventplaza/eventplaza/internal/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fixture struct {
	router *gin.Engine
	db     *gorm.DB
	mailer *stubMailer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	users, err := services.NewUserService(db)
	require.NoError(t, err)
	events, err := services.NewEventService(db)
	require.NoError(t, err)
	tasks, err := services.NewTaskService(db)
	require.NoError(t, err)

	sessions, err := iauth.NewSessionService(db, iauth.SessionConfig{})
	require.NoError(t, err)
	tokens, err := iauth.NewResetTokenService(iauth.ResetTokenConfig{Secret: "router-test"})
	require.NoError(t, err)

	mailer := &stubMailer{}
	verifier, err := services.NewVerificationService(db, mailer, "http://localhost:8080")
	require.NoError(t, err)
	resets, err := services.NewPasswordResetService(db, users, sessions, tokens, mailer, "http://localhost:8080")
	require.NoError(t, err)

	router, err := NewRouter(Deps{
		Users:    users,
		Events:   events,
		Tasks:    tasks,
		Verifier: verifier,
		Resets:   resets,
		Sessions: sessions,
	})
	require.NoError(t, err)

	return &fixture{router: router, db: db, mailer: mailer}
}

// client keeps cookies across requests like a browser would.
type client struct {
	t       *testing.T
	router  *gin.Engine
	cookies map[string]string
}

func newClient(t *testing.T, router *gin.Engine) *client {
	return &client{t: t, router: router, cookies: map[string]string{}}
}

func (cl *client) do(method, path string, form url.Values) *httptest.ResponseRecorder {
	cl.t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for name, value := range cl.cookies {
		req.AddCookie(&http.Cookie{Name: name, Value: value})
	}

	rec := httptest.NewRecorder()
	cl.router.ServeHTTP(rec, req)

	for _, cookie := range rec.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(cl.cookies, cookie.Name)
			continue
		}
		cl.cookies[cookie.Name] = cookie.Value
	}

	return rec
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(http.MethodGet, path, nil)
}

func (cl *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	return cl.do(http.MethodPost, path, form)
}

func signupAndVerify(t *testing.T, f *fixture, cl *client, email string) {
	t.Helper()

	rec := cl.post("/signup", url.Values{
		"first_name":       {"Alice"},
		"last_name":        {"Doe"},
		"email":            {email},
		"password":         {"s3cret-pass"},
		"confirm_password": {"s3cret-pass"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	var user models.User
	require.NoError(t, f.db.Where("email = ?", email).Take(&user).Error)

	rec = cl.get("/verify/" + user.EmailToken)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))
}

func login(t *testing.T, cl *client, email string) {
	t.Helper()

	rec := cl.post("/login", url.Values{
		"email":    {email},
		"password": {"s3cret-pass"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/home", rec.Header().Get("Location"))
}

func TestSignupVerifyLoginFlow(t *testing.T) {
	f := newFixture(t)
	cl := newClient(t, f.router)

	rec := cl.post("/signup", url.Values{
		"first_name":       {"Alice"},
		"last_name":        {"Doe"},
		"email":            {"alice@example.com"},
		"password":         {"s3cret-pass"},
		"confirm_password": {"s3cret-pass"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Len(t, f.mailer.sent(), 1)

	// Login works before verification, but the app gates on /verify.
	rec = cl.post("/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"s3cret-pass"},
	})
	require.Equal(t, http.StatusFound, rec.Code)

	rec = cl.get("/home")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/verify", rec.Header().Get("Location"))

	// Follow the emailed link, then the gate opens.
	var user models.User
	require.NoError(t, f.db.Where("email = ?", "alice@example.com").Take(&user).Error)
	rec = cl.get("/verify/" + user.EmailToken)
	require.Equal(t, http.StatusFound, rec.Code)

	rec = cl.get("/home")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":true`)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newFixture(t)
	cl := newClient(t, f.router)
	signupAndVerify(t, f, cl, "alice@example.com")

	rec := cl.post("/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"wrong-pass"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/login", rec.Header().Get("Location"))

	rec = cl.get("/home")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "/login")
}

func TestProtectedRoutesRequireLogin(t *testing.T) {
	f := newFixture(t)
	cl := newClient(t, f.router)

	for _, path := range []string{"/home", "/create_event", "/profile"} {
		rec := cl.get(path)
		require.Equal(t, http.StatusFound, rec.Code, path)
		require.Contains(t, rec.Header().Get("Location"), "/login", path)
	}
}

func TestEventDashboardFlow(t *testing.T) {
	f := newFixture(t)
	cl := newClient(t, f.router)
	signupAndVerify(t, f, cl, "alice@example.com")
	login(t, cl, "alice@example.com")

	rec := cl.post("/create_event", url.Values{
		"name":        {"GopherCon"},
		"description": {"The Go conference"},
		"location":    {"Berlin"},
	})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/GopherCon/dashboard", rec.Header().Get("Location"))

	rec = cl.get("/GopherCon/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = cl.post("/GopherCon/dashboard/create_task", url.Values{
		"name":        {"Book venue"},
		"description": {"Room for 300"},
	})
	require.Equal(t, http.StatusFound, rec.Code)

	var task models.Task
	require.NoError(t, f.db.Where("name = ?", "Book venue").Take(&task).Error)

	rec = cl.get("/GopherCon/dashboard/task/" + itoa(task.ID) + "/review")
	require.Equal(t, http.StatusFound, rec.Code)

	rec = cl.get("/GopherCon/dashboard/pendingreview")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Book venue")

	rec = cl.get("/GopherCon/dashboard/task/" + itoa(task.ID) + "/done")
	require.Equal(t, http.StatusFound, rec.Code)

	rec = cl.get("/GopherCon/dashboard/done")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "Book venue")
}

func TestDashboardRequiresOrganizer(t *testing.T) {
	f := newFixture(t)

	organizer := newClient(t, f.router)
	signupAndVerify(t, f, organizer, "alice@example.com")
	login(t, organizer, "alice@example.com")

	rec := organizer.post("/create_event", url.Values{
		"name":        {"GopherCon"},
		"description": {"The Go conference"},
	})
	require.Equal(t, http.StatusFound, rec.Code)

	outsider := newClient(t, f.router)
	signupAndVerify(t, f, outsider, "bob@example.com")
	login(t, outsider, "bob@example.com")

	rec = outsider.get("/GopherCon/dashboard")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/home", rec.Header().Get("Location"))

	// A manager invite still does not open the dashboard.
	rec = organizer.post("/GopherCon/dashboard/add_member", url.Values{
		"email": {"bob@example.com"},
		"role":  {"manager"},
	})
	require.Equal(t, http.StatusFound, rec.Code)

	rec = outsider.get("/GopherCon/dashboard")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/home", rec.Header().Get("Location"))

	// An organizer invite does.
	rec = organizer.post("/GopherCon/dashboard/add_member", url.Values{
		"email": {"bob@example.com"},
		"role":  {"organizer"},
	})
	require.Equal(t, http.StatusFound, rec.Code)

	rec = outsider.get("/GopherCon/dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestSignoutRevokesSession(t *testing.T) {
	f := newFixture(t)
	cl := newClient(t, f.router)
	signupAndVerify(t, f, cl, "alice@example.com")
	login(t, cl, "alice@example.com")

	rec := cl.get("/signout")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))

	rec = cl.get("/home")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Contains(t, rec.Header().Get("Location"), "/login")
}

func TestResendVerificationMail(t *testing.T) {
	f := newFixture(t)
	cl := newClient(t, f.router)

	rec := cl.post("/signup", url.Values{
		"first_name":       {"Alice"},
		"last_name":        {"Doe"},
		"email":            {"alice@example.com"},
		"password":         {"s3cret-pass"},
		"confirm_password": {"s3cret-pass"},
	})
	require.Equal(t, http.StatusFound, rec.Code)

	rec = cl.post("/login", url.Values{
		"email":    {"alice@example.com"},
		"password": {"s3cret-pass"},
	})
	require.Equal(t, http.StatusFound, rec.Code)

	rec = cl.post("/verify", nil)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/verify", rec.Header().Get("Location"))
	require.Len(t, f.mailer.sent(), 2)
}

func TestGuestOnlyPagesRedirectWhenLoggedIn(t *testing.T) {
	f := newFixture(t)
	cl := newClient(t, f.router)
	signupAndVerify(t, f, cl, "alice@example.com")
	login(t, cl, "alice@example.com")

	for _, path := range []string{"/login", "/signup", "/reset_password"} {
		rec := cl.get(path)
		require.Equal(t, http.StatusFound, rec.Code, path)
		require.Equal(t, "/home", rec.Header().Get("Location"), path)

		flashed := false
		for _, cookie := range rec.Result().Cookies() {
			if cookie.Name == flash.CookieName && cookie.Value != "" {
				flashed = true
			}
		}
		require.True(t, flashed, path)
	}

	// The reset action is gated too, so no mail goes out for logged-in users.
	before := len(f.mailer.sent())
	rec := cl.post("/reset_password", url.Values{"email": {"alice@example.com"}})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/home", rec.Header().Get("Location"))
	require.Len(t, f.mailer.sent(), before)
}

func TestSignupFailsWhenMailDeliveryFails(t *testing.T) {
	f := newFixture(t)
	cl := newClient(t, f.router)
	f.mailer.fail(errors.New("smtp: connection refused"))

	rec := cl.post("/signup", url.Values{
		"first_name":       {"Alice"},
		"last_name":        {"Doe"},
		"email":            {"alice@example.com"},
		"password":         {"s3cret-pass"},
		"confirm_password": {"s3cret-pass"},
	})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":false`)
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	f := newFixture(t)
	cl := newClient(t, f.router)

	rec := cl.get("/no/such/page")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"success":false`)
}

func TestHealthAndMetricsExposed(t *testing.T) {
	f := newFixture(t)
	cl := newClient(t, f.router)

	rec := cl.get("/health")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = cl.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "eventplaza_")
}
