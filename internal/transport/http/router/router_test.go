package router

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"estate-listings/internal/core/auth"
	"estate-listings/internal/core/storage"
	"estate-listings/internal/domain"
	"estate-listings/internal/repo"
	"estate-listings/internal/service"
	"estate-listings/internal/testutil"
	"estate-listings/internal/transport/http/session"
)

type env struct {
	t        *testing.T
	h        http.Handler
	jwter    *auth.JWTer
	accounts *service.AccountService
	catalog  *service.CatalogService
	images   *storage.ImageStore
}

func newEnv(t *testing.T, tweak ...func(*Deps)) *env {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db, _ := testutil.NewDB(t)
	images, err := storage.NewImageStore(t.TempDir())
	require.NoError(t, err)

	e := &env{
		t:        t,
		jwter:    &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour},
		accounts: service.NewAccountService(repo.NewAccountRepo(db), zap.NewNop()),
		images:   images,
	}
	e.catalog = service.NewCatalogService(repo.NewListingRepo(db), images, nil, zap.NewNop())
	d := Deps{
		Log:            zap.NewNop(),
		Sessions:       session.NewManager(e.jwter, "session", false),
		Accounts:       e.accounts,
		Catalog:        e.catalog,
		UploadDir:      images.Dir(),
		MaxUploadBytes: 8 << 20,
		MaxConcurrency: 16,
		Timeout:        5 * time.Second,
	}
	for _, f := range tweak {
		f(&d)
	}
	e.h = NewEngine(d)
	return e
}

// browser keeps cookies across requests like a user agent would.
type browser struct {
	e       *env
	cookies map[string]*http.Cookie
}

func (e *env) browser() *browser { return &browser{e: e, cookies: map[string]*http.Cookie{}} }

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range b.cookies {
		req.AddCookie(ck)
	}
	w := httptest.NewRecorder()
	b.e.h.ServeHTTP(w, req)
	for _, ck := range w.Result().Cookies() {
		if ck.MaxAge < 0 {
			delete(b.cookies, ck.Name)
		} else {
			b.cookies[ck.Name] = ck
		}
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) upload(path string, fields map[string]string, names ...string) *httptest.ResponseRecorder {
	body, ct := testutil.MultipartBody(b.e.t, fields, "images", names...)
	req := httptest.NewRequest(http.MethodPost, path, body)
	req.Header.Set("Content-Type", ct)
	return b.do(req)
}

type page struct {
	Username string           `json:"username"`
	Role     domain.Role      `json:"role"`
	Flashes  []auth.Flash     `json:"flashes"`
	Rent     []domain.Listing `json:"rent"`
	Buy      []domain.Listing `json:"buy"`
	Listings []domain.Listing `json:"listings"`
	Listing  *domain.Listing  `json:"listing"`
}

type envelope struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data page   `json:"data"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return env
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, to string) {
	t.Helper()
	require.Equal(t, http.StatusSeeOther, w.Code, w.Body.String())
	assert.Equal(t, to, w.Header().Get("Location"))
}

func messages(fs []auth.Flash) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, f.Message)
	}
	return out
}

func creds(user, pw string) url.Values {
	return url.Values{"username": {user}, "password": {pw}, "confirm_password": {pw}}
}

// loggedIn registers username, optionally promotes it and returns a browser
// holding its session.
func (e *env) loggedIn(username string, admin bool) *browser {
	e.t.Helper()
	b := e.browser()
	assertRedirect(e.t, b.post("/register", creds(username, "pw")), "/login")
	b.get("/login") // drain the registration flash
	if admin {
		require.NoError(e.t, e.accounts.SetRole(context.Background(), username, domain.RoleAdmin))
	}
	assertRedirect(e.t, b.post("/login", creds(username, "pw")), "/")
	return b
}

var listingFields = map[string]string{
	"title": "Sunny flat", "address": "Main St 1", "rooms": "2",
	"price": "950.50", "description": "near the park", "type": "rent",
}

func TestRegisterLoginLogout(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	assertRedirect(t, b.post("/register", creds("alice", "pw1")), "/login")
	p := decode(t, b.get("/login")).Data
	assert.Equal(t, []string{"registration successful, please log in"}, messages(p.Flashes))

	assertRedirect(t, b.post("/register", creds("alice", "pw2")), "/register")
	p = decode(t, b.get("/register")).Data
	assert.Equal(t, []string{"user with this username already exists"}, messages(p.Flashes))
	n, err := e.accounts.Count(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	mismatch := url.Values{"username": {"bob"}, "password": {"a"}, "confirm_password": {"b"}}
	assertRedirect(t, b.post("/register", mismatch), "/register")
	assert.Equal(t, []string{"passwords do not match"}, messages(decode(t, b.get("/register")).Data.Flashes))

	assertRedirect(t, b.post("/register", creds("carol", strings.Repeat("p", 80))), "/register")
	assert.Equal(t, []string{"password must be at most 72 bytes"}, messages(decode(t, b.get("/register")).Data.Flashes))

	assertRedirect(t, b.post("/login", creds("alice", "pw2")), "/login")
	p = decode(t, b.get("/login")).Data
	assert.Empty(t, p.Username)
	assert.Equal(t, []string{"invalid username or password"}, messages(p.Flashes))

	assertRedirect(t, b.post("/login", creds("alice", "pw1")), "/")
	p = decode(t, b.get("/")).Data
	assert.Equal(t, "alice", p.Username)
	assert.Equal(t, domain.RoleUser, p.Role)

	assertRedirect(t, b.get("/logout"), "/")
	p = decode(t, b.get("/")).Data
	assert.Empty(t, p.Username)
	assert.Equal(t, []string{"you have been logged out"}, messages(p.Flashes))
}

func TestAnonymousAdminGoesToLogin(t *testing.T) {
	e := newEnv(t)
	b := e.browser()

	assertRedirect(t, b.get("/admin"), "/login")
	assert.Equal(t, []string{"please log in"}, messages(decode(t, b.get("/login")).Data.Flashes))
}

func TestNonAdminIsRedirectedToDashboard(t *testing.T) {
	e := newEnv(t)
	existing, err := e.catalog.Create(context.Background(),
		domain.ListingInput{Title: "Keep", Address: "A 1", Rooms: 1, Price: 1, Kind: domain.ListingBuy}, nil)
	require.NoError(t, err)

	b := e.loggedIn("alice", false)
	assertRedirect(t, b.get("/admin"), "/")
	p := decode(t, b.get("/")).Data
	assert.Equal(t, []string{"access denied"}, messages(p.Flashes))

	assertRedirect(t, b.upload("/admin/add", listingFields, "1.png"), "/")
	assertRedirect(t, b.post("/admin/delete/1", nil), "/")
	assertRedirect(t, b.post("/admin/edit/1", url.Values{"title": {"Hacked"}}), "/")

	all, err := e.catalog.All(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, existing.Title, all[0].Title)
	entries, err := os.ReadDir(e.images.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAdminAddKeepsSixImages(t *testing.T) {
	e := newEnv(t)
	b := e.loggedIn("root", true)

	uploaded := []string{"1.png", "2.jpg", "notes.txt", "3.jpeg", "4.gif", "todo.txt", "5.PNG", "6.png"}
	assertRedirect(t, b.upload("/admin/add", listingFields, uploaded...), "/admin")

	p := decode(t, b.get("/admin")).Data
	assert.Equal(t, []string{"listing added"}, messages(p.Flashes))
	require.Len(t, p.Listings, 1)
	assert.Equal(t, domain.RoleAdmin, p.Role)

	l := decode(t, b.get("/apartment/1")).Data.Listing
	require.NotNil(t, l)
	assert.Equal(t, "Sunny flat", l.Title)
	assert.Equal(t, 950.5, l.Price)
	assert.Equal(t, domain.ListingRent, l.Kind)
	require.Len(t, l.Images, domain.MaxImages)
	for _, name := range l.Images {
		assert.NotContains(t, uploaded, name)
		assert.NotEqual(t, ".txt", filepath.Ext(name))
		_, err := os.Stat(filepath.Join(e.images.Dir(), name))
		assert.NoError(t, err)
	}

	w := b.get("/uploads/" + l.Images[0])
	require.Equal(t, http.StatusOK, w.Code)
	body, _ := io.ReadAll(w.Body)
	assert.Equal(t, "content of 1.png", string(body))
}

func TestAdminAddRejectsBadNumbers(t *testing.T) {
	e := newEnv(t)
	b := e.loggedIn("root", true)

	fields := map[string]string{}
	for k, v := range listingFields {
		fields[k] = v
	}
	fields["rooms"] = "three"
	assertRedirect(t, b.upload("/admin/add", fields, "1.png"), "/admin/add")
	assert.Equal(t, []string{"rooms must be a whole number"}, messages(decode(t, b.get("/admin/add")).Data.Flashes))

	entries, err := os.ReadDir(e.images.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestAdminEditAndDelete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	l, err := e.catalog.Create(ctx,
		domain.ListingInput{Title: "Old", Address: "A 1", Rooms: 1, Price: 10, Kind: domain.ListingRent},
		testutil.FileHeaders(t, "a.png", "b.gif"))
	require.NoError(t, err)
	b := e.loggedIn("root", true)
	path := "/admin/edit/1"

	edited := url.Values{"title": {"New"}, "address": {"B 2"}, "rooms": {"3"}, "price": {"20"}, "type": {"buy"}}
	assertRedirect(t, b.post(path, edited), "/admin")
	got := decode(t, b.get(path)).Data.Listing
	require.NotNil(t, got)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, domain.ListingBuy, got.Kind)
	assert.Equal(t, l.Images, got.Images)

	edited.Set("type", "lease")
	assertRedirect(t, b.post(path, edited), path)
	assert.Equal(t, []string{"listing type must be rent or buy"}, messages(decode(t, b.get(path)).Data.Flashes))

	assertRedirect(t, b.post("/admin/delete/1", nil), "/admin")
	entries, err := os.ReadDir(e.images.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries)

	w := b.post("/admin/delete/1", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, http.StatusNotFound, b.get(path).Code)
}

func TestSearch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	for _, in := range []domain.ListingInput{
		{Title: "a", Address: "x", Rooms: 2, Price: 700, Kind: domain.ListingRent},
		{Title: "b", Address: "x", Rooms: 2, Price: 1500, Kind: domain.ListingRent},
		{Title: "c", Address: "x", Rooms: 2, Price: 800, Kind: domain.ListingBuy},
	} {
		_, err := e.catalog.Create(ctx, in, nil)
		require.NoError(t, err)
	}
	b := e.browser()

	w := b.post("/search", url.Values{"type": {"rent"}, "rooms": {"2"}, "price_min": {""}, "price_max": {"1000"}})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode(t, w).Data.Listings
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Title)

	assert.Len(t, decode(t, b.get("/search")).Data.Listings, 3)
	assert.Len(t, decode(t, b.get("/search?price_min=750")).Data.Listings, 2)

	assertRedirect(t, b.post("/search", url.Values{"price_min": {"cheap"}}), "/search")
	p := decode(t, b.get("/search")).Data
	assert.Equal(t, []string{"price_min must be a number"}, messages(p.Flashes))
	assert.Len(t, p.Listings, 3)
}

func TestDashboardBucketsAndDetail404(t *testing.T) {
	e := newEnv(t)
	_, err := e.catalog.Create(context.Background(),
		domain.ListingInput{Title: "r", Address: "x", Rooms: 1, Price: 1, Kind: domain.ListingRent}, nil)
	require.NoError(t, err)
	b := e.browser()

	p := decode(t, b.get("/")).Data
	assert.Len(t, p.Rent, 1)
	assert.NotNil(t, p.Buy)
	assert.Empty(t, p.Buy)

	for _, path := range []string{"/apartment/99", "/apartment/abc", "/nowhere"} {
		w := b.get(path)
		require.Equal(t, http.StatusNotFound, w.Code, path)
		env := decode(t, w)
		assert.Equal(t, 404, env.Code)
		assert.Equal(t, "not found", env.Msg)
	}
}

func TestDashboardClearsVanishedUser(t *testing.T) {
	e := newEnv(t)
	tok, err := e.jwter.Issue("ghost", nil)
	require.NoError(t, err)
	b := e.browser()
	b.cookies["session"] = &http.Cookie{Name: "session", Value: tok}

	p := decode(t, b.get("/")).Data
	assert.Empty(t, p.Username)
	assert.Equal(t, []string{"user not found"}, messages(p.Flashes))
	assert.NotContains(t, b.cookies, "session")
}

func TestLoginIsRateLimited(t *testing.T) {
	e := newEnv(t, func(d *Deps) {
		d.AuthRPS = 0.001
		d.AuthBurst = 2
	})
	b := e.browser()
	for i := 0; i < 2; i++ {
		assertRedirect(t, b.post("/login", creds("alice", "pw")), "/login")
	}
	assert.Equal(t, http.StatusTooManyRequests, b.post("/login", creds("alice", "pw")).Code)
	assert.Equal(t, http.StatusOK, b.get("/login").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newEnv(t)
	b := e.browser()
	assert.Equal(t, http.StatusOK, b.get("/health").Code)

	w := b.get("/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}
