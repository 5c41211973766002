package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"imagedrop/api/internal/config"
	"imagedrop/api/internal/handlers"
	"imagedrop/api/internal/security"
	"imagedrop/api/internal/service"
	"imagedrop/api/internal/session"
	"imagedrop/api/internal/storage"
)

const testPassword = "open sesame"

func testConfig(t *testing.T, authEnabled bool) *config.AppConfig {
	t.Helper()

	publicDir := filepath.Join(t.TempDir(), "public")
	if err := os.MkdirAll(publicDir, 0o755); err != nil {
		t.Fatalf("mkdir public: %v", err)
	}
	for _, page := range []string{"index.html", "login.html"} {
		if err := os.WriteFile(filepath.Join(publicDir, page), []byte("<html></html>"), 0o644); err != nil {
			t.Fatalf("write %s: %v", page, err)
		}
	}

	cfg := &config.AppConfig{
		Environment: "test",
		HTTP:        config.HTTPConfig{PublicDir: publicDir},
		Storage:     config.StorageConfig{Backend: "local", Dir: t.TempDir()},
		Upload:      config.UploadConfig{MaxFileSize: 5 * 1024 * 1024, MaxFiles: 10},
		Session: config.SessionConfig{
			Store:  "memory",
			Secret: "test-secret",
			TTL:    24 * time.Hour,
		},
		Auth: config.AuthConfig{Enabled: authEnabled},
	}

	if authEnabled {
		hash, err := security.HashPassword(testPassword)
		if err != nil {
			t.Fatalf("HashPassword failed: %v", err)
		}
		cfg.Auth.Users = []config.UserCredential{
			{ID: "u1", Username: "admin", PasswordHash: string(hash)},
		}
	}

	return cfg
}

func testEngine(t *testing.T, cfg *config.AppConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := storage.NewLocalBackend(cfg.Storage.Dir)
	if err := store.EnsureReady(context.Background()); err != nil {
		t.Fatalf("EnsureReady failed: %v", err)
	}

	var (
		sessions    session.Store
		authService *service.AuthService
	)
	if cfg.Auth.Enabled {
		sessions = session.NewMemoryStore()
		users, err := service.NewStaticUsers(cfg.Auth.Users)
		if err != nil {
			t.Fatalf("NewStaticUsers failed: %v", err)
		}
		authService = service.NewAuthService(users, sessions, security.VerifyPassword, cfg.Session.TTL, zerolog.Nop())
	}

	engine := gin.New()
	handlers.NewHandlerSet(zerolog.Nop(), cfg, store, sessions, authService).Register(engine)
	return engine
}

type formFile struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

func multipartRequest(t *testing.T, path string, files []formFile) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, file := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="%s"; filename="%s"`, file.field, file.filename))
		header.Set("Content-Type", file.contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(file.content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func do(engine *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestUploadSingle(t *testing.T) {
	engine := testEngine(t, testConfig(t, false))

	req := multipartRequest(t, "/upload", []formFile{
		{field: "image", filename: "cat.png", contentType: "image/png", content: []byte("pngdata")},
	})
	rec := do(engine, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	if body["success"] != true {
		t.Fatalf("success = %v", body["success"])
	}
	if body["originalName"] != "cat.png" {
		t.Fatalf("originalName = %v", body["originalName"])
	}
	filename, _ := body["filename"].(string)
	if !strings.HasSuffix(filename, ".png") {
		t.Fatalf("filename = %q, extension not preserved", filename)
	}
	imageURL, _ := body["imageUrl"].(string)
	if !strings.HasPrefix(imageURL, "http://") || !strings.Contains(imageURL, "/uploads/"+filename) {
		t.Fatalf("imageUrl = %q", imageURL)
	}
	if body["size"] != float64(len("pngdata")) {
		t.Fatalf("size = %v", body["size"])
	}
}

func TestUploadSingleNoFile(t *testing.T) {
	engine := testEngine(t, testConfig(t, false))

	req := multipartRequest(t, "/upload", nil)
	rec := do(engine, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["success"] != false || body["message"] == "" {
		t.Fatalf("body = %v", body)
	}
}

func TestUploadSingleWrongType(t *testing.T) {
	engine := testEngine(t, testConfig(t, false))

	req := multipartRequest(t, "/upload", []formFile{
		{field: "image", filename: "doc.pdf", contentType: "application/pdf", content: []byte("%PDF")},
	})
	rec := do(engine, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	body := decodeBody(t, rec)
	message, _ := body["message"].(string)
	if !strings.Contains(message, "unsupported file type") {
		t.Fatalf("message = %q", message)
	}
}

func TestUploadSingleTooLarge(t *testing.T) {
	engine := testEngine(t, testConfig(t, false))

	req := multipartRequest(t, "/upload", []formFile{
		{field: "image", filename: "huge.png", contentType: "image/png",
			content: bytes.Repeat([]byte("a"), 5*1024*1024+1)},
	})
	rec := do(engine, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	message, _ := decodeBody(t, rec)["message"].(string)
	if !strings.Contains(message, "too large") {
		t.Fatalf("oversized upload message = %q, want the dedicated size message", message)
	}
}

func TestUploadMultiple(t *testing.T) {
	engine := testEngine(t, testConfig(t, false))

	req := multipartRequest(t, "/upload-multiple", []formFile{
		{field: "images", filename: "a.png", contentType: "image/png", content: []byte("a")},
		{field: "images", filename: "b.gif", contentType: "image/gif", content: []byte("bb")},
	})
	rec := do(engine, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	images, _ := body["images"].([]any)
	if len(images) != 2 {
		t.Fatalf("images = %v", body["images"])
	}
	first, _ := images[0].(map[string]any)
	if first["originalName"] != "a.png" {
		t.Fatalf("order not preserved: %v", images)
	}
}

func TestUploadMultipleNoFiles(t *testing.T) {
	engine := testEngine(t, testConfig(t, false))

	rec := do(engine, multipartRequest(t, "/upload-multiple", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestUploadMultipleTooMany(t *testing.T) {
	engine := testEngine(t, testConfig(t, false))

	files := make([]formFile, 11)
	for i := range files {
		files[i] = formFile{
			field: "images", filename: fmt.Sprintf("f%d.png", i),
			contentType: "image/png", content: []byte("x"),
		}
	}

	rec := do(engine, multipartRequest(t, "/upload-multiple", files))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for 11 files", rec.Code)
	}
	message, _ := decodeBody(t, rec)["message"].(string)
	if !strings.Contains(message, "too many files") {
		t.Fatalf("message = %q", message)
	}
}

func TestListImagesAndServe(t *testing.T) {
	cfg := testConfig(t, false)
	engine := testEngine(t, cfg)

	rec := do(engine, multipartRequest(t, "/upload", []formFile{
		{field: "image", filename: "cat.png", contentType: "image/png", content: []byte("pngdata")},
	}))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload failed: %s", rec.Body.String())
	}
	filename, _ := decodeBody(t, rec)["filename"].(string)

	rec = do(engine, httptest.NewRequest(http.MethodGet, "/images", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	images, _ := body["images"].([]any)
	if len(images) != 1 {
		t.Fatalf("images = %v", body["images"])
	}
	entry, _ := images[0].(map[string]any)
	if entry["filename"] != filename {
		t.Fatalf("listed %v, want %s", entry["filename"], filename)
	}
	if _, hasDate := entry["uploadDate"]; !hasDate {
		t.Fatal("uploadDate missing from catalog entry")
	}

	rec = do(engine, httptest.NewRequest(http.MethodGet, "/uploads/"+filename, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("serve status = %d", rec.Code)
	}
	if rec.Body.String() != "pngdata" {
		t.Fatalf("served bytes = %q", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "image/png") {
		t.Fatalf("Content-Type = %q", ct)
	}

	rec = do(engine, httptest.NewRequest(http.MethodGet, "/uploads/missing.png", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing file status = %d, want 404", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	engine := testEngine(t, testConfig(t, false))

	rec := do(engine, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["storage"] != "ok" {
		t.Fatalf("storage = %v", body["storage"])
	}
}

func TestHealthDoesNotCreateStorage(t *testing.T) {
	cfg := testConfig(t, false)
	dir := filepath.Join(t.TempDir(), "uploads")
	cfg.Storage.Dir = dir

	gin.SetMode(gin.TestMode)
	engine := gin.New()
	handlers.NewHandlerSet(zerolog.Nop(), cfg, storage.NewLocalBackend(dir), nil, nil).Register(engine)

	rec := do(engine, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["storage"] != "error" {
		t.Fatalf("storage = %v, want error", body["storage"])
	}

	if _, err := os.Stat(dir); !os.IsNotExist(err) {
		t.Fatalf("health check touched the storage directory: %v", err)
	}
}

func login(t *testing.T, engine *gin.Engine, username, password string) *httptest.ResponseRecorder {
	t.Helper()
	payload, _ := json.Marshal(map[string]string{"username": username, "password": password})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return do(engine, req)
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == security.SessionCookieName {
			return cookie
		}
	}
	t.Fatal("session cookie not set")
	return nil
}

func TestAuthGateRedirectsPages(t *testing.T) {
	engine := testEngine(t, testConfig(t, true))

	rec := do(engine, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusFound {
		t.Fatalf("status = %d, want 302", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/login" {
		t.Fatalf("Location = %q, want /login", loc)
	}
}

func TestAuthGateRejectsAPI(t *testing.T) {
	engine := testEngine(t, testConfig(t, true))

	for _, path := range []string{"/images"} {
		rec := do(engine, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("GET %s = %d, want 401", path, rec.Code)
		}
		body := decodeBody(t, rec)
		if body["success"] != false {
			t.Fatalf("body = %v", body)
		}
	}

	rec := do(engine, multipartRequest(t, "/upload", []formFile{
		{field: "image", filename: "cat.png", contentType: "image/png", content: []byte("x")},
	}))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("POST /upload = %d, want 401", rec.Code)
	}
}

func TestLoginValidation(t *testing.T) {
	engine := testEngine(t, testConfig(t, true))

	payload := bytes.NewReader([]byte(`{"username":"admin"}`))
	req := httptest.NewRequest(http.MethodPost, "/login", payload)
	req.Header.Set("Content-Type", "application/json")

	rec := do(engine, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("missing password = %d, want 400", rec.Code)
	}
}

func TestLoginFailuresIdentical(t *testing.T) {
	engine := testEngine(t, testConfig(t, true))

	wrongPassword := login(t, engine, "admin", "wrong")
	unknownUser := login(t, engine, "nouser", "anything")

	if wrongPassword.Code != http.StatusUnauthorized || unknownUser.Code != http.StatusUnauthorized {
		t.Fatalf("statuses = %d, %d; want 401, 401", wrongPassword.Code, unknownUser.Code)
	}

	messageA := decodeBody(t, wrongPassword)["message"]
	messageB := decodeBody(t, unknownUser)["message"]
	if messageA != messageB {
		t.Fatalf("failure messages differ: %q vs %q", messageA, messageB)
	}
}

func TestLoginLogoutFlow(t *testing.T) {
	engine := testEngine(t, testConfig(t, true))

	rec := login(t, engine, "admin", testPassword)
	if rec.Code != http.StatusOK {
		t.Fatalf("login = %d, body %s", rec.Code, rec.Body.String())
	}

	body := decodeBody(t, rec)
	user, _ := body["user"].(map[string]any)
	if user["username"] != "admin" || user["id"] != "u1" {
		t.Fatalf("user payload = %v", user)
	}

	cookie := sessionCookie(t, rec)
	if !cookie.HttpOnly {
		t.Fatal("session cookie is not HttpOnly")
	}

	// Authenticated catalog access succeeds.
	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	req.AddCookie(cookie)
	if rec := do(engine, req); rec.Code != http.StatusOK {
		t.Fatalf("authenticated /images = %d", rec.Code)
	}

	// Logged-in visitors of the login page bounce back to the entry page.
	req = httptest.NewRequest(http.MethodGet, "/login", nil)
	req.AddCookie(cookie)
	if rec := do(engine, req); rec.Code != http.StatusFound || rec.Header().Get("Location") != "/" {
		t.Fatalf("authenticated /login = %d -> %q", rec.Code, rec.Header().Get("Location"))
	}

	// Logout destroys the session.
	req = httptest.NewRequest(http.MethodPost, "/logout", nil)
	req.AddCookie(cookie)
	rec = do(engine, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("logout = %d", rec.Code)
	}
	if decodeBody(t, rec)["success"] != true {
		t.Fatalf("logout body = %s", rec.Body.String())
	}

	// The old cookie no longer authenticates anything.
	req = httptest.NewRequest(http.MethodGet, "/images", nil)
	req.AddCookie(cookie)
	if rec := do(engine, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("post-logout /images = %d, want 401", rec.Code)
	}
}

func TestForgedCookieRejected(t *testing.T) {
	engine := testEngine(t, testConfig(t, true))

	forged, err := security.SignSessionID("attacker-secret", "made-up", time.Hour)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/images", nil)
	req.AddCookie(&http.Cookie{Name: security.SessionCookieName, Value: forged})
	if rec := do(engine, req); rec.Code != http.StatusUnauthorized {
		t.Fatalf("forged cookie = %d, want 401", rec.Code)
	}
}

func TestServeUploadNeverGated(t *testing.T) {
	cfg := testConfig(t, true)
	engine := testEngine(t, cfg)

	if err := os.WriteFile(filepath.Join(cfg.Storage.Dir, "seed.png"), []byte("seed"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	rec := do(engine, httptest.NewRequest(http.MethodGet, "/uploads/seed.png", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("ungated serve = %d, want 200", rec.Code)
	}
}
