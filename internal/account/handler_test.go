package account

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/avion00/medicare-backend/pkg/auth"
	"github.com/avion00/medicare-backend/pkg/logging"
	"github.com/avion00/medicare-backend/pkg/testutil"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerFixture struct {
	store  *memoryStore
	mailer *recordingMailer
	router *gin.Engine
	jwt    *testutil.JWTTestHelper
}

func newHandlerFixture() *handlerFixture {
	f := &handlerFixture{
		store:  newMemoryStore(),
		mailer: &recordingMailer{},
		jwt:    testutil.NewJWTTestHelper(),
	}
	svc := NewService(f.store, f.jwt.Secret, WithBcryptCost(4), WithMailer(f.mailer))
	h := NewHandler(svc, logging.NewDiscardLogger())

	f.router = gin.New()
	RegisterPublicRoutes(f.router, h)
	protected := f.router.Group("/")
	protected.Use(auth.JWTAuthMiddleware(f.jwt.Secret))
	RegisterRoutes(protected, h)
	return f
}

func (f *handlerFixture) do(method, path string, body any, header string) (*httptest.ResponseRecorder, map[string]any) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

var adaForm = map[string]any{
	"first_name":         "Ada",
	"last_name":          "Lovelace",
	"username":           "ada",
	"email":              "ada@example.com",
	"password":           "engine",
	"country_code":       "+44",
	"mobile_number":      "555",
	"medicare_bot_usage": "clinic front desk",
	"package":            "pro",
}

func TestRegisterAndLogin(t *testing.T) {
	f := newHandlerFixture()

	w, body := f.do(http.MethodPost, "/register", adaForm, "")
	if w.Code != http.StatusOK {
		t.Fatalf("register: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if body["success"] != true || body["message"] != "User registered successfully" {
		t.Fatalf("unexpected register body %v", body)
	}
	if u := f.store.users[1]; u.BotUsage != "clinic front desk" || u.Package != "pro" {
		t.Fatalf("optional fields not stored: %+v", u)
	}

	w, body = f.do(http.MethodPost, "/login", map[string]string{"username": "ada", "password": "engine"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", w.Code)
	}
	token, _ := body["token"].(string)
	if body["message"] != "Login successful" || token == "" {
		t.Fatalf("unexpected login body %v", body)
	}

	w, body = f.do(http.MethodGet, "/dashboard", nil, testutil.BearerHeader(token))
	if w.Code != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", w.Code)
	}
	if body["message"] != "Welcome to your dashboard, User 1!" {
		t.Fatalf("unexpected dashboard body %v", body)
	}
}

func TestRegisterErrors(t *testing.T) {
	f := newHandlerFixture()

	w, _ := f.do(http.MethodPost, "/register", map[string]string{"username": "ada"}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing fields: expected 400, got %d", w.Code)
	}

	if w, _ := f.do(http.MethodPost, "/register", adaForm, ""); w.Code != http.StatusOK {
		t.Fatalf("first register: %d", w.Code)
	}
	w, body := f.do(http.MethodPost, "/register", adaForm, "")
	if w.Code != http.StatusBadRequest || body["error"] != "User already exists" {
		t.Fatalf("duplicate: expected 400 User already exists, got %d %v", w.Code, body)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	f := newHandlerFixture()
	f.do(http.MethodPost, "/register", adaForm, "")

	w, body := f.do(http.MethodPost, "/login", map[string]string{"username": "ada", "password": "nope"}, "")
	if w.Code != http.StatusUnauthorized || body["error"] != "Invalid credentials" {
		t.Fatalf("expected 401 Invalid credentials, got %d %v", w.Code, body)
	}
}

func TestPasswordResetEndpoints(t *testing.T) {
	f := newHandlerFixture()
	f.do(http.MethodPost, "/register", adaForm, "")

	w, _ := f.do(http.MethodPost, "/request_password_reset", map[string]string{"email": "nobody@example.com"}, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("unknown email: expected 404, got %d", w.Code)
	}

	w, body := f.do(http.MethodPost, "/request_password_reset", map[string]string{"email": "ada@example.com"}, "")
	if w.Code != http.StatusOK || body["message"] != "Password reset link has been sent to your email." {
		t.Fatalf("request reset: got %d %v", w.Code, body)
	}
	token := tokenFromLink(t, f.mailer.sent[0].body)

	w, _ = f.do(http.MethodPost, "/reset_password", map[string]string{"token": token}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing password: expected 400, got %d", w.Code)
	}

	w, _ = f.do(http.MethodPost, "/reset_password", map[string]string{"token": "bogus", "new_password": "x"}, "")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bogus token: expected 400, got %d", w.Code)
	}

	w, body = f.do(http.MethodPost, "/reset_password", map[string]string{"token": token, "new_password": "analytical"}, "")
	if w.Code != http.StatusOK || body["message"] != "Password has been reset successfully." {
		t.Fatalf("reset: got %d %v", w.Code, body)
	}

	w, _ = f.do(http.MethodPost, "/login", map[string]string{"username": "ada", "password": "analytical"}, "")
	if w.Code != http.StatusOK {
		t.Fatalf("login after reset: expected 200, got %d", w.Code)
	}
}

func TestDashboardRequiresSession(t *testing.T) {
	f := newHandlerFixture()

	if w, _ := f.do(http.MethodGet, "/dashboard", nil, ""); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}

	expired, err := f.jwt.GenerateExpiredJWT(1)
	if err != nil {
		t.Fatalf("token: %v", err)
	}
	if w, _ := f.do(http.MethodGet, "/dashboard", nil, testutil.BearerHeader(expired)); w.Code != http.StatusUnauthorized {
		t.Fatalf("expired token: expected 401, got %d", w.Code)
	}
}
