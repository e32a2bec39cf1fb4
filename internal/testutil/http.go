package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/stratarecruit/internal/app/system/auth"
	"github.com/dalemusser/stratarecruit/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// TestSessionKey is a fixed 32-byte cookie key for tests.
const TestSessionKey = "test-session-key-0123456789abcdef"

// SessionManager returns a cookie session manager for handler tests.
func SessionManager(t *testing.T) *auth.SessionManager {
	t.Helper()
	sm, err := auth.NewSessionManager(TestSessionKey, "stratarecruit-test", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager: %v", err)
	}
	return sm
}

// Cookies copies the Set-Cookie headers of rec onto req, so a follow-up
// request carries the session.
func Cookies(req *http.Request, rec *ResponseRecorder) *http.Request {
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return req
}

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID          string
	Username    string
	Name        string
	IsSuperuser bool
	Profile     *models.AccessProfile
}

func profileUser(name string, level models.Level, provinceID, districtID *primitive.ObjectID) TestUser {
	id := primitive.NewObjectID()
	return TestUser{
		ID:       id.Hex(),
		Username: strings.ToLower(strings.ReplaceAll(name, " ", ".")),
		Name:     name,
		Profile: &models.AccessProfile{
			ID:         primitive.NewObjectID(),
			AccountID:  id,
			Level:      level,
			ProvinceID: provinceID,
			DistrictID: districtID,
		},
	}
}

// Superuser returns a TestUser with the superuser flag and no profile.
func Superuser() TestUser {
	return TestUser{
		ID:          primitive.NewObjectID().Hex(),
		Username:    "admin",
		Name:        "Test Superuser",
		IsSuperuser: true,
	}
}

// NationalUser returns a TestUser with a national profile.
func NationalUser() TestUser {
	return profileUser("Test National", models.LevelNational, nil, nil)
}

// ProvincialUser returns a TestUser with a provincial profile.
func ProvincialUser(provinceID primitive.ObjectID) TestUser {
	return profileUser("Test Provincial", models.LevelProvincial, &provinceID, nil)
}

// DistrictUser returns a TestUser with a district profile.
func DistrictUser(provinceID, districtID primitive.ObjectID) TestUser {
	return profileUser("Test District", models.LevelDistrict, &provinceID, &districtID)
}

// NoProfileUser returns a signed-in TestUser without an access profile.
func NoProfileUser() TestUser {
	return TestUser{ID: primitive.NewObjectID().Hex(), Username: "orphan", Name: "Test Orphan"}
}

// WithUser adds a user to the request context for testing authenticated handlers.
// This bypasses the session middleware and injects the user directly.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:          user.ID,
		Username:    user.Username,
		Name:        user.Name,
		IsSuperuser: user.IsSuperuser,
		Profile:     user.Profile,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string) *http.Request {
	return httptest.NewRequest(method, target, nil)
}

// NewJSONRequest creates a request whose body is v encoded as JSON.
func NewJSONRequest(method, target string, v any) *http.Request {
	var body io.Reader
	if v != nil {
		b, err := json.Marshal(v)
		if err != nil {
			panic(err)
		}
		body = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, nil), user)
}

// ResponseRecorder wraps httptest.ResponseRecorder with helper methods.
type ResponseRecorder struct {
	*httptest.ResponseRecorder
}

// NewRecorder creates a new ResponseRecorder.
func NewRecorder() *ResponseRecorder {
	return &ResponseRecorder{httptest.NewRecorder()}
}

// AssertStatus checks the response status code.
func (r *ResponseRecorder) AssertStatus(t interface{ Errorf(string, ...any) }, expected int) {
	if r.Code != expected {
		t.Errorf("status code: got %d, want %d (body: %s)", r.Code, expected, r.Body.String())
	}
}

// AssertContains checks if the response body contains the expected string.
func (r *ResponseRecorder) AssertContains(t interface{ Errorf(string, ...any) }, expected string) {
	if !strings.Contains(r.Body.String(), expected) {
		t.Errorf("response body does not contain %q", expected)
	}
}

// DecodeJSON decodes the response body into v.
func (r *ResponseRecorder) DecodeJSON(t interface{ Fatalf(string, ...any) }, v any) {
	if err := json.Unmarshal(r.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", r.Body.String(), err)
	}
}
