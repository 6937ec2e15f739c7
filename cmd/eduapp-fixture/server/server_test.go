package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"
)

func TestServerStartStop(t *testing.T) {
	// Create server with random port
	srv, err := NewServer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}

	addr, err := srv.Start()
	if err != nil {
		t.Fatalf("Start() failed: %v", err)
	}

	// Verify we got a real address (not :0)
	if addr == "" || addr == ":0" {
		t.Errorf("Start() returned invalid address: %q", addr)
	}
	if got := srv.Addr(); got != addr {
		t.Errorf("Addr() = %q, want %q", got, addr)
	}
	if !strings.HasPrefix(srv.URL(), "http://localhost:") {
		t.Errorf("URL() = %q, want localhost base", srv.URL())
	}

	// The root redirects to the catalogue.
	url := "http://" + addr + "/"
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("HTTP GET failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET / status = %d, want %d", resp.StatusCode, http.StatusOK)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "Introduction to Go") {
		t.Error("catalogue doesn't list the seeded course")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown() failed: %v", err)
	}

	// Verify server is stopped (should fail to connect)
	if _, err = http.Get(url); err == nil {
		t.Error("Expected connection error after shutdown, but request succeeded")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Addr != ":0" {
		t.Errorf("DefaultConfig().Addr = %q, want %q", cfg.Addr, ":0")
	}
	if cfg.ReadTimeout != 30*time.Second {
		t.Errorf("DefaultConfig().ReadTimeout = %v, want %v", cfg.ReadTimeout, 30*time.Second)
	}
	if cfg.WriteTimeout != 30*time.Second {
		t.Errorf("DefaultConfig().WriteTimeout = %v, want %v", cfg.WriteTimeout, 30*time.Second)
	}
}

func TestNewServerRequiresAddr(t *testing.T) {
	if _, err := NewServer(Config{}); err == nil {
		t.Fatal("NewServer() with empty Addr succeeded")
	}
}

func TestServerDoubleStart(t *testing.T) {
	srv, err := NewServer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	defer srv.Shutdown(context.Background())

	addr1, err := srv.Start()
	if err != nil {
		t.Fatalf("First Start() failed: %v", err)
	}

	// Second start should return same address (no error)
	addr2, err := srv.Start()
	if err != nil {
		t.Fatalf("Second Start() failed: %v", err)
	}

	if addr1 != addr2 {
		t.Errorf("Second Start() returned different address: %q vs %q", addr1, addr2)
	}
}

// apiClient drives the fixture's JSON API with a cookie jar, like a browser.
type apiClient struct {
	t    *testing.T
	base string
	http *http.Client
}

func newAPIClient(t *testing.T) *apiClient {
	t.Helper()
	srv, err := NewServer(DefaultConfig())
	if err != nil {
		t.Fatalf("NewServer() failed: %v", err)
	}
	mux := http.NewServeMux()
	(&handler{store: srv.Store(), log: srv.log}).routes(mux)
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	jar, _ := cookiejar.New(nil)
	return &apiClient{t: t, base: ts.URL, http: &http.Client{Jar: jar}}
}

func (c *apiClient) post(path string, body any) (int, map[string]any) {
	c.t.Helper()
	b, _ := json.Marshal(body)
	resp, err := c.http.Post(c.base+path, "application/json", bytes.NewReader(b))
	if err != nil {
		c.t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func (c *apiClient) get(path string) (int, string) {
	c.t.Helper()
	resp, err := c.http.Get(c.base + path)
	if err != nil {
		c.t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestRegisterAndDuplicate(t *testing.T) {
	c := newAPIClient(t)
	user := map[string]string{
		"username": "Test Student",
		"email":    "student@example.com",
		"phone":    "9876543210",
		"password": "Test1234",
	}

	status, body := c.post("/api/user/register", user)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d, want %d (%v)", status, http.StatusCreated, body)
	}

	// Registration signs the new student in.
	status, page := c.get("/student")
	if status != http.StatusOK || !strings.Contains(page, "Student Dashboard") {
		t.Errorf("GET /student after register = %d, missing dashboard heading", status)
	}

	status, body = c.post("/api/user/register", user)
	if status != http.StatusConflict {
		t.Errorf("duplicate register status = %d, want %d", status, http.StatusConflict)
	}
	if body["message"] != "User already exists with this email" {
		t.Errorf("duplicate register message = %v", body["message"])
	}
}

func TestLoginRoles(t *testing.T) {
	c := newAPIClient(t)

	status, _ := c.post("/api/user/login", map[string]string{"email": "admin@gmail.com", "password": "wrong"})
	if status != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want %d", status, http.StatusUnauthorized)
	}

	status, body := c.post("/api/user/login", map[string]string{"email": "Admin@Gmail.com", "password": "abc123"})
	if status != http.StatusOK {
		t.Fatalf("admin login status = %d, want %d", status, http.StatusOK)
	}
	user, _ := body["user"].(map[string]any)
	if user["role"] != string(RoleAdmin) {
		t.Errorf("login role = %v, want %s", user["role"], RoleAdmin)
	}
	if _, leaked := user["PasswordHash"]; leaked {
		t.Error("login response leaks the password hash")
	}

	status, page := c.get("/admin/courses/new")
	if status != http.StatusOK || !strings.Contains(page, "Create New Course") {
		t.Errorf("GET /admin/courses/new = %d, missing form", status)
	}

	// Logout drops the session; the admin pages bounce to /login.
	c.get("/logout")
	_, page = c.get("/admin")
	if !strings.Contains(page, "<h1>Login</h1>") {
		t.Error("GET /admin after logout did not land on the login page")
	}
}

func TestCreateCourseRequiresAdmin(t *testing.T) {
	c := newAPIClient(t)
	course := map[string]string{
		"title":             "Smoke Test Course",
		"description":       "created by tests",
		"category":          "Programming",
		"level":             "Beginner",
		"publicationStatus": "PUBLISHED",
	}

	status, _ := c.post("/api/course", course)
	if status != http.StatusUnauthorized {
		t.Errorf("anonymous create status = %d, want %d", status, http.StatusUnauthorized)
	}

	c.post("/api/user/register", map[string]string{
		"username": "s", "email": "s@example.com", "phone": "1", "password": "p",
	})
	status, _ = c.post("/api/course", course)
	if status != http.StatusForbidden {
		t.Errorf("student create status = %d, want %d", status, http.StatusForbidden)
	}

	c.post("/api/user/login", map[string]string{"email": "admin@gmail.com", "password": "abc123"})
	status, body := c.post("/api/course", course)
	if status != http.StatusCreated {
		t.Fatalf("admin create status = %d, want %d (%v)", status, http.StatusCreated, body)
	}
	created, _ := body["course"].(map[string]any)
	if created["category"] != "PROGRAMMING" || created["level"] != "BEGINNER" {
		t.Errorf("enums not normalised: %v", created)
	}

	_, page := c.get("/courses")
	if !strings.Contains(page, "Smoke Test Course") {
		t.Error("published course missing from the catalogue")
	}

	course["category"] = "COOKING"
	if status, _ = c.post("/api/course", course); status != http.StatusBadRequest {
		t.Errorf("bad category status = %d, want %d", status, http.StatusBadRequest)
	}
}

func TestEnrollIdempotent(t *testing.T) {
	c := newAPIClient(t)

	if status, _ := c.post("/api/enrollment", map[string]int{"courseId": 2}); status != http.StatusUnauthorized {
		t.Errorf("anonymous enroll status = %d, want %d", status, http.StatusUnauthorized)
	}

	c.post("/api/user/register", map[string]string{
		"username": "s", "email": "s@example.com", "phone": "1", "password": "p",
	})
	id := c.firstCourseID()
	course := strconv.Itoa(id)

	_, page := c.get("/courses/" + course)
	if !strings.Contains(page, "Enroll Now") {
		t.Error("course page for a new student should offer Enroll Now")
	}

	if status, _ := c.post("/api/enrollment", map[string]int{"courseId": id}); status != http.StatusCreated {
		t.Errorf("first enroll status = %d, want %d", status, http.StatusCreated)
	}
	if status, _ := c.post("/api/enrollment", map[string]int{"courseId": id}); status != http.StatusOK {
		t.Errorf("second enroll status = %d, want %d", status, http.StatusOK)
	}
	if status, _ := c.post("/api/enrollment", map[string]int{"courseId": 999}); status != http.StatusNotFound {
		t.Errorf("unknown course status = %d, want %d", status, http.StatusNotFound)
	}

	_, page = c.get("/courses/" + course)
	if !strings.Contains(page, "Continue Learning") {
		t.Error("course page for an enrolled student should offer Continue Learning")
	}
}

func (c *apiClient) firstCourseID() int {
	c.t.Helper()
	resp, err := c.http.Get(c.base + "/api/course")
	if err != nil {
		c.t.Fatalf("GET /api/course: %v", err)
	}
	defer resp.Body.Close()
	var out struct {
		Courses []Course `json:"courses"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil || len(out.Courses) == 0 {
		c.t.Fatalf("no courses listed: %v", err)
	}
	return out.Courses[0].ID
}
