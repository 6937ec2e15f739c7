package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/edusmoke/internal/cli/commands"
	"github.com/thesyncim/edusmoke/internal/config"
	"github.com/thesyncim/edusmoke/pkg/browser"
	"github.com/thesyncim/edusmoke/pkg/errs"
)

// fakeSession satisfies every scenario without a browser.
type fakeSession struct {
	mu        sync.Mutex
	navigated []string
	closed    int
	failNav   bool
}

func (f *fakeSession) Navigate(_ context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, url)
	if f.failNav {
		return errs.New(errs.ErrNavigate, "browser.navigate", errors.New("net::ERR_CONNECTION_REFUSED")).WithResource(url)
	}
	return nil
}

func (f *fakeSession) WaitFor(context.Context, browser.Locator) error       { return nil }
func (f *fakeSession) WaitClickable(context.Context, browser.Locator) error { return nil }
func (f *fakeSession) Fill(context.Context, browser.Locator, string) error  { return nil }
func (f *fakeSession) Click(context.Context, browser.Locator) error         { return nil }

func (f *fakeSession) Text(context.Context, browser.Locator) (string, error) {
	return "Registration successful! Enroll Now", nil
}

func (f *fakeSession) Count(context.Context, browser.Locator) (int, error) { return 2, nil }

func (f *fakeSession) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed++
	return nil
}

// harness isolates HOME and the CWD and writes a fast config.
type harness struct {
	t        *testing.T
	config   string
	sessions []*fakeSession
	failNav  bool
	launched []browser.Config
}

func newHarness(t *testing.T, extra string) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)

	cfg := filepath.Join(dir, "edusmoke.yaml")
	body := `
base_url: http://app.test
timeouts:
  logout_pause: 0s
  enroll_pause: 0s
preflight:
  enabled: false
log:
  level: error
` + extra
	require.NoError(t, os.WriteFile(cfg, []byte(body), 0o600))
	return &harness{t: t, config: cfg}
}

func (h *harness) launch(cfg browser.Config) (commands.Session, error) {
	h.launched = append(h.launched, cfg)
	s := &fakeSession{failNav: h.failNav}
	h.sessions = append(h.sessions, s)
	return s, nil
}

func (h *harness) run(args ...string) (code int, stdout, stderr string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	code = Run(append([]string{"--config", h.config}, args...), &out, &errOut, h.launch)
	return code, out.String(), errOut.String()
}

func TestRunDefaultScenarios(t *testing.T) {
	h := newHarness(t, "")

	code, out, stderr := h.run("run")
	require.Equal(t, 0, code, stderr)

	assert.Contains(t, out, "🧪 Testing User Login...")
	assert.Contains(t, out, "✅ User login successful!")
	assert.Contains(t, out, "✅ Found 2 courses on the browse page")
	assert.Contains(t, out, "✅ Successfully enrolled in course!")
	assert.Contains(t, out, "✅ All tests completed successfully!")
	assert.NotContains(t, out, "User Registration", "registration is opt-in")

	require.Len(t, h.sessions, 1)
	assert.Equal(t, 1, h.sessions[0].closed)
	assert.False(t, h.launched[0].Headless, "headful unless asked otherwise")
	assert.Contains(t, h.sessions[0].navigated, "http://app.test/admin/courses/new")

	// The run and its artifacts are in the history.
	code, out, stderr = h.run("--json", "history")
	require.Equal(t, 0, code, stderr)
	var runs []struct {
		ID     string `json:"id"`
		Passed bool   `json:"passed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &runs))
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Passed)

	code, out, stderr = h.run("--json", "history", "--artifacts", "--kind", "course")
	require.Equal(t, 0, code, stderr)
	var arts []struct {
		Kind  string `json:"kind"`
		Value string `json:"value"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &arts))
	require.Len(t, arts, 1)
	assert.True(t, strings.HasPrefix(arts[0].Value, "Smoke Test Course "))
}

func TestRunFailureExitCode(t *testing.T) {
	h := newHarness(t, "")
	h.failNav = true

	code, out, _ := h.run("run", "--scenario", "browse")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "❌ Course Browsing failed:")
	assert.Contains(t, out, "❌ Test suite failed with error: browse:")
	assert.Contains(t, out, "ERR_CONNECTION_REFUSED")

	code, out, _ = h.run("--json", "history")
	require.Equal(t, 0, code)
	assert.Contains(t, out, `"passed":false`)
}

func TestRunJSONAndOverrides(t *testing.T) {
	h := newHarness(t, "")

	code, out, stderr := h.run("--json", "--headless", "--base-url", "http://other.test:8080", "run", "-s", "register", "-s", "login")
	require.Equal(t, 0, code, stderr)

	var res struct {
		BaseURL string `json:"base_url"`
		Passed  bool   `json:"passed"`
		Results []struct {
			Name     string `json:"name"`
			Artifact string `json:"artifact"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &res), out)
	assert.True(t, res.Passed)
	assert.Equal(t, "http://other.test:8080", res.BaseURL)
	require.Len(t, res.Results, 2)
	assert.Equal(t, "register", res.Results[0].Name)
	assert.True(t, strings.HasSuffix(res.Results[0].Artifact, "@example.com"))

	assert.Contains(t, stderr, "🧪 Testing User Registration...", "progress moves to stderr")
	assert.True(t, h.launched[0].Headless)
}

func TestRunUnknownScenario(t *testing.T) {
	h := newHarness(t, "")

	code, _, stderr := h.run("run", "--scenario", "checkout")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, `unknown scenario "checkout"`)
	assert.Empty(t, h.sessions)
}

func TestRunPreflightFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	h := newHarness(t, "")
	code, _, stderr := h.run("--base-url", srv.URL, "run")
	// The harness config disables preflight; re-enable it from the environment.
	assert.Equal(t, 0, code, stderr)

	t.Setenv("EDUSMOKE_PREFLIGHT_ENABLED", "true")
	h.sessions = nil
	code, out, _ := h.run("--base-url", srv.URL, "run")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, string(errs.ErrPreflight))
	assert.Empty(t, h.sessions, "no browser when the app is down")
}

func TestSoakSingleIteration(t *testing.T) {
	h := newHarness(t, "")

	code, out, stderr := h.run("soak", "--duration", "1ms", "--interval", "0s", "-s", "browse")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "[0001] PASS")
	assert.Contains(t, out, "Iterations")
	assert.Len(t, h.sessions, 1)
}

func TestSoakStopsAtFailure(t *testing.T) {
	h := newHarness(t, "")
	h.failNav = true

	code, out, _ := h.run("soak", "--duration", "1h", "--interval", "0s", "-s", "browse")
	assert.Equal(t, 1, code)
	assert.Contains(t, out, "[0001] FAIL")
	assert.Contains(t, out, "iteration 1:")
	assert.Len(t, h.sessions, 1)
}

func TestScenariosCmd(t *testing.T) {
	h := newHarness(t, "scenarios: [browse]\n")

	code, out, stderr := h.run("--json", "scenarios")
	require.Equal(t, 0, code, stderr)

	var list []struct {
		Name    string `json:"name"`
		Default bool   `json:"default"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list, 5)
	for _, s := range list {
		assert.Equal(t, s.Name == "browse", s.Default, s.Name)
	}
}

func TestConfigShowRedacts(t *testing.T) {
	h := newHarness(t, "")

	code, out, stderr := h.run("config", "show")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, "admin.password")
	assert.Contains(t, out, "********")
	assert.NotContains(t, out, "abc123")
	assert.Contains(t, out, h.config)
}

func TestVersionSkipsRuntime(t *testing.T) {
	var out, errOut bytes.Buffer
	// A broken config path is irrelevant to version.
	code := Run([]string{"--config", "/nonexistent.yaml", "--json", "version"}, &out, &errOut, nil)
	require.Equal(t, 0, code, errOut.String())

	var info map[string]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &info))
	assert.Equal(t, commands.Version, info["version"])
}

func TestBadConfigFails(t *testing.T) {
	h := newHarness(t, "course:\n  level: Expert\n")

	code, _, stderr := h.run("scenarios")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "course.level")
	assert.Contains(t, stderr, string(errs.ErrConfig))
	assert.Contains(t, stderr, "→ fix the file or run 'edusmoke config init")
}

func TestConfigInit(t *testing.T) {
	// The harness config is invalid; init must not need it.
	h := newHarness(t, "course:\n  level: Expert\n")

	code, out, stderr := h.run("config", "init", "--path", "fresh")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, out, filepath.Join("fresh", "edusmoke.yaml"))

	written := filepath.Join("fresh", "edusmoke.yaml")
	cfg, err := config.Load(written)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5173", cfg.BaseURL)
	assert.Equal(t, "Programming", cfg.Course.Category)
	assert.True(t, cfg.Preflight.Enabled)

	code, _, stderr = h.run("config", "init", "--path", "fresh")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "already exists")
}
