// Package config provides the edusmoke configuration loader.
// Config is loaded by merging defaults → ~/.edusmoke/config.yaml → edusmoke.yaml → EDUSMOKE_* env vars.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/thesyncim/edusmoke/pkg/browser"
	"github.com/thesyncim/edusmoke/pkg/smoke"
)

// FileName is the project config file discovered upward from the CWD.
const FileName = "edusmoke.yaml"

// sensitiveKeyRegex matches config keys that should be redacted in output.
var sensitiveKeyRegex = regexp.MustCompile(`(?i)(password|token|secret|passphrase)`)

// redactedValue replaces sensitive values in Redacted.
const redactedValue = "********"

// Defaults contains factory-default values applied before any config file is loaded.
var Defaults = func() map[string]any {
	s := smoke.DefaultSettings()
	b := browser.DefaultConfig()
	return map[string]any{
		"base_url":              s.BaseURL,
		"scenarios":             []string{},
		"browser.headless":      false,
		"browser.bin":           "",
		"browser.window_width":  b.WindowWidth,
		"browser.window_height": b.WindowHeight,
		"browser.no_sandbox":    b.NoSandbox,
		"timeouts.wait":         s.WaitTimeout,
		"timeouts.navigate":     b.NavigateTimeout,
		"timeouts.logout_pause": s.LogoutPause,
		"timeouts.enroll_pause": s.EnrollPause,
		"admin.email":           s.Admin.Email,
		"admin.password":        s.Admin.Password,
		"registration.name":     s.Registration.Name,
		"registration.phone":    s.Registration.Phone,
		"registration.password": s.Registration.Password,
		"student.name":          s.Student.Name,
		"student.email":         s.Student.Email,
		"student.phone":         s.Student.Phone,
		"student.password":      s.Student.Password,
		"course.title_prefix":   s.Course.TitlePrefix,
		"course.description":    s.Course.Description,
		"course.category":       s.Course.Category,
		"course.level":          s.Course.Level,
		"preflight.enabled":     true,
		"preflight.timeout":     5 * time.Second,
		"log.level":             "info",
		"log.format":            "text",
		"log.file":              "",
		"state.path":            "",
	}
}()

// Course enums of the EduApp schema, keyed by value, mapped to the label the
// course form shows in its dropdowns.
var (
	categoryLabels = map[string]string{
		"SCIENCE":     "Science",
		"PROGRAMMING": "Programming",
		"MATH":        "Mathematics",
		"ART":         "Art & Design",
		"BUSINESS":    "Business",
	}
	levelLabels = map[string]string{
		"BEGINNER":     "Beginner",
		"INTERMEDIATE": "Intermediate",
		"ADVANCED":     "Advanced",
	}
)

// ─────────────────────────────────────────────────────────────────────────────
// Config types
// ─────────────────────────────────────────────────────────────────────────────

// Config is the fully-decoded configuration.
type Config struct {
	BaseURL      string          `mapstructure:"base_url"`
	Scenarios    []string        `mapstructure:"scenarios"`
	Browser      BrowserSection  `mapstructure:"browser"`
	Timeouts     TimeoutSection  `mapstructure:"timeouts"`
	Admin        AccountSection  `mapstructure:"admin"`
	Registration AccountSection  `mapstructure:"registration"` // email is generated per run
	Student      AccountSection  `mapstructure:"student"`
	Course       CourseSection   `mapstructure:"course"`
	Preflight    PreflightConfig `mapstructure:"preflight"`
	Log          LogConfig       `mapstructure:"log"`
	State        StateConfig     `mapstructure:"state"`

	v *viper.Viper
}

// BrowserSection holds Chrome launch options.
type BrowserSection struct {
	Headless     bool   `mapstructure:"headless"`
	Bin          string `mapstructure:"bin"`
	WindowWidth  int    `mapstructure:"window_width"`
	WindowHeight int    `mapstructure:"window_height"`
	NoSandbox    bool   `mapstructure:"no_sandbox"`
}

// TimeoutSection holds explicit waits and fixed pauses.
type TimeoutSection struct {
	Wait        time.Duration `mapstructure:"wait"`
	Navigate    time.Duration `mapstructure:"navigate"`
	LogoutPause time.Duration `mapstructure:"logout_pause"`
	EnrollPause time.Duration `mapstructure:"enroll_pause"`
}

// AccountSection is one set of credentials.
type AccountSection struct {
	Name     string `mapstructure:"name"`
	Email    string `mapstructure:"email"`
	Phone    string `mapstructure:"phone"`
	Password string `mapstructure:"password"`
}

// CourseSection is the course the create-course scenario submits.
// Category and level accept either the schema value or the dropdown label.
type CourseSection struct {
	TitlePrefix string `mapstructure:"title_prefix"`
	Description string `mapstructure:"description"`
	Category    string `mapstructure:"category"`
	Level       string `mapstructure:"level"`
}

// PreflightConfig controls the reachability probe run before the browser starts.
type PreflightConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LogConfig controls logging behaviour.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug | info | warn | error
	Format string `mapstructure:"format"` // json | text
	File   string `mapstructure:"file"`   // empty means ~/.edusmoke/logs/edusmoke.log
}

// StateConfig locates the run history database.
type StateConfig struct {
	Path string `mapstructure:"path"` // empty means ~/.edusmoke/state.db
}

// ─────────────────────────────────────────────────────────────────────────────
// Loader
// ─────────────────────────────────────────────────────────────────────────────

// Load discovers and loads the configuration, walking up directories to find
// edusmoke.yaml, then merging it over the global config and under environment
// variables.
func Load(explicitPath string) (*Config, error) {
	v := viper.New()

	for k, val := range Defaults {
		v.SetDefault(k, val)
	}

	// Environment variable binding: EDUSMOKE_BROWSER_HEADLESS → browser.headless
	v.SetEnvPrefix("EDUSMOKE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	globalCfg := filepath.Join(Home(), "config.yaml")
	if _, err := os.Stat(globalCfg); err == nil {
		v.SetConfigFile(globalCfg)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read global config: %w", err)
		}
	}

	projectCfg := explicitPath
	if projectCfg == "" {
		if path, err := discoverProjectConfig(); err == nil {
			projectCfg = path
		}
	}
	if projectCfg != "" {
		v.SetConfigFile(projectCfg)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read project config %q: %w", projectCfg, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.v = v

	if err := cfg.normalize(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// SmokeSettings converts the loaded config into runner settings.
func (c *Config) SmokeSettings() smoke.Settings {
	return smoke.Settings{
		BaseURL:     c.BaseURL,
		WaitTimeout: c.Timeouts.Wait,
		LogoutPause: c.Timeouts.LogoutPause,
		EnrollPause: c.Timeouts.EnrollPause,
		Admin: smoke.Credentials{
			Email:    c.Admin.Email,
			Password: c.Admin.Password,
		},
		Registration: c.Registration.account(),
		Student:      c.Student.account(),
		Course: smoke.CourseInput{
			TitlePrefix: c.Course.TitlePrefix,
			Description: c.Course.Description,
			Category:    c.Course.Category,
			Level:       c.Course.Level,
		},
	}
}

// BrowserConfig converts the loaded config into Chrome launch options.
func (c *Config) BrowserConfig() browser.Config {
	return browser.Config{
		Headless:        c.Browser.Headless,
		Bin:             c.Browser.Bin,
		WindowWidth:     c.Browser.WindowWidth,
		WindowHeight:    c.Browser.WindowHeight,
		NavigateTimeout: c.Timeouts.Navigate,
		NoSandbox:       c.Browser.NoSandbox,
	}
}

// ConfigFileUsed returns the project or global file the config was read from.
func (c *Config) ConfigFileUsed() string {
	if c.v == nil {
		return ""
	}
	return c.v.ConfigFileUsed()
}

// Setting is one flattened key of the effective configuration.
type Setting struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Redacted returns every effective key sorted by name, with sensitive
// values blanked.
func (c *Config) Redacted() []Setting {
	if c.v == nil {
		return nil
	}
	keys := c.v.AllKeys()
	sort.Strings(keys)

	out := make([]Setting, 0, len(keys))
	for _, k := range keys {
		val := c.v.Get(k)
		if IsSensitiveKey(k) {
			if s, ok := val.(string); !ok || s != "" {
				val = redactedValue
			}
		}
		out = append(out, Setting{Key: k, Value: val})
	}
	return out
}

// IsSensitiveKey returns true if key matches a known sensitive pattern.
func IsSensitiveKey(key string) bool {
	return sensitiveKeyRegex.MatchString(key)
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

func (a AccountSection) account() smoke.Account {
	return smoke.Account{
		Name:     a.Name,
		Email:    a.Email,
		Phone:    a.Phone,
		Password: a.Password,
	}
}

// discoverProjectConfig walks up from the CWD looking for edusmoke.yaml.
func discoverProjectConfig() (string, error) {
	start, err := os.Getwd()
	if err != nil {
		return "", err
	}

	dir := start
	for {
		candidate := filepath.Join(dir, FileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%s not found (searched up from %s)", FileName, start)
}

// normalize validates the decoded config and rewrites course enums to their
// dropdown labels.
func (c *Config) normalize() error {
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("base_url %q must be an absolute http(s) URL", c.BaseURL)
	}

	for name, d := range map[string]time.Duration{
		"timeouts.wait":     c.Timeouts.Wait,
		"timeouts.navigate": c.Timeouts.Navigate,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive, got %v", name, d)
		}
	}
	if c.Timeouts.LogoutPause < 0 || c.Timeouts.EnrollPause < 0 {
		return fmt.Errorf("timeouts pauses must not be negative")
	}
	if c.Preflight.Enabled && c.Preflight.Timeout <= 0 {
		return fmt.Errorf("preflight.timeout must be positive, got %v", c.Preflight.Timeout)
	}

	if c.Course.Category, err = label("course.category", c.Course.Category, categoryLabels); err != nil {
		return err
	}
	if c.Course.Level, err = label("course.level", c.Course.Level, levelLabels); err != nil {
		return err
	}

	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
		c.Log.Format = strings.ToLower(c.Log.Format)
	default:
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}

	if _, err := smoke.ParseNames(c.Scenarios); err != nil {
		return err
	}
	return nil
}

// label resolves v, given as a schema value or a label in any case, to its label.
func label(field, v string, labels map[string]string) (string, error) {
	want := strings.TrimSpace(v)
	for value, l := range labels {
		if strings.EqualFold(want, value) || strings.EqualFold(want, l) {
			return l, nil
		}
	}
	allowed := make([]string, 0, len(labels))
	for value := range labels {
		allowed = append(allowed, value)
	}
	sort.Strings(allowed)
	return "", fmt.Errorf("%s %q must be one of %s", field, v, strings.Join(allowed, ", "))
}

// Home returns the edusmoke home directory (~/.edusmoke).
func Home() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".edusmoke"
	}
	return filepath.Join(home, ".edusmoke")
}

// LogFile returns the configured log file or the default under Home.
func (c *Config) LogFile() string {
	if c.Log.File != "" {
		return c.Log.File
	}
	return filepath.Join(Home(), "logs", "edusmoke.log")
}

// StatePath returns the configured history database or the default under Home.
func (c *Config) StatePath() string {
	if c.State.Path != "" {
		return c.State.Path
	}
	return filepath.Join(Home(), "state.db")
}

// DefaultConfigTemplate documents every key with its default.
const DefaultConfigTemplate = `# edusmoke.yaml
base_url: http://localhost:5173

# scenarios: [login, create-course, browse, enroll]

browser:
  headless: false
  no_sandbox: true

timeouts:
  wait: 10s
  navigate: 30s
  logout_pause: 1s
  enroll_pause: 2s

admin:
  email: admin@gmail.com
  password: abc123

student:
  name: Test Student
  email: student@example.com
  phone: "9876543210"
  password: Test1234

course:
  title_prefix: Smoke Test Course
  category: Programming
  level: Beginner

preflight:
  enabled: true
  timeout: 5s

log:
  level: info
  format: text
`
