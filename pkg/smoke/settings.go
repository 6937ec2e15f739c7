package smoke

import (
	"net/url"
	"strings"
	"time"

	"github.com/thesyncim/edusmoke/pkg/errs"
)

// CourseInput is what the create-course scenario types into the form.
type CourseInput struct {
	TitlePrefix string // Generated title is "<prefix> <unix seconds>"
	Description string
	Category    string // Dropdown label, e.g. "Programming"
	Level       string // Dropdown label, e.g. "Beginner"
}

// Settings parameterize the hardcoded scenarios.
type Settings struct {
	BaseURL      string
	WaitTimeout  time.Duration // Deadline of every explicit wait
	LogoutPause  time.Duration // Pause after visiting /logout
	EnrollPause  time.Duration // Pause after clicking Enroll
	Admin        Credentials
	Registration Account // Email is generated per run
	Student      Account
	Course       CourseInput
}

// DefaultSettings returns the values the suite was written against.
func DefaultSettings() Settings {
	return Settings{
		BaseURL:     "http://localhost:5173",
		WaitTimeout: 10 * time.Second,
		LogoutPause: time.Second,
		EnrollPause: 2 * time.Second,
		Admin: Credentials{
			Email:    "admin@gmail.com",
			Password: "abc123",
		},
		Registration: Account{
			Name:     "Test User",
			Phone:    "1234567890",
			Password: "Test1234",
		},
		Student: Account{
			Name:     "Test Student",
			Email:    "student@example.com",
			Phone:    "9876543210",
			Password: "Test1234",
		},
		Course: CourseInput{
			TitlePrefix: "Smoke Test Course",
			Description: "This is an automated test course created by the edusmoke suite",
			Category:    "Programming",
			Level:       "Beginner",
		},
	}
}

// Validate checks the settings a run cannot proceed without.
func (s Settings) Validate() error {
	u, err := url.Parse(s.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errs.Newf(errs.ErrValidation, "settings.base-url", "base URL %q must be an absolute http(s) URL", s.BaseURL)
	}
	if s.WaitTimeout <= 0 {
		return errs.Newf(errs.ErrValidation, "settings.wait-timeout", "wait timeout must be positive, got %v", s.WaitTimeout)
	}
	if s.LogoutPause < 0 || s.EnrollPause < 0 {
		return errs.Newf(errs.ErrValidation, "settings.pause", "pauses must not be negative")
	}
	if s.Admin.Email == "" || s.Student.Email == "" {
		return errs.Newf(errs.ErrValidation, "settings.accounts", "admin and student emails are required")
	}
	if s.Course.Category == "" || s.Course.Level == "" {
		return errs.Newf(errs.ErrValidation, "settings.course", "course category and level are required")
	}
	return nil
}

// url joins path onto the base URL.
func (s Settings) url(path string) string {
	return strings.TrimRight(s.BaseURL, "/") + path
}
