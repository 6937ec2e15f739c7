package server

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role is a user's access level.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleStudent Role = "STUDENT"
	RoleTeacher Role = "TEACHER"
)

// Course enums, as the EduApp schema defines them.
var (
	Categories = []string{"SCIENCE", "PROGRAMMING", "MATH", "ART", "BUSINESS"}
	Levels     = []string{"BEGINNER", "INTERMEDIATE", "ADVANCED"}
	Statuses   = []string{"PUBLISHED", "DRAFT", "ARCHIVED"}
)

// Store errors, mapped to HTTP statuses by the handlers.
var (
	ErrDuplicate    = errors.New("already exists")
	ErrNotFound     = errors.New("not found")
	ErrInvalidLogin = errors.New("invalid email or password")
	ErrInvalid      = errors.New("invalid input")
)

// User is a registered account. PasswordHash never leaves the store.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	Role         Role      `json:"role"`
	PasswordHash []byte    `json:"-"`
	DateCreated  time.Time `json:"dateCreated"`
}

// Course is a catalogue entry.
type Course struct {
	ID                int       `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Category          string    `json:"category"`
	Level             string    `json:"level"`
	PublicationStatus string    `json:"publicationStatus"`
	DateCreated       time.Time `json:"dateCreated"`
}

// Enrollment links a user to a course.
type Enrollment struct {
	CourseID       int       `json:"course"`
	UserID         int       `json:"user"`
	Status         string    `json:"status"`
	EnrollmentDate time.Time `json:"enrollmentDate"`
}

type enrollKey struct{ user, course int }

// Store is the fixture's in-memory database.
type Store struct {
	mu          sync.Mutex
	nextID      int
	users       map[string]*User // by lower-cased email
	courses     []*Course
	enrollments map[enrollKey]Enrollment
	sessions    map[string]int // token → user ID
}

// NewStore returns a store seeded with the admin account and one
// published course.
func NewStore() *Store {
	s := &Store{
		users:       map[string]*User{},
		enrollments: map[enrollKey]Enrollment{},
		sessions:    map[string]int{},
	}
	if _, err := s.addUser("Admin", "admin@gmail.com", "0000000000", "abc123", RoleAdmin); err != nil {
		panic(fmt.Sprintf("seed admin: %v", err))
	}
	if _, err := s.AddCourse(Course{
		Title:             "Introduction to Go",
		Description:       "Types, interfaces and goroutines from first principles.",
		Category:          "PROGRAMMING",
		Level:             "BEGINNER",
		PublicationStatus: "PUBLISHED",
	}); err != nil {
		panic(fmt.Sprintf("seed course: %v", err))
	}
	return s
}

// Register creates a student account.
func (s *Store) Register(username, email, phone, password string) (*User, error) {
	if strings.TrimSpace(email) == "" || password == "" || strings.TrimSpace(phone) == "" {
		return nil, fmt.Errorf("%w: email, phone and password are required", ErrInvalid)
	}
	return s.addUser(username, email, phone, password, RoleStudent)
}

func (s *Store) addUser(username, email, phone, password string, role Role) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	k := strings.ToLower(strings.TrimSpace(email))
	if _, ok := s.users[k]; ok {
		return nil, fmt.Errorf("user %q %w", email, ErrDuplicate)
	}
	s.nextID++
	u := &User{
		ID:           s.nextID,
		Username:     username,
		Email:        k,
		Phone:        phone,
		Role:         role,
		PasswordHash: hash,
		DateCreated:  time.Now().UTC(),
	}
	s.users[k] = u
	return u, nil
}

// Authenticate checks credentials and opens a session.
func (s *Store) Authenticate(email, password string) (*User, string, error) {
	s.mu.Lock()
	u, ok := s.users[strings.ToLower(strings.TrimSpace(email))]
	s.mu.Unlock()
	if !ok {
		return nil, "", ErrInvalidLogin
	}
	if err := bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)); err != nil {
		return nil, "", ErrInvalidLogin
	}
	token, err := s.OpenSession(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

// OpenSession issues an opaque session token for userID.
func (s *Store) OpenSession(userID int) (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("session token: %w", err)
	}
	token := hex.EncodeToString(b)

	s.mu.Lock()
	s.sessions[token] = userID
	s.mu.Unlock()
	return token, nil
}

// CloseSession forgets token. Unknown tokens are ignored.
func (s *Store) CloseSession(token string) {
	s.mu.Lock()
	delete(s.sessions, token)
	s.mu.Unlock()
}

// UserBySession resolves a session token.
func (s *Store) UserBySession(token string) (*User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.sessions[token]
	if !ok {
		return nil, false
	}
	for _, u := range s.users {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

// AddCourse validates c against the schema enums and stores it.
// Category, level and status are accepted in any case.
func (s *Store) AddCourse(c Course) (*Course, error) {
	c.Title = strings.TrimSpace(c.Title)
	if c.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalid)
	}
	var err error
	if c.Category, err = oneOf("category", c.Category, Categories); err != nil {
		return nil, err
	}
	if c.Level, err = oneOf("level", c.Level, Levels); err != nil {
		return nil, err
	}
	if c.PublicationStatus == "" {
		c.PublicationStatus = "DRAFT"
	}
	if c.PublicationStatus, err = oneOf("publicationStatus", c.PublicationStatus, Statuses); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	c.ID = s.nextID
	c.DateCreated = time.Now().UTC()
	stored := c
	s.courses = append(s.courses, &stored)
	return &stored, nil
}

// Course returns the course with id.
func (s *Store) Course(id int) (*Course, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.courses {
		if c.ID == id {
			cp := *c
			return &cp, true
		}
	}
	return nil, false
}

// PublishedCourses lists the catalogue in creation order.
func (s *Store) PublishedCourses() []Course {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Course, 0, len(s.courses))
	for _, c := range s.courses {
		if c.PublicationStatus == "PUBLISHED" {
			out = append(out, *c)
		}
	}
	return out
}

// Enroll records userID in courseID. Enrolling twice returns the existing
// enrollment and created=false.
func (s *Store) Enroll(userID, courseID int) (e Enrollment, created bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for _, c := range s.courses {
		if c.ID == courseID {
			found = true
			break
		}
	}
	if !found {
		return Enrollment{}, false, fmt.Errorf("course %d %w", courseID, ErrNotFound)
	}

	k := enrollKey{user: userID, course: courseID}
	if existing, ok := s.enrollments[k]; ok {
		return existing, false, nil
	}
	e = Enrollment{
		CourseID:       courseID,
		UserID:         userID,
		Status:         "ENROLLED",
		EnrollmentDate: time.Now().UTC(),
	}
	s.enrollments[k] = e
	return e, true, nil
}

// IsEnrolled reports whether userID follows courseID.
func (s *Store) IsEnrolled(userID, courseID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.enrollments[enrollKey{user: userID, course: courseID}]
	return ok
}

// Enrollments lists userID's enrollments.
func (s *Store) Enrollments(userID int) []Enrollment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Enrollment
	for k, e := range s.enrollments {
		if k.user == userID {
			out = append(out, e)
		}
	}
	return out
}

func oneOf(field, v string, allowed []string) (string, error) {
	up := strings.ToUpper(strings.TrimSpace(v))
	for _, a := range allowed {
		if up == a {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %s %q must be one of %s", ErrInvalid, field, v, strings.Join(allowed, ", "))
}
