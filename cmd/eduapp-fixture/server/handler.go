package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
)

// sessionCookie carries the opaque session token.
const sessionCookie = "edu_session"

type handler struct {
	store *Store
	log   *slog.Logger
}

// routes wires the pages and the JSON API onto mux.
func (h *handler) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.redirect("/courses"))
	mux.HandleFunc("GET /register", h.page(registerPage, nil))
	mux.HandleFunc("GET /login", h.page(loginPage, nil))
	mux.HandleFunc("GET /logout", h.logout)
	mux.HandleFunc("GET /admin", h.dashboard(RoleAdmin, "Admin Dashboard"))
	mux.HandleFunc("GET /student", h.dashboard(RoleStudent, "Student Dashboard"))
	mux.HandleFunc("GET /admin/courses/new", h.newCourse)
	mux.HandleFunc("GET /courses", h.courses)
	mux.HandleFunc("GET /courses/{id}", h.courseDetail)

	mux.HandleFunc("POST /api/user/register", h.apiRegister)
	mux.HandleFunc("POST /api/user/login", h.apiLogin)
	mux.HandleFunc("GET /api/course", h.apiListCourses)
	mux.HandleFunc("POST /api/course", h.apiCreateCourse)
	mux.HandleFunc("GET /api/enrollment", h.apiListEnrollments)
	mux.HandleFunc("POST /api/enrollment", h.apiEnroll)
}

// ─────────────────────────────────────────────────────────────────────────────
// Pages
// ─────────────────────────────────────────────────────────────────────────────

func (h *handler) redirect(to string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, to, http.StatusFound)
	}
}

func (h *handler) page(name string, data any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.render(w, name, data)
	}
}

func (h *handler) render(w http.ResponseWriter, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		h.log.Error("render page", "page", name, "err", err)
	}
}

func (h *handler) logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		h.store.CloseSession(c.Value)
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/login", http.StatusFound)
}

func (h *handler) dashboard(role Role, heading string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := h.currentUser(r)
		if !ok || u.Role != role {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		h.render(w, dashboardPage, map[string]any{"Heading": heading, "User": u})
	}
}

func (h *handler) newCourse(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(r)
	if !ok || u.Role != RoleAdmin {
		http.Redirect(w, r, "/login", http.StatusFound)
		return
	}
	h.render(w, newCoursePage, nil)
}

func (h *handler) courses(w http.ResponseWriter, r *http.Request) {
	h.render(w, coursesPage, h.store.PublishedCourses())
}

func (h *handler) courseDetail(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	c, ok := h.store.Course(id)
	if !ok {
		http.NotFound(w, r)
		return
	}
	enrolled := false
	if u, ok := h.currentUser(r); ok {
		enrolled = h.store.IsEnrolled(u.ID, c.ID)
	}
	h.render(w, courseDetailPage, map[string]any{"Course": c, "Enrolled": enrolled})
}

// ─────────────────────────────────────────────────────────────────────────────
// JSON API
// ─────────────────────────────────────────────────────────────────────────────

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (h *handler) apiRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError("Invalid request body"))
		return
	}
	u, err := h.store.Register(req.Username, req.Email, req.Phone, req.Password)
	switch {
	case errors.Is(err, ErrDuplicate):
		writeJSON(w, http.StatusConflict, apiError("User already exists with this email"))
		return
	case errors.Is(err, ErrInvalid):
		writeJSON(w, http.StatusBadRequest, apiError(err.Error()))
		return
	case err != nil:
		h.log.Error("register", "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError("Registration failed"))
		return
	}
	if !h.startSession(w, u) {
		return
	}
	h.log.Info("user registered", "email", u.Email)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "user": u})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) apiLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError("Invalid request body"))
		return
	}
	u, token, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, apiError("Login failed. Please check your credentials."))
		return
	}
	setSession(w, token)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "user": u})
}

func (h *handler) apiListCourses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "courses": h.store.PublishedCourses()})
}

func (h *handler) apiCreateCourse(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, apiError("Not logged in"))
		return
	}
	if u.Role != RoleAdmin && u.Role != RoleTeacher {
		writeJSON(w, http.StatusForbidden, apiError("Only admins and teachers can create courses"))
		return
	}
	var req Course
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, apiError("Invalid request body"))
		return
	}
	c, err := h.store.AddCourse(req)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, apiError(err.Error()))
		return
	}
	h.log.Info("course created", "id", c.ID, "title", c.Title, "status", c.PublicationStatus)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "course": c})
}

func (h *handler) apiListEnrollments(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, apiError("Not logged in"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "enrollments": h.store.Enrollments(u.ID)})
}

type enrollRequest struct {
	CourseID int `json:"courseId"`
}

func (h *handler) apiEnroll(w http.ResponseWriter, r *http.Request) {
	u, ok := h.currentUser(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, apiError("Not logged in"))
		return
	}
	var req enrollRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.CourseID == 0 {
		writeJSON(w, http.StatusBadRequest, apiError("Both course and user are required."))
		return
	}
	e, created, err := h.store.Enroll(u.ID, req.CourseID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, apiError("Course or user not found."))
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
		h.log.Info("enrolled", "user", u.Email, "course", req.CourseID)
	}
	writeJSON(w, status, map[string]any{"success": true, "enrollment": e})
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

func (h *handler) currentUser(r *http.Request) (*User, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil || c.Value == "" {
		return nil, false
	}
	return h.store.UserBySession(c.Value)
}

func (h *handler) startSession(w http.ResponseWriter, u *User) bool {
	token, err := h.store.OpenSession(u.ID)
	if err != nil {
		h.log.Error("open session", "err", err)
		writeJSON(w, http.StatusInternalServerError, apiError("Internal error"))
		return false
	}
	setSession(w, token)
	return true
}

func setSession(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func apiError(msg string) map[string]any {
	return map[string]any{"success": false, "message": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
