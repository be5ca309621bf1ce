package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/bryanwahyu/doc-insight/internal/application/accounts"
	appanalysis "github.com/bryanwahyu/doc-insight/internal/application/analysis"
	domain "github.com/bryanwahyu/doc-insight/internal/domain/analysis"
	"github.com/bryanwahyu/doc-insight/internal/domain/users"
	"github.com/bryanwahyu/doc-insight/internal/middleware"
)

const maxUploadBytes = 64 << 20

type Router struct {
	accountsSvc *accounts.Service
	analysisSvc *appanalysis.Service
}

// NewRouter wires the public auth endpoints and the bearer-protected API.
func NewRouter(accountsSvc *accounts.Service, analysisSvc *appanalysis.Service, rateCapacity, rateRefill int) http.Handler {
	r := &Router{accountsSvc: accountsSvc, analysisSvc: analysisSvc}
	mux := chi.NewRouter()

	mux.Post("/auth/signup", r.wrap(r.handleSignup))
	mux.Post("/auth/login", r.wrap(r.handleLogin))

	mux.Group(func(g chi.Router) {
		g.Use(middleware.BearerAuth(accountsSvc))
		g.Use(middleware.RateLimitMiddleware(rateCapacity, rateRefill))

		g.Get("/test-auth", r.wrap(r.handleTestAuth))
		g.Get("/user/profile", r.wrap(r.handleProfile))
		g.Put("/user/profile", r.wrap(r.handleUpdateProfile))
		g.Get("/user/stats", r.wrap(r.handleStats))
		g.Get("/user/history", r.wrap(r.handleHistory))
		g.Post("/upload", r.wrap(r.handleUpload))
		g.Post("/analyze", r.wrap(r.handleAnalyze))
		g.Get("/analysis/{reportID}", r.wrap(r.handleGetAnalysis))
		g.Delete("/analysis/{reportID}", r.wrap(r.handleDeleteAnalysis))
		g.Get("/report/{reportID}", r.wrap(r.handleGetReport))
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// wrap maps domain errors onto status codes in one place.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := h(w, req)
		if err == nil {
			return
		}
		switch {
		case errors.Is(err, users.ErrValidation):
			http.Error(w, err.Error(), http.StatusBadRequest)
		case errors.Is(err, users.ErrInvalidCredentials):
			http.Error(w, "Invalid credentials", http.StatusUnauthorized)
		case errors.Is(err, users.ErrForbidden):
			http.Error(w, err.Error(), http.StatusForbidden)
		case errors.Is(err, users.ErrEmailTaken):
			http.Error(w, err.Error(), http.StatusConflict)
		case errors.Is(err, users.ErrNotFound), errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrNoDocument):
			http.Error(w, err.Error(), http.StatusNotFound)
		default:
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// authPayload is the response shape shared by signup and login.
type authPayload struct {
	Token string `json:"token"`
	User  struct {
		ID    users.UserID `json:"id"`
		Email string       `json:"email"`
		Name  string       `json:"name"`
	} `json:"user"`
}

func authResponse(u *users.User) authPayload {
	var p authPayload
	p.Token = u.Token
	p.User.ID = u.ID
	p.User.Email = u.Email
	p.User.Name = u.Name
	return p
}

// POST /auth/signup
func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", users.ErrValidation, err)
	}
	email := req.FormValue("email")
	if err := middleware.ValidateEmail(email); err != nil {
		return fmt.Errorf("%w: %v", users.ErrValidation, err)
	}

	u, err := r.accountsSvc.Signup(req.Context(), email, req.FormValue("password"), req.FormValue("name"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, authResponse(u))
}

// POST /auth/login
func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseForm(); err != nil {
		return fmt.Errorf("%w: %v", users.ErrValidation, err)
	}
	u, err := r.accountsSvc.Login(req.Context(), req.FormValue("email"), req.FormValue("password"))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, authResponse(u))
}

// GET /test-auth
func (r *Router) handleTestAuth(w http.ResponseWriter, req *http.Request) error {
	u := middleware.UserFromContext(req.Context())
	return writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Authentication successful",
		"user_id":   u.ID,
		"user_name": u.Name,
	})
}

// GET /user/profile
func (r *Router) handleProfile(w http.ResponseWriter, req *http.Request) error {
	u := middleware.UserFromContext(req.Context())
	return writeJSON(w, http.StatusOK, u.Public())
}

// PUT /user/profile
// Body: {"name": ..., "email": ..., "password": ..., "current_password": ...}
func (r *Router) handleUpdateProfile(w http.ResponseWriter, req *http.Request) error {
	u := middleware.UserFromContext(req.Context())

	var body struct {
		Name            *string `json:"name"`
		Email           string  `json:"email"`
		Password        string  `json:"password"`
		CurrentPassword string  `json:"current_password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return fmt.Errorf("%w: %v", users.ErrValidation, err)
	}
	if body.Email != "" {
		if err := middleware.ValidateEmail(body.Email); err != nil {
			return fmt.Errorf("%w: %v", users.ErrValidation, err)
		}
	}

	updated, err := r.accountsSvc.Update(req.Context(), u.ID, accounts.UpdateCommand{
		Name:            body.Name,
		Email:           body.Email,
		Password:        body.Password,
		CurrentPassword: body.CurrentPassword,
	})
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{
		"message": "Profile updated successfully",
		"user":    updated.Public(),
	})
}

// GET /user/stats
func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) error {
	u := middleware.UserFromContext(req.Context())
	st, err := r.analysisSvc.Stats(req.Context(), u.ID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, st)
}

// GET /user/history
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	u := middleware.UserFromContext(req.Context())
	history, err := r.analysisSvc.History(req.Context(), u.ID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, history)
}

// POST /upload
// multipart: document (required), screenshots (0..n), chapter (optional)
func (r *Router) handleUpload(w http.ResponseWriter, req *http.Request) error {
	u := middleware.UserFromContext(req.Context())

	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return fmt.Errorf("%w: %v", users.ErrValidation, err)
	}

	doc, docHeader, err := req.FormFile("document")
	if err != nil {
		return fmt.Errorf("%w: document file is required", users.ErrValidation)
	}
	defer doc.Close()

	name, err := middleware.SanitizeFilename(docHeader.Filename)
	if err != nil {
		return fmt.Errorf("%w: %v", users.ErrValidation, err)
	}
	docPath, err := r.analysisSvc.SaveUpload(u.ID, name, doc)
	if err != nil {
		return err
	}

	var screenshotPaths []string
	for _, fh := range req.MultipartForm.File["screenshots"] {
		name, err := middleware.SanitizeFilename(fh.Filename)
		if err != nil {
			return fmt.Errorf("%w: %v", users.ErrValidation, err)
		}
		f, err := fh.Open()
		if err != nil {
			return err
		}
		path, err := r.analysisSvc.SaveUpload(u.ID, name, f)
		f.Close()
		if err != nil {
			return err
		}
		screenshotPaths = append(screenshotPaths, path)
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"document":    docPath,
		"screenshots": screenshotPaths,
		"chapter":     req.FormValue("chapter"),
		"token":       "demo-token",
	})
}

// POST /analyze
// Older clients still post a token form field; auth is the bearer header,
// so the field is read and ignored.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	u := middleware.UserFromContext(req.Context())
	req.ParseForm()

	rec, err := r.analysisSvc.Analyze(req.Context(), u.ID)
	if err != nil {
		middleware.IncrementAnalysesFailed()
		return err
	}
	middleware.IncrementAnalyses()

	return writeJSON(w, http.StatusOK, map[string]any{
		"message":   "Analysis complete",
		"report_id": rec.ID,
		"results":   rec,
	})
}

// GET /analysis/{reportID}
func (r *Router) handleGetAnalysis(w http.ResponseWriter, req *http.Request) error {
	u := middleware.UserFromContext(req.Context())
	reportID := chi.URLParam(req, "reportID")

	if !users.CanAccess(u.ID, reportID) {
		return fmt.Errorf("%w: you can only access your own reports", users.ErrForbidden)
	}
	if err := middleware.ValidateReportID(reportID); err != nil {
		return fmt.Errorf("%w: %v", users.ErrValidation, err)
	}
	rec, err := r.analysisSvc.Get(req.Context(), u.ID, reportID)
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, rec)
}

// DELETE /analysis/{reportID}
func (r *Router) handleDeleteAnalysis(w http.ResponseWriter, req *http.Request) error {
	u := middleware.UserFromContext(req.Context())
	reportID := chi.URLParam(req, "reportID")

	if !users.CanAccess(u.ID, reportID) {
		return fmt.Errorf("%w: you can only delete your own analysis history", users.ErrForbidden)
	}
	if err := middleware.ValidateReportID(reportID); err != nil {
		return fmt.Errorf("%w: %v", users.ErrValidation, err)
	}
	if err := r.analysisSvc.Delete(req.Context(), u.ID, reportID); err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, map[string]any{"message": "Analysis deleted successfully"})
}

// GET /report/{reportID}?format=docx|pdf
func (r *Router) handleGetReport(w http.ResponseWriter, req *http.Request) error {
	u := middleware.UserFromContext(req.Context())
	reportID := chi.URLParam(req, "reportID")

	if !users.CanAccess(u.ID, reportID) {
		return fmt.Errorf("%w: you can only access your own reports", users.ErrForbidden)
	}
	if err := middleware.ValidateReportID(reportID); err != nil {
		return fmt.Errorf("%w: %v", users.ErrValidation, err)
	}
	format, err := middleware.ValidateFormat(req.URL.Query().Get("format"))
	if err != nil {
		return fmt.Errorf("%w: %v", users.ErrValidation, err)
	}

	path, err := r.analysisSvc.ReportFile(req.Context(), u.ID, reportID, format)
	if err != nil {
		return err
	}

	contentType := "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	if format == "pdf" {
		contentType = "application/pdf"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="AI_Document_Analysis_%s.%s"`, reportID, format))
	middleware.IncrementReportsDownloaded()
	http.ServeFile(w, req, path)
	return nil
}
