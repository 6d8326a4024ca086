package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"leaddesk/backend/leadapi"
	"leaddesk/backend/logger"
	"leaddesk/backend/middleware"
	"leaddesk/backend/models"
	"leaddesk/backend/services"
)

// Authenticator checks employee credentials against the lead API.
type Authenticator interface {
	Login(ctx context.Context, mobileNumber, password string) (models.Employee, error)
}

// AuthHandler serves captcha, login and logout.
type AuthHandler struct {
	auth     Authenticator
	captchas *services.CaptchaStore
	sessions *services.SessionStore
	registry *Registry
	validate *validator.Validate
	log      *logrus.Entry
}

// NewAuthHandler creates a handler. registry may be nil.
func NewAuthHandler(auth Authenticator, captchas *services.CaptchaStore, sessions *services.SessionStore, registry *Registry) *AuthHandler {
	return &AuthHandler{
		auth:     auth,
		captchas: captchas,
		sessions: sessions,
		registry: registry,
		validate: validator.New(),
		log:      logger.For("auth"),
	}
}

type loginRequest struct {
	MobileNumber string `json:"mobileNumber" validate:"required"`
	Password     string `json:"password" validate:"required"`
	CaptchaID    string `json:"captchaId"`
	Captcha      string `json:"captcha"`
}

// requiredMessages are the field errors shown for missing login fields
var requiredMessages = map[string]string{
	"MobileNumber": "Mobile number is required.",
	"Password":     "Password is required.",
}

type fieldErrors struct {
	MobileNumber string `json:"mobileNumber,omitempty"`
	Password     string `json:"password,omitempty"`
	Captcha      string `json:"captcha,omitempty"`
}

func (f fieldErrors) empty() bool {
	return f == fieldErrors{}
}

type loginFailure struct {
	Message string      `json:"message"`
	Errors  fieldErrors `json:"errors"`
}

type loginResponse struct {
	Token         string    `json:"token"`
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Role          string    `json:"role"`
	DashboardPath string    `json:"dashboardPath"`
	ExpiresAt     time.Time `json:"expiresAt"`
}

// GetCaptcha issues a new captcha.
func (h *AuthHandler) GetCaptcha(w http.ResponseWriter, r *http.Request) {
	c, err := h.captchas.Issue()
	if err != nil {
		http.Error(w, "Failed to issue captcha", http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, c)
}

// Login validates the form, checks the captcha, logs in against the lead API and starts a session.
// All field errors are reported together.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	var errs fieldErrors
	if err := h.captchas.Verify(req.CaptchaID, req.Captcha); err != nil {
		errs.Captcha = "Captcha is incorrect. Please try again."
	}
	var verrs validator.ValidationErrors
	if err := h.validate.Struct(req); errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.StructField() {
			case "MobileNumber":
				errs.MobileNumber = requiredMessages[fe.StructField()]
			case "Password":
				errs.Password = requiredMessages[fe.StructField()]
			}
		}
	}
	if !errs.empty() {
		respondJSON(w, http.StatusBadRequest, loginFailure{Message: "Invalid login form", Errors: errs})
		return
	}

	emp, err := h.auth.Login(r.Context(), req.MobileNumber, req.Password)
	if err != nil {
		h.respondLoginError(w, err)
		return
	}

	session, err := h.sessions.Create(emp)
	if err != nil {
		h.log.WithError(err).Error("Failed to create session")
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	h.log.WithFields(logrus.Fields{"employee_id": emp.ID, "role": emp.Role}).Info("Employee logged in")
	respondJSON(w, http.StatusOK, loginResponse{
		Token:         emp.Token,
		ID:            emp.ID,
		Name:          emp.Name,
		Role:          emp.Role,
		DashboardPath: emp.DashboardPath(),
		ExpiresAt:     session.ExpiresAt,
	})
}

func (h *AuthHandler) respondLoginError(w http.ResponseWriter, err error) {
	if errors.Is(err, leadapi.ErrInvalidCredentials) {
		respondJSON(w, http.StatusUnauthorized, loginFailure{
			Message: "Invalid credentials",
			Errors:  fieldErrors{MobileNumber: "Invalid mobile number.", Password: "Invalid password."},
		})
		return
	}

	var apiErr *leadapi.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		status := apiErr.Status
		if status < 400 || status > 499 {
			status = http.StatusBadGateway
		}
		respondJSON(w, status, loginFailure{
			Message: apiErr.Message,
			Errors:  fieldErrors{MobileNumber: apiErr.Message, Password: apiErr.Message},
		})
		return
	}

	h.log.WithError(err).Error("Login failed")
	respondJSON(w, http.StatusBadGateway, messageResponse{Message: "Login failed"})
}

// Logout ends the caller's session and closes its lead browsers.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized: No session found", http.StatusUnauthorized)
		return
	}

	if err := h.sessions.Delete(middleware.TokenFromRequest(r)); err != nil && !errors.Is(err, services.ErrSessionNotFound) {
		http.Error(w, "Failed to end session", http.StatusInternalServerError)
		return
	}
	if h.registry != nil {
		h.registry.DropSession(session.ID)
	}

	w.WriteHeader(http.StatusNoContent)
}
