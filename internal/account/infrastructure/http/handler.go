package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmehra2102/Marketplace-Booking-System/internal/account/application"
	"github.com/dmehra2102/Marketplace-Booking-System/internal/account/domain"
	"github.com/dmehra2102/Marketplace-Booking-System/pkg/httpx"
)

type Handler struct {
	log     *slog.Logger
	service *application.Service
}

func NewHandler(log *slog.Logger, service *application.Service) *Handler {
	return &Handler{log: log, service: service}
}

func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.register)
	r.Post("/auth/login", h.login)
}

type registerReq struct {
	Email       string          `json:"email"`
	Password    string          `json:"password"`
	UserType    domain.UserType `json:"user_type"`
	DisplayName string          `json:"display_name"`
}

type userResp struct {
	Email    string          `json:"email"`
	UserType domain.UserType `json:"user_type"`
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	a, err := h.service.Register(r.Context(), req.Email, req.Password, req.UserType, req.DisplayName)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, userResp{Email: a.Email, UserType: a.UserType})
}

type loginReq struct {
	Email    string          `json:"email"`
	Password string          `json:"password"`
	UserType domain.UserType `json:"user_type"`
}

type loginResp struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	User      userResp  `json:"user"`
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginReq
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	sess, err := h.service.Login(r.Context(), req.Email, req.Password, req.UserType)
	if err != nil {
		h.writeErr(w, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, loginResp{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		User:      userResp{Email: sess.Email, UserType: sess.UserType},
	})
}

func (h *Handler) writeErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidEmail), errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrPasswordTooLong), errors.Is(err, domain.ErrInvalidUserType):
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, domain.ErrEmailTaken):
		httpx.WriteError(w, http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, domain.ErrUserTypeMismatch):
		httpx.WriteError(w, http.StatusUnauthorized, "user_type_mismatch", err.Error())
	default:
		h.log.Error("account request failed", "err", err)
		httpx.WriteError(w, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
