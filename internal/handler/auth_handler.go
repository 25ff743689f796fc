package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/examsecure/examsecure-backend/internal/identity"
	"github.com/examsecure/examsecure-backend/internal/middleware"
	"github.com/examsecure/examsecure-backend/internal/model"
	"github.com/examsecure/examsecure-backend/internal/response"
	"github.com/examsecure/examsecure-backend/internal/service"
	"github.com/examsecure/examsecure-backend/internal/store"
	"github.com/examsecure/examsecure-backend/internal/validator"
)

// AuthHandler handles authentication and identity-verification endpoints.
type AuthHandler struct {
	authService *service.AuthService
	verifier    identity.Verifier
	store       *store.Store
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *service.AuthService, verifier identity.Verifier, st *store.Store) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		verifier:    verifier,
		store:       st,
	}
}

// Login godoc
// POST /api/v1/auth/login
// Validates admission ID + password. Students get a single-device session;
// a second login while one is active is rejected.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	token, user, err := h.authService.Login(c.Request.Context(), req.AdmissionID, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		}
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"user":  user,
	})
}

// Logout godoc
// POST /api/v1/auth/logout
// Clears the caller's single-device session.
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Me godoc
// GET /api/v1/auth/me
// Returns the profile of the currently authenticated user.
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.store.GetUser(claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// IdentityStatus godoc
// GET /api/v1/auth/identity
// Reports whether identity verification is available and whether the caller
// has an enrolled credential.
func (h *AuthHandler) IdentityStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	ctx := c.Request.Context()
	capable := h.verifier.Capable(ctx)
	enrolled := false
	if capable {
		var err error
		enrolled, err = h.verifier.HasCredential(ctx, claims.UserID)
		if err != nil {
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}
	}

	response.Success(c, http.StatusOK, gin.H{
		"capable":  capable,
		"enrolled": enrolled,
	})
}

// VerifyIdentity godoc
// POST /api/v1/auth/identity/verify
// Confirms the caller's identity before a sensitive action. On a backend
// without verification support this always succeeds; the check is advisory.
func (h *AuthHandler) VerifyIdentity(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.VerifyIdentityRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.verifier.Verify(c.Request.Context(), claims.UserID, req.Secret); err != nil {
		response.Fail(c, http.StatusForbidden, response.ErrIdentityFailed)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"verified": true})
}

// EnrollIdentity godoc
// POST /api/v1/auth/identity/enroll
// Stores a new verification credential for the caller.
func (h *AuthHandler) EnrollIdentity(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if !h.verifier.Capable(c.Request.Context()) {
		response.Fail(c, http.StatusConflict, response.ErrIdentityUnavailable)
		return
	}

	var req model.VerifyIdentityRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.verifier.Enroll(c.Request.Context(), claims.UserID, req.Secret); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"enrolled": true})
}

// ClearIdentity godoc
// DELETE /api/v1/auth/identity
// Removes the caller's stored verification credential.
func (h *AuthHandler) ClearIdentity(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.verifier.ClearCredential(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
