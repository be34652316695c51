package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tidebook/booking-backend/internal/auth"
	"github.com/tidebook/booking-backend/internal/pkg/response"
	"github.com/tidebook/booking-backend/internal/tenant"
	"github.com/tidebook/booking-backend/internal/user"
)

type AuthHandler struct {
	userService   user.Service
	tenantService tenant.Service
	jwtManager    *auth.JWTManager
}

func NewAuthHandler(
	userService user.Service,
	tenantService tenant.Service,
	jwtManager *auth.JWTManager,
) *AuthHandler {
	return &AuthHandler{
		userService:   userService,
		tenantService: tenantService,
		jwtManager:    jwtManager,
	}
}

// Signup creates a tenant with its first owner account and returns a token
// for it.
//
// POST /v1/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req SignupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()

	t, err := h.tenantService.Create(ctx, req.TenantName)
	if err != nil {
		response.Error(c, err)
		return
	}

	u, err := h.userService.Register(ctx, t.ID, req.Email, req.Password, req.DisplayName)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.tenantService.AddMember(ctx, t.ID, u.ID, tenant.RoleOwner); err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(u.ID, t.ID, u.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusCreated, SignupResponse{
		TenantID:    t.ID,
		AccessToken: token,
		User:        NewUserResponse(u),
	})
}

// POST /v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()

	u, err := h.userService.Login(ctx, req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwtManager.GenerateAccessToken(u.ID, u.TenantID, u.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	c.JSON(http.StatusOK, LoginResponse{
		AccessToken: token,
		TenantID:    u.TenantID,
		User:        NewUserResponse(u),
	})
}

// GET /v1/me
func (h *AuthHandler) Me(c *gin.Context) {
	tenantID := auth.GetTenantID(c)

	u, err := h.userService.GetByID(c.Request.Context(), tenantID, auth.GetUserID(c))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	c.JSON(http.StatusOK, MeResponse{
		TenantID: tenantID,
		User:     NewUserResponse(u),
	})
}

// AddStaff registers a staff account into the caller's tenant.
//
// POST /v1/staff
func (h *AuthHandler) AddStaff(c *gin.Context) {
	var req StaffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	tenantID := auth.GetTenantID(c)

	u, err := h.userService.Register(ctx, tenantID, req.Email, req.Password, req.DisplayName)
	if err != nil {
		response.Error(c, err)
		return
	}

	if err := h.tenantService.AddMember(ctx, tenantID, u.ID, req.Role); err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewUserResponse(u))
}

// ListStaff lists the tenant's staff accounts.
//
// GET /v1/staff
func (h *AuthHandler) ListStaff(c *gin.Context) {
	members, total, err := h.tenantService.ListMembers(c.Request.Context(), auth.GetTenantID(c), tenant.MemberFilter{
		Page:     1,
		PageSize: 100,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": members, "total": total})
}
