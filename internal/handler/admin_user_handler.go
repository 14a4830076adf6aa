package handler

import (
	"net/http"
	"strconv"

	"agrikonnect/internal/config"
	"agrikonnect/internal/middleware"
	"agrikonnect/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/farmers, /admin/users配下のHTTP。ADMINのみ。
type AdminUserHandler struct {
	uc *usecase.AdminFarmerUsecase
}

// DI
func NewAdminUserHandler(uc *usecase.AdminFarmerUsecase) *AdminUserHandler {
	return &AdminUserHandler{uc: uc}
}

type VerifyFarmerRequest struct {
	Verified bool `json:"verified"`
}

type SetUserActiveRequest struct {
	Active bool `json:"active"`
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.GET("/farmers", h.listFarmers)
	g.PATCH("/farmers/:id/verify", h.verifyFarmer)
	g.PATCH("/users/:id/active", h.setUserActive)
}

func (h *AdminUserHandler) listFarmers(c echo.Context) error {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid page"})
		}
		page = p
	}

	limit := 20
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid limit"})
		}
		limit = l
	}

	out, err := h.uc.ListFarmers(c.Request().Context(), page, limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminUserHandler) verifyFarmer(c echo.Context) error {
	farmerID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	var req VerifyFarmerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	if err := h.uc.SetFarmerVerified(c.Request().Context(), identityFromContext(c), farmerID, req.Verified); err != nil {
		return writeError(c, err)
	}

	return writeMutation(c, http.StatusOK, "farmer verification updated", nil)
}

func (h *AdminUserHandler) setUserActive(c echo.Context) error {
	userID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	var req SetUserActiveRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	if err := h.uc.SetUserActive(c.Request().Context(), identityFromContext(c), userID, req.Active); err != nil {
		return writeError(c, err)
	}

	return writeMutation(c, http.StatusOK, "user active flag updated", nil)
}
