package handler

import (
	"net/http"
	"strconv"
	"time"

	"agrikonnect/internal/config"
	"agrikonnect/internal/domain/model"
	"agrikonnect/internal/middleware"
	"agrikonnect/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/orders配下のHTTP。ADMINのみ。
type AdminOrderHandler struct {
	uc       *usecase.AdminOrderUsecase
	orderUC  *usecase.OrderUsecase
	statusUC *usecase.StatusUsecase
}

// DI
func NewAdminOrderHandler(
	uc *usecase.AdminOrderUsecase,
	orderUC *usecase.OrderUsecase,
	statusUC *usecase.StatusUsecase,
) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc, orderUC: orderUC, statusUC: statusUC}
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/admin")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.AdminRoleGuard())

	g.GET("/orders", h.list)
	g.PATCH("/orders/:id/status", h.updateStatus)
	g.GET("/orders/:id/next-statuses", h.nextStatuses)

	g.GET("/stats/sales", h.salesStats)
	g.GET("/metrics/delivery", h.deliveryMetrics)
	g.GET("/audit-logs", h.auditLogs)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
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

	var customerID *int64
	if v := c.QueryParam("customer_id"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid customer_id"})
		}
		customerID = &x
	}

	var from, to *time.Time
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid from"})
		}
		from = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid to"})
		}
		to = &t
	}

	out, err := h.uc.List(c.Request().Context(), usecase.AdminOrderListInput{
		Page:       page,
		Limit:      limit,
		Status:     c.QueryParam("status"),
		CustomerID: customerID,
		From:       from,
		To:         to,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	out, err := h.uc.UpdateStatus(c.Request().Context(), identityFromContext(c), orderID, model.OrderStatus(req.Status), req.Note)
	if err != nil {
		return writeError(c, err)
	}

	middleware.RecordOrderTransition(out.ToStatus)
	return writeMutation(c, http.StatusOK, "status updated", out)
}

func (h *AdminOrderHandler) nextStatuses(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	out, err := h.uc.NextStatuses(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, map[string][]model.OrderStatus{"next_statuses": out})
}

func (h *AdminOrderHandler) salesStats(c echo.Context) error {
	period := c.QueryParam("period")
	if period == "" {
		period = "daily"
	}

	out, err := h.orderUC.SalesStats(c.Request().Context(), period)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) deliveryMetrics(c echo.Context) error {
	out, err := h.statusUC.GetDeliveryMetrics(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) auditLogs(c echo.Context) error {
	limit := 50
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid limit"})
		}
		limit = l
	}

	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid offset"})
		}
		offset = o
	}

	var actorID *int64
	if v := c.QueryParam("actor_id"); v != "" {
		x, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid actor_id"})
		}
		actorID = &x
	}

	out, err := h.uc.ListAuditLogs(c.Request().Context(), usecase.AuditLogListInput{
		ActorUserID: actorID,
		Action:      c.QueryParam("action"),
		Limit:       limit,
		Offset:      offset,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}
