package handler

import (
	"net/http"
	"strconv"

	"agrikonnect/internal/config"
	"agrikonnect/internal/domain/model"
	"agrikonnect/internal/middleware"
	"agrikonnect/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /ordersのHTTP（要ログイン）
type OrderHandler struct {
	uc       *usecase.OrderUsecase
	statusUC *usecase.StatusUsecase
}

// DI
func NewOrderHandler(uc *usecase.OrderUsecase, statusUC *usecase.StatusUsecase) *OrderHandler {
	return &OrderHandler{uc: uc, statusUC: statusUC}
}

type PlaceOrderRequest struct {
	DeliveryOption string `json:"delivery_option"`
	Address        string `json:"address"`
	Notes          string `json:"notes"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/orders")
	g.Use(middleware.AuthJWT(cfg))

	g.POST("", h.placeOrder)
	g.GET("", h.listRecent)
	g.GET("/active", h.listActive)
	g.GET("/:id", h.detail)
	g.GET("/:id/timeline", h.timeline)
	g.POST("/:id/cancel", h.cancel)
}

func (h *OrderHandler) placeOrder(c echo.Context) error {
	var req PlaceOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	out, err := h.uc.PlaceOrder(c.Request().Context(), identityFromContext(c), usecase.PlaceOrderInput{
		DeliveryOption: req.DeliveryOption,
		Address:        req.Address,
		Notes:          req.Notes,
	})
	if err != nil {
		return writeError(c, err)
	}

	middleware.RecordOrderPlaced()
	return writeMutation(c, http.StatusCreated, "order placed", out)
}

func (h *OrderHandler) listRecent(c echo.Context) error {
	limit := 10
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > 50 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid limit"})
		}
		limit = l
	}

	out, err := h.uc.ListRecentByCustomer(c.Request().Context(), identityFromContext(c), limit)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) listActive(c echo.Context) error {
	out, err := h.uc.ListActiveByCustomer(c.Request().Context(), identityFromContext(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) detail(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	out, err := h.uc.GetOrderDetail(c.Request().Context(), identityFromContext(c), orderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *OrderHandler) timeline(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	id := identityFromContext(c)

	//自分の注文かどうかの確認（管理者は全件）
	if _, err := h.uc.GetOrderDetail(c.Request().Context(), id, orderID); err != nil {
		return writeError(c, err)
	}

	out, err := h.statusUC.GetOrderTimeline(c.Request().Context(), orderID)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 顧客によるキャンセル。所有チェックしてからcancelledへの遷移に委譲する。
// 遷移表でキャンセル不可のステータスならそこで弾かれる。
func (h *OrderHandler) cancel(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	var req CancelOrderRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	id := identityFromContext(c)

	if _, err := h.uc.GetOrderDetail(c.Request().Context(), id, orderID); err != nil {
		return writeError(c, err)
	}

	out, err := h.statusUC.UpdateOrderStatus(c.Request().Context(), id, orderID, model.OrderStatusCancelled, req.Reason)
	if err != nil {
		return writeError(c, err)
	}

	middleware.RecordOrderTransition(out.ToStatus)
	return writeMutation(c, http.StatusOK, "order cancelled", out)
}
