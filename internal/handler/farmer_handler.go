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

// /farmer配下（農家ダッシュボード）のHTTP。FARMER/ADMINのみ。
type FarmerHandler struct {
	catalogUC *usecase.CatalogUsecase
	orderUC   *usecase.OrderUsecase
	statusUC  *usecase.StatusUsecase
}

// DI
func NewFarmerHandler(
	catalogUC *usecase.CatalogUsecase,
	orderUC *usecase.OrderUsecase,
	statusUC *usecase.StatusUsecase,
) *FarmerHandler {
	return &FarmerHandler{
		catalogUC: catalogUC,
		orderUC:   orderUC,
		statusUC:  statusUC,
	}
}

type FarmerProductRequest struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Unit        string  `json:"unit"`
	Stock       int64   `json:"stock"`
	IsAvailable bool    `json:"is_available"`
	IsOrganic   bool    `json:"is_organic"`
	IsGMOFree   bool    `json:"is_gmo_free"`
	ImageURL    string  `json:"image_url"`
}

type UpdateStockRequest struct {
	Stock  int64  `json:"stock"`
	Reason string `json:"reason"`
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
	Note   string `json:"note"`
}

func (h *FarmerHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/farmer")
	g.Use(middleware.AuthJWT(cfg))
	g.Use(middleware.FarmerRoleGuard())

	g.GET("/products", h.listProducts)
	g.POST("/products", h.createProduct)
	g.PUT("/products/:id", h.updateProduct)
	g.DELETE("/products/:id", h.deleteProduct)
	g.PATCH("/products/:id/stock", h.updateStock)

	g.GET("/orders/pending", h.listPendingOrders)
	g.PATCH("/orders/:id/status", h.updateOrderStatus)
}

func (h *FarmerHandler) listProducts(c echo.Context) error {
	out, err := h.catalogUC.ListFarmerProducts(c.Request().Context(), identityFromContext(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *FarmerHandler) createProduct(c echo.Context) error {
	var req FarmerProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	productID, err := h.catalogUC.FarmerCreateProduct(c.Request().Context(), identityFromContext(c), toProductInput(req))
	if err != nil {
		return writeError(c, err)
	}

	return writeMutation(c, http.StatusCreated, "product created", map[string]int64{"id": productID})
}

func (h *FarmerHandler) updateProduct(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	var req FarmerProductRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	if err := h.catalogUC.FarmerUpdateProduct(c.Request().Context(), identityFromContext(c), productID, toProductInput(req)); err != nil {
		return writeError(c, err)
	}

	return writeMutation(c, http.StatusOK, "product updated", nil)
}

func (h *FarmerHandler) deleteProduct(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	if err := h.catalogUC.FarmerDeleteProduct(c.Request().Context(), identityFromContext(c), productID); err != nil {
		return writeError(c, err)
	}

	return writeMutation(c, http.StatusOK, "product deleted", nil)
}

func (h *FarmerHandler) updateStock(c echo.Context) error {
	productID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	var req UpdateStockRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	if err := h.catalogUC.UpdateStock(c.Request().Context(), identityFromContext(c), productID, req.Stock, req.Reason); err != nil {
		return writeError(c, err)
	}

	return writeMutation(c, http.StatusOK, "stock updated", nil)
}

func (h *FarmerHandler) listPendingOrders(c echo.Context) error {
	out, err := h.orderUC.ListPendingByFarmer(c.Request().Context(), identityFromContext(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// 農家による注文ステータス更新（confirmed/processing/ready_for_pickupなど）。
// 自分の商品を含む注文に限る。
func (h *FarmerHandler) updateOrderStatus(c echo.Context) error {
	orderID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	var req UpdateStatusRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	id := identityFromContext(c)

	if err := h.orderUC.AssertFarmerOnOrder(c.Request().Context(), id, orderID); err != nil {
		return writeError(c, err)
	}

	out, err := h.statusUC.UpdateOrderStatus(c.Request().Context(), id, orderID, model.OrderStatus(req.Status), req.Note)
	if err != nil {
		return writeError(c, err)
	}

	middleware.RecordOrderTransition(out.ToStatus)
	return writeMutation(c, http.StatusOK, "status updated", out)
}

func toProductInput(req FarmerProductRequest) usecase.FarmerProductInput {
	return usecase.FarmerProductInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Unit:        req.Unit,
		Stock:       req.Stock,
		IsAvailable: req.IsAvailable,
		IsOrganic:   req.IsOrganic,
		IsGMOFree:   req.IsGMOFree,
		ImageURL:    req.ImageURL,
	}
}
