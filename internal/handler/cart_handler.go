package handler

import (
	"net/http"
	"strconv"
	"strings"

	"agrikonnect/internal/config"
	"agrikonnect/internal/middleware"
	"agrikonnect/internal/usecase"

	"github.com/labstack/echo/v4"
)

// ゲストカートのセッショントークンを受け渡すヘッダ
const GuestCartHeader = "X-Guest-Cart"

// ゲストセッションの発行口（実体はguestcart.Store）
type GuestSessionIssuer interface {
	NewSession() string
}

// /cartのHTTP。ログイン済みはJWT、未ログインはX-Guest-Cartで識別する。
type CartHandler struct {
	uc       *usecase.CartUsecase
	sessions GuestSessionIssuer
}

// DI
func NewCartHandler(uc *usecase.CartUsecase, sessions GuestSessionIssuer) *CartHandler {
	return &CartHandler{uc: uc, sessions: sessions}
}

type AddCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int64 `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

// /cart, /cart/{id} を登録
func (h *CartHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	g := e.Group("/cart")
	g.Use(middleware.OptionalAuthJWT(cfg))

	g.GET("", h.getCart)
	g.GET("/summary", h.getSummary)
	g.POST("", h.addToCart)
	g.PATCH("/:id", h.patchItem)
	g.DELETE("/:id", h.deleteItem)
}

// JWT由来のIdentityに、未ログインならゲストセッションを詰める。
// セッションが無ければ新規発行してレスポンスヘッダで返す。
func (h *CartHandler) identity(c echo.Context) usecase.Identity {
	id := identityFromContext(c)
	if id.Authenticated() {
		return id
	}

	session := strings.TrimSpace(c.Request().Header.Get(GuestCartHeader))
	if session == "" {
		session = h.sessions.NewSession()
	}
	id.GuestSession = session

	c.Response().Header().Set(GuestCartHeader, session)
	return id
}

func (h *CartHandler) getCart(c echo.Context) error {
	out, err := h.uc.GetCart(c.Request().Context(), h.identity(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) getSummary(c echo.Context) error {
	out, err := h.uc.GetCartSummary(c.Request().Context(), h.identity(c))
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addToCart(c echo.Context) error {
	var req AddCartRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	out, err := h.uc.AddToCart(c.Request().Context(), h.identity(c), usecase.AddCartInput{
		ProductID: req.ProductID,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return writeMutation(c, http.StatusOK, "item added", out)
}

func (h *CartHandler) patchItem(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid body"})
	}

	out, err := h.uc.UpdateCartItem(c.Request().Context(), h.identity(c), itemID, usecase.UpdateCartItemInput{
		Quantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}

	return writeMutation(c, http.StatusOK, "cart updated", out)
}

func (h *CartHandler) deleteItem(c echo.Context) error {
	itemID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Message: "invalid id"})
	}

	out, err := h.uc.RemoveCartItem(c.Request().Context(), h.identity(c), itemID)
	if err != nil {
		return writeError(c, err)
	}

	return writeMutation(c, http.StatusOK, "item removed", out)
}
