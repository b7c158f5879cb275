package handler

import (
	"net/http"

	"farmmarket/internal/config"
	"farmmarket/internal/middleware"
	"farmmarket/internal/usecase"
	"farmmarket/internal/validator"

	"github.com/labstack/echo/v4"
)

// 入札管理ページのアクション
const (
	ActionAccept       = "accept"
	ActionReject       = "reject"
	ActionSelectWinner = "select-winner"
)

// フォーム送信（action + bid_id）でまとめて受ける
type BidActionRequest struct {
	BidID  string `json:"bid_id" form:"bid_id" validate:"required"`
	Action string `json:"action" form:"action" validate:"required,oneof=accept reject select-winner"`
}

// /farmer/products/:product_id 配下の入札管理
type BidHandler struct {
	uc *usecase.BiddingUsecase
}

// DI
func NewBidHandler(uc *usecase.BiddingUsecase) *BidHandler {
	return &BidHandler{uc: uc}
}

func (h *BidHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	farmer := e.Group("/farmer")
	farmer.Use(middleware.AuthJWT(cfg))
	farmer.Use(middleware.FarmerRoleGuard())

	farmer.POST("/products/:product_id/bidding", h.openBidding)
	farmer.GET("/products/:product_id/bids", h.listBids)
	farmer.POST("/products/:product_id/bids", h.dispatch)
	farmer.POST("/products/:product_id/bids/:bid_id/accept", h.accept)
	farmer.POST("/products/:product_id/bids/:bid_id/reject", h.reject)
	farmer.POST("/products/:product_id/bids/:bid_id/win", h.selectWinner)
}

func (h *BidHandler) openBidding(c echo.Context) error {
	farmerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.uc.OpenBidding(c.Request().Context(), farmerID, c.Param("product_id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "bidding opened"})
}

func (h *BidHandler) listBids(c echo.Context) error {
	farmerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.ListActiveBids(c.Request().Context(), farmerID, c.Param("product_id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *BidHandler) accept(c echo.Context) error {
	return h.run(c, ActionAccept, c.Param("bid_id"))
}

func (h *BidHandler) reject(c echo.Context) error {
	return h.run(c, ActionReject, c.Param("bid_id"))
}

func (h *BidHandler) selectWinner(c echo.Context) error {
	return h.run(c, ActionSelectWinner, c.Param("bid_id"))
}

func (h *BidHandler) dispatch(c echo.Context) error {
	var req BidActionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: validator.Message(err)})
	}
	return h.run(c, req.Action, req.BidID)
}

func (h *BidHandler) run(c echo.Context, action string, bidID string) error {
	farmerID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	ctx := c.Request().Context()
	productID := c.Param("product_id")

	switch action {
	case ActionAccept:
		if err := h.uc.AcceptBid(ctx, farmerID, productID, bidID); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, SuccessResponse{Message: "bid accepted"})

	case ActionReject:
		if err := h.uc.RejectBid(ctx, farmerID, productID, bidID); err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, SuccessResponse{Message: "bid rejected"})

	case ActionSelectWinner:
		out, err := h.uc.SelectWinner(ctx, farmerID, productID, bidID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, out)

	default:
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid action"})
	}
}
