package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tiendabot/backend/internal/domain"
	"github.com/tiendabot/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	requests *usecase.RequestService
	orders   *usecase.OrderService
}

// NewHandler creates a new HTTP handler
func NewHandler(requests *usecase.RequestService, orders *usecase.OrderService) *Handler {
	return &Handler{requests: requests, orders: orders}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "tiendabot-backend",
		"version": "1.0.0",
	})
}

// Search runs a plain catalog search for the q parameter.
func (h *Handler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	results := h.requests.Search(query)
	c.JSON(http.StatusOK, gin.H{"results": results, "count": len(results)})
}

// processRequestBody is the JSON body for ProcessRequest.
type processRequestBody struct {
	CustomerID string `json:"customerId" binding:"required"`
	Text       string `json:"text" binding:"required"`
}

// ProcessRequest runs the full resolution pipeline for one utterance.
func (h *Handler) ProcessRequest(c *gin.Context) {
	var body processRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "customerId and text are required"})
		return
	}

	result, err := h.requests.ProcessRequest(c.Request.Context(), body.CustomerID, body.Text)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetOrder returns the customer's current order.
func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.orders.Get(c.Param("customerID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ConfirmOrder confirms and clears the customer's order.
func (h *Handler) ConfirmOrder(c *gin.Context) {
	order, err := h.orders.Confirm(c.Param("customerID"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CancelOrder drops the customer's order.
func (h *Handler) CancelOrder(c *gin.Context) {
	if err := h.orders.Cancel(c.Param("customerID")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeError maps domain errors to HTTP statuses. Nothing in the core is
// fatal; unknown errors become a generic 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrItemNotFound), errors.Is(err, domain.ErrProductNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
