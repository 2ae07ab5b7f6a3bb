package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"restock/api/internal/middleware"
	"restock/api/internal/models"
)

type purchaseRequestBody struct {
	ProductID int64 `json:"productId" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required,min=1"`
}

type purchaseRequestResponse struct {
	ID          int64     `json:"id"`
	ProductID   int64     `json:"productId"`
	Quantity    int       `json:"quantity"`
	RequesterID int64     `json:"requesterId"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toRequestResponse(request models.PurchaseRequest) purchaseRequestResponse {
	return purchaseRequestResponse{
		ID:          request.ID,
		ProductID:   request.ProductID,
		Quantity:    request.Quantity,
		RequesterID: request.RequesterID,
		Status:      string(request.Status),
		CreatedAt:   request.CreatedAt,
	}
}

func (h HandlerSet) CreateRequest(c *gin.Context) {
	var req purchaseRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	requesterID := c.GetInt64(middleware.ContextUserID)
	request, err := h.inventory.CreateRequest(c.Request.Context(), req.ProductID, req.Quantity, requesterID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"request": toRequestResponse(request)})
}

// ListRequests returns the caller's own requests; managers see all of them.
func (h HandlerSet) ListRequests(c *gin.Context) {
	role, _ := c.Get(middleware.ContextRole)

	var requests []models.PurchaseRequest
	var err error
	if role == models.UserRoleManager {
		requests, err = h.inventory.ListRequests(c.Request.Context())
	} else {
		requests, err = h.inventory.ListRequestsByRequester(c.Request.Context(), c.GetInt64(middleware.ContextUserID))
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]purchaseRequestResponse, 0, len(requests))
	for _, request := range requests {
		resp = append(resp, toRequestResponse(request))
	}
	c.JSON(http.StatusOK, gin.H{"requests": resp})
}

func (h HandlerSet) GetRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return
	}

	request, err := h.inventory.GetRequest(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	role, _ := c.Get(middleware.ContextRole)
	if role != models.UserRoleManager && request.RequesterID != c.GetInt64(middleware.ContextUserID) {
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"request": toRequestResponse(request)})
}

type requestStatusBody struct {
	Status string `json:"status" binding:"required,oneof=approved rejected"`
}

func (h HandlerSet) SetRequestStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return
	}

	var req requestStatusBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	request, err := h.inventory.SetRequestStatus(c.Request.Context(), id, models.RequestStatus(req.Status))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"request": toRequestResponse(request)})
}

func (h HandlerSet) DeleteRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return
	}

	if err := h.inventory.DeleteRequest(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
