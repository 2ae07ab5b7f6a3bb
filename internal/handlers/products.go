package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"restock/api/internal/models"
)

type productRequest struct {
	Name         string `json:"name" binding:"required"`
	CurrentStock int    `json:"currentStock" binding:"min=0"`
	MinStock     int    `json:"minStock" binding:"min=0"`
	MaxStock     int    `json:"maxStock" binding:"required,min=1"`
}

type productResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	CurrentStock int    `json:"currentStock"`
	MinStock     int    `json:"minStock"`
	MaxStock     int    `json:"maxStock"`
}

func toProductResponse(product models.Product) productResponse {
	return productResponse{
		ID:           product.ID,
		Name:         product.Name,
		CurrentStock: product.CurrentStock,
		MinStock:     product.MinStock,
		MaxStock:     product.MaxStock,
	}
}

func (h HandlerSet) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.inventory.CreateProduct(c.Request.Context(), models.Product{
		Name:         req.Name,
		CurrentStock: req.CurrentStock,
		MinStock:     req.MinStock,
		MaxStock:     req.MaxStock,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"product": toProductResponse(product)})
}

func (h HandlerSet) ListProducts(c *gin.Context) {
	products, err := h.inventory.ListProducts(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, product := range products {
		resp = append(resp, toProductResponse(product))
	}
	c.JSON(http.StatusOK, gin.H{"products": resp})
}

func (h HandlerSet) GetProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return
	}

	product, err := h.inventory.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProductResponse(product)})
}

func (h HandlerSet) UpdateProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return
	}

	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.inventory.UpdateProduct(c.Request.Context(), models.Product{
		ID:           id,
		Name:         req.Name,
		CurrentStock: req.CurrentStock,
		MinStock:     req.MinStock,
		MaxStock:     req.MaxStock,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"product": toProductResponse(product)})
}

func (h HandlerSet) DeleteProduct(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_id"})
		return
	}

	if err := h.inventory.DeleteProduct(c.Request.Context(), id); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
