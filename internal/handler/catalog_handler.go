package handler

import (
	"net/http"

	"backend/internal/middleware"
	"backend/internal/service"
	"backend/pkg/pagination"
	"backend/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CatalogHandler struct {
	catalog service.CatalogService
}

func NewCatalogHandler(catalog service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

func (h *CatalogHandler) RegisterRoutes(router *gin.RouterGroup) {
	stores := router.Group("/api/stores", middleware.RequireAuth())
	{
		stores.POST("", h.CreateStore)
		stores.GET("", h.ListStores)
		stores.GET("/:id", h.GetStore)
	}
	products := router.Group("/api/products", middleware.RequireAuth())
	{
		products.POST("", h.CreateProduct)
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
	}
}

// CreateStore registers a new branch
// @Summary      Create store
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateStoreRequest  true  "Store"
// @Success      201      {object}  response.Response{data=model.Store}
// @Failure      400      {object}  response.Response
// @Router       /api/stores [post]
func (h *CatalogHandler) CreateStore(c *gin.Context) {
	var req service.CreateStoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body"))
		return
	}

	store, err := h.catalog.CreateStore(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, store))
}

// ListStores lists all branches
// @Summary      List stores
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Store}
// @Router       /api/stores [get]
func (h *CatalogHandler) ListStores(c *gin.Context) {
	stores, err := h.catalog.ListStores(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, stores))
}

// GetStore fetches one branch
// @Summary      Get store
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Store ID"
// @Success      200  {object}  response.Response{data=model.Store}
// @Failure      404  {object}  response.Response
// @Router       /api/stores/{id} [get]
func (h *CatalogHandler) GetStore(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid store id"))
		return
	}

	store, err := h.catalog.GetStore(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, store))
}

// CreateProduct registers a new catalog item
// @Summary      Create product
// @Tags         catalog
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateProductRequest  true  "Product"
// @Success      201      {object}  response.Response{data=model.Product}
// @Failure      400      {object}  response.Response
// @Router       /api/products [post]
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req service.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body"))
		return
	}

	product, err := h.catalog.CreateProduct(c.Request.Context(), req)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, product))
}

// ListProducts lists catalog items with optional name search
// @Summary      List products
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        page    query     int     false  "Page"
// @Param        limit   query     int     false  "Page size"
// @Param        search  query     string  false  "Name filter"
// @Success      200     {object}  response.Response{data=[]model.Product}
// @Router       /api/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	params := pagination.Parse(c)
	products, total, err := h.catalog.ListProducts(c.Request.Context(), params.Page, params.Limit, c.Query("search"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{
		"items": products,
		"total": total,
		"page":  params.Page,
		"limit": params.Limit,
	}))
}

// GetProduct fetches one catalog item
// @Summary      Get product
// @Tags         catalog
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=model.Product}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, product))
}
