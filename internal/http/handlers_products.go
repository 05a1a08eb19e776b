package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"agrolink/internal/service"
)

// @Summary List products (public storefront)
// @Tags products
// @Produce json
// @Param category query string false "Category"
// @Param region query string false "Producer region"
// @Param commune query string false "Producer commune"
// @Param page query int false "Page (1..N)"
// @Param limit query int false "Page size (1..50)"
// @Success 200 {object} service.ProductPage
// @Router /products [get]
func (s *Server) listProducts(c *gin.Context) {
	f := service.PublicFilter{
		Category: c.Query("category"),
		Region:   c.Query("region"),
		Commune:  c.Query("commune"),
	}
	if v := c.Query("page"); v != "" {
		if x, err := strconv.Atoi(v); err == nil {
			f.Page = x
		}
	}
	if v := c.Query("limit"); v != "" {
		if x, err := strconv.Atoi(v); err == nil {
			f.Limit = x
		}
	}
	page, err := s.svc.Products.ListPublic(c, f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// @Summary Distinct categories
// @Tags products
// @Produce json
// @Success 200 {array} string
// @Router /products/categories [get]
func (s *Server) listCategories(c *gin.Context) {
	cats, err := s.svc.Products.Categories(c)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cats)
}

// @Summary My products
// @Tags products
// @Produce json
// @Security BearerAuth
// @Success 200 {array} domain.Product
// @Router /products/mine [get]
func (s *Server) myProducts(c *gin.Context) {
	list, err := s.svc.Products.Mine(c, identityFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Product detail (public)
// @Tags products
// @Produce json
// @Param id path string true "Product ID"
// @Success 200 {object} service.ProductView
// @Failure 404 {object} map[string]string
// @Router /products/{id} [get]
func (s *Server) getProduct(c *gin.Context) {
	v, err := s.svc.Products.GetPublic(c, c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

type productReq struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int64   `json:"stock"`
	Category    string  `json:"category"`
	ImageURL    string  `json:"imageUrl"`
}

func (r productReq) toInput() service.ProductInput {
	return service.ProductInput{
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		Stock:       r.Stock,
		Category:    r.Category,
		ImageURL:    r.ImageURL,
	}
}

// @Summary Create product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body productReq true "Product"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Router /products [post]
func (s *Server) createProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Products.Create(c, identityFrom(c), req.toInput())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Update product
// @Tags products
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Param input body productReq true "Update"
// @Success 200 {object} domain.Product
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /products/{id} [put]
func (s *Server) updateProduct(c *gin.Context) {
	var req productReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Products.Update(c, identityFrom(c), c.Param("id"), req.toInput())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Delete product
// @Tags products
// @Produce json
// @Security BearerAuth
// @Param id path string true "Product ID"
// @Success 200 {object} map[string]bool
// @Failure 404 {object} map[string]string
// @Router /products/{id} [delete]
func (s *Server) deleteProduct(c *gin.Context) {
	if err := s.svc.Products.Delete(c, identityFrom(c), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
