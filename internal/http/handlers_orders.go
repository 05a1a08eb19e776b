package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agrolink/internal/service"
)

type createOrderReq struct {
	ProducerID string              `json:"producerId"`
	Items      []service.ItemInput `json:"items"`
}

// @Summary Place order
// @Tags orders
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createOrderReq true "Order"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Router /orders [post]
func (s *Server) createOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := s.svc.Orders.Create(c, identityFrom(c), req.ProducerID, req.Items)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary My orders (role-scoped, enriched)
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Success 200 {array} service.OrderView
// @Router /orders/my [get]
func (s *Server) myOrders(c *gin.Context) {
	list, err := s.svc.Orders.ListMine(c, identityFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary Order detail
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} service.OrderView
// @Failure 404 {object} map[string]string
// @Router /orders/{id} [get]
func (s *Server) getOrder(c *gin.Context) {
	v, err := s.svc.Orders.Get(c, identityFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// @Summary Ship order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/ship [put]
func (s *Server) shipOrder(c *gin.Context) {
	o, err := s.svc.Orders.Ship(c, identityFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Deliver order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/deliver [put]
func (s *Server) deliverOrder(c *gin.Context) {
	o, err := s.svc.Orders.Deliver(c, identityFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// @Summary Cancel order
// @Tags orders
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} domain.Order
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /orders/{id}/cancel [put]
func (s *Server) cancelOrder(c *gin.Context) {
	o, err := s.svc.Orders.Cancel(c, identityFrom(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

type createPaymentReq struct {
	OrderID string  `json:"orderId"`
	Amount  float64 `json:"amount"`
	Method  string  `json:"method"`
}

// @Summary Confirm payment
// @Tags payments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createPaymentReq true "Payment"
// @Success 200 {object} domain.Payment
// @Failure 400 {object} map[string]string
// @Router /payments [post]
func (s *Server) createPayment(c *gin.Context) {
	var req createPaymentReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Payments.Record(c, identityFrom(c), req.OrderID, req.Amount, req.Method)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary Payments for order
// @Tags payments
// @Produce json
// @Security BearerAuth
// @Param orderId path string true "Order ID"
// @Success 200 {array} domain.Payment
// @Failure 404 {object} map[string]string
// @Router /payments/{orderId} [get]
func (s *Server) listPayments(c *gin.Context) {
	list, err := s.svc.Payments.ListForOrder(c, identityFrom(c), c.Param("orderId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

type createRatingReq struct {
	OrderID string `json:"orderId"`
	Score   int    `json:"score"`
	Comment string `json:"comment"`
}

// @Summary Rate delivered order
// @Tags ratings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body createRatingReq true "Rating"
// @Success 200 {object} domain.Rating
// @Failure 400 {object} map[string]string
// @Router /ratings [post]
func (s *Server) createRating(c *gin.Context) {
	var req createRatingReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	r, err := s.svc.Ratings.Create(c, identityFrom(c), req.OrderID, req.Score, req.Comment)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary Producer rating summary (public)
// @Tags ratings
// @Produce json
// @Param producerId path string true "Producer ID"
// @Success 200 {object} service.RatingSummary
// @Router /ratings/producer/{producerId} [get]
func (s *Server) producerRatingSummary(c *gin.Context) {
	sum, err := s.svc.Ratings.ProducerSummary(c, c.Param("producerId"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}
