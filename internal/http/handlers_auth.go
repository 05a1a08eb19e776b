package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agrolink/internal/domain"
	"agrolink/internal/service"
)

type registerReq struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
	Phone    string `json:"phone"`
}

// @Summary Register user
// @Tags auth
// @Accept json
// @Produce json
// @Param input body registerReq true "Registration"
// @Success 200 {object} map[string]any
// @Failure 400 {object} map[string]string
// @Router /auth/register [post]
func (s *Server) register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	u, err := s.svc.Users.Register(c, service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     domain.Role(req.Role),
		Phone:    req.Phone,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":    u.ID,
		"email": u.Email,
		"role":  u.Role,
		"phone": u.Phone,
	})
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// @Summary Login
// @Tags auth
// @Accept json
// @Produce json
// @Param input body loginReq true "Credentials"
// @Success 200 {object} service.LoginResult
// @Failure 401 {object} map[string]string
// @Router /auth/login [post]
func (s *Server) login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	res, err := s.svc.Users.Login(c, req.Email, req.Password)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type recoverReq struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// @Summary Reset password
// @Tags auth
// @Accept json
// @Produce json
// @Param input body recoverReq true "Recovery"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} map[string]string
// @Router /auth/recover [post]
func (s *Server) recoverPassword(c *gin.Context) {
	var req recoverReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := s.svc.Users.Recover(c, req.Email, req.NewPassword); err != nil {
		fail(c, err)
		return
	}
	// same answer for unknown emails, no enumeration
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// @Summary Current profile
// @Tags me
// @Produce json
// @Security BearerAuth
// @Success 200 {object} service.Profile
// @Failure 401 {object} map[string]string
// @Router /me [get]
func (s *Server) getMe(c *gin.Context) {
	p, err := s.svc.Users.Me(c, identityFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

type updateMeReq struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// @Summary Update profile
// @Tags me
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body updateMeReq true "Profile"
// @Success 200 {object} service.Profile
// @Failure 400 {object} map[string]string
// @Router /me [put]
func (s *Server) updateMe(c *gin.Context) {
	var req updateMeReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	p, err := s.svc.Users.UpdateMe(c, identityFrom(c), req.Name, req.Email, req.Phone)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// @Summary My location
// @Tags location
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.Location
// @Router /location/my [get]
func (s *Server) getMyLocation(c *gin.Context) {
	loc, err := s.svc.Locations.My(c, identityFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	if loc == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, loc)
}

type locationReq struct {
	Address   string  `json:"address"`
	Commune   string  `json:"commune"`
	Region    string  `json:"region"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// @Summary Upsert my location
// @Tags location
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param input body locationReq true "Location"
// @Success 200 {object} domain.Location
// @Failure 400 {object} map[string]string
// @Router /location/my [put]
func (s *Server) upsertMyLocation(c *gin.Context) {
	var req locationReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	loc, err := s.svc.Locations.Upsert(c, identityFrom(c), service.LocationInput{
		Address:   req.Address,
		Commune:   req.Commune,
		Region:    req.Region,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, loc)
}

// @Summary Delete my location
// @Tags location
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]bool
// @Router /location/my [delete]
func (s *Server) deleteMyLocation(c *gin.Context) {
	if err := s.svc.Locations.Delete(c, identityFrom(c)); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
