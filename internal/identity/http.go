package identity

import (
	"net/http"

	"github.com/gin-gonic/gin"

	berr "github.com/next-trace/scg-rideshare/contract/errors"
	"github.com/next-trace/scg-rideshare/internal/httpapi"
)

// Routes mounts the identity front door under /users.
func (s *Service) Routes(r gin.IRouter) {
	g := r.Group("/users")
	g.POST("", s.handleRegister)
	g.GET("", s.handleList)
	g.GET("/by-email", s.handleByEmail)
	g.GET("/:id", s.handleGet)
	g.POST("/:id/approve", s.handleApprove)
	g.POST("/:id/reject", s.handleReject)
}

func (s *Service) handleRegister(c *gin.Context) {
	var in RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpapi.Error(c, berr.BadRequest("invalid body: "+err.Error()))
		return
	}

	u, err := s.Register(c.Request.Context(), in)
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, u)
}

func (s *Service) handleList(c *gin.Context) {
	users, err := s.FindAll(c.Request.Context())
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, users)
}

func (s *Service) handleByEmail(c *gin.Context) {
	u, err := s.FindByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

func (s *Service) handleGet(c *gin.Context) {
	u, err := s.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, u)
}

func (s *Service) handleApprove(c *gin.Context) {
	msg, err := s.ApproveDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	httpapi.Message(c, msg)
}

func (s *Service) handleReject(c *gin.Context) {
	msg, err := s.RejectDriver(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	httpapi.Message(c, msg)
}
