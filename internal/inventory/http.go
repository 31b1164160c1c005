package inventory

import (
	"net/http"

	"github.com/gin-gonic/gin"

	berr "github.com/next-trace/scg-rideshare/contract/errors"
	"github.com/next-trace/scg-rideshare/internal/httpapi"
)

// Routes mounts the ride front door under /rides. Listings act on behalf of X-User-ID.
func (s *Service) Routes(r gin.IRouter) {
	g := r.Group("/rides")
	g.POST("", s.handleCreate)
	g.GET("/:id", s.handleGet)

	acting := g.Group("", httpapi.RequireCaller())
	acting.GET("", s.handleAdminList)
	acting.GET("/search", s.handleSearch)
	acting.GET("/mine", s.handleDriverList)
}

func (s *Service) handleCreate(c *gin.Context) {
	var in CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		httpapi.Error(c, berr.BadRequest("invalid body: "+err.Error()))
		return
	}

	if in.DriverID == "" {
		in.DriverID, _ = httpapi.Caller(c)
	}

	ride, err := s.Create(c.Request.Context(), in)
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, ride)
}

func (s *Service) handleGet(c *gin.Context) {
	ride, err := s.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, ride)
}

func (s *Service) handleSearch(c *gin.Context) {
	user, _ := httpapi.Caller(c)

	rides, err := s.Search(c.Request.Context(), user, c.Query("origin"), c.Query("destination"))
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, rides)
}

func (s *Service) handleDriverList(c *gin.Context) {
	user, _ := httpapi.Caller(c)

	rides, err := s.DriverRides(c.Request.Context(), user)
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, rides)
}

func (s *Service) handleAdminList(c *gin.Context) {
	user, _ := httpapi.Caller(c)

	rides, err := s.AdminRides(c.Request.Context(), user)
	if err != nil {
		httpapi.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, rides)
}
