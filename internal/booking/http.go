package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"

	berr "github.com/next-trace/scg-rideshare/contract/errors"
	"github.com/next-trace/scg-rideshare/internal/httpapi"
)

// Routes mounts the booking front door under /bookings. Every route acts on behalf of X-User-ID.
func (c *Coordinator) Routes(r gin.IRouter) {
	g := r.Group("/bookings", httpapi.RequireCaller())
	g.POST("", c.handleBook)
	g.DELETE("/:id", c.handleCancel)
	g.GET("/mine", c.handleMine)
	g.GET("", c.handleAll)
}

type bookRequest struct {
	RideID      string `json:"rideId" binding:"required"`
	Destination string `json:"destination" binding:"required"`
}

func (c *Coordinator) handleBook(ctx *gin.Context) {
	var req bookRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		httpapi.Error(ctx, berr.BadRequest("invalid body: "+err.Error()))
		return
	}

	user, _ := httpapi.Caller(ctx)

	b, err := c.BookRide(ctx.Request.Context(), BookInput{RideID: req.RideID, PassengerID: user, Destination: req.Destination})
	if err != nil {
		httpapi.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, b)
}

func (c *Coordinator) handleCancel(ctx *gin.Context) {
	user, _ := httpapi.Caller(ctx)

	msg, err := c.CancelBooking(ctx.Request.Context(), ctx.Param("id"), user)
	if err != nil {
		httpapi.Error(ctx, err)
		return
	}

	httpapi.Message(ctx, msg)
}

func (c *Coordinator) handleMine(ctx *gin.Context) {
	user, _ := httpapi.Caller(ctx)

	list, err := c.ListMine(ctx.Request.Context(), user)
	if err != nil {
		httpapi.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}

func (c *Coordinator) handleAll(ctx *gin.Context) {
	user, _ := httpapi.Caller(ctx)

	list, err := c.ListAll(ctx.Request.Context(), user)
	if err != nil {
		httpapi.Error(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, list)
}
