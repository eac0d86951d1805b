// router/router.go

package router

import (
	"github.com/gin-gonic/gin"

	"github.com/apipatb/earning-sub014/controller"
	"github.com/apipatb/earning-sub014/middleware"
	"github.com/apipatb/earning-sub014/service"
)

func SetupRouter(
	controllers *controller.Controllers,
	rateLimitSvc service.IRateLimitService,
	rateLimitRequests int,
	rateLimitWindowMinutes int,
) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.Logger())
	router.Use(middleware.RateLimiter(rateLimitSvc, rateLimitRequests, rateLimitWindowMinutes))
	router.Use(middleware.AuthMiddleware())

	api := router.Group("/api/v1")

	controllers.Grant.RegisterRoutes(api)
	controllers.Ticket.RegisterRoutes(api)

	return router
}
