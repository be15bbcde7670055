package routes

import (
	"todo-demo/internal/controller"
	"todo-demo/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Router wires the API. Reads are public; mutations require a JWT signed with jwtSecret.
func Router(h *controller.Handler, jwtSecret string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), middleware.AccessLog())

	// Health for load balancers and K8s probes
	router.GET("/health", h.Health)
	router.GET("/ready", h.Ready)
	router.GET("/debug/stats", h.Stats)

	// Public: no auth
	router.GET("/lists", h.GetLists)
	router.GET("/lists/:id/items", h.GetItems)

	// Protected: JWT required
	api := router.Group("")
	api.Use(middleware.AuthMiddleware(jwtSecret))
	{
		api.POST("/lists", h.CreateList)
		api.PUT("/lists/:id", h.UpdateList)
		api.DELETE("/lists/:id", h.DeleteList)
		api.POST("/lists/:id/items", h.CreateItem)
		api.PATCH("/items/:id", h.UpdateItem)
		api.DELETE("/items/:id", h.DeleteItem)
		api.POST("/items/:id/toggle", h.ToggleItem)
	}

	return router
}
