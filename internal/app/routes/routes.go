package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yigit/bojio/internal/app/controllers"
	"github.com/yigit/bojio/internal/app/models/dto"
	"github.com/yigit/bojio/internal/middleware"
	"github.com/yigit/bojio/internal/pkg/metrics"
	"github.com/yigit/bojio/internal/pkg/websocket"
)

// Controllers groups the HTTP handlers mounted by SetupRouter
type Controllers struct {
	User      *controllers.UserController
	Post      *controllers.PostController
	Event     *controllers.EventController
	Poll      *controllers.PollController
	Community *controllers.CommunityController
	Upload    *controllers.UploadController
}

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	ctrl Controllers,
	authMiddleware *middleware.AuthMiddleware,
	wsHandler *websocket.Handler,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// Revalidation subscriptions carry only an opaque path token
	v1.GET("/revalidate/ws", wsHandler.HandleConnection)

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.RequireAuth())

	// Profile routes stay reachable before onboarding
	authenticated.GET("/users/me", ctrl.User.GetMe)
	authenticated.PUT("/users/me", ctrl.User.UpdateMe)

	onboarded := authenticated.Group("")
	onboarded.Use(authMiddleware.RequireUser())
	{
		users := onboarded.Group("/users")
		{
			users.GET("", ctrl.User.GetUsers)
			users.GET("/:id", ctrl.User.GetUserByID)
			users.GET("/:id/posts", ctrl.User.GetUserPosts)
			users.GET("/:id/events", ctrl.User.GetUserEvents)
			users.GET("/:id/activity", ctrl.User.GetUserActivity)
		}

		posts := onboarded.Group("/posts")
		{
			posts.GET("", ctrl.Post.GetPosts)
			posts.POST("", ctrl.Post.CreatePost)
			posts.GET("/:id", ctrl.Post.GetPostByID)
			posts.DELETE("/:id", ctrl.Post.DeletePost)
			posts.POST("/:id/comments", ctrl.Post.AddComment)
			posts.GET("/:id/thread", ctrl.Post.GetDescendants)
		}

		events := onboarded.Group("/events")
		{
			events.GET("", ctrl.Event.GetEvents)
			events.POST("", ctrl.Event.CreateEvent)
			events.GET("/:id", ctrl.Event.GetEventByID)
			events.PUT("/:id", ctrl.Event.UpdateEvent)
			events.DELETE("/:id", ctrl.Event.DeleteEvent)
			events.POST("/:id/comments", ctrl.Event.AddComment)
			events.GET("/:id/participants", ctrl.Event.GetParticipants)
			events.POST("/:id/participants", ctrl.Event.JoinEvent)
			events.GET("/:id/poll", ctrl.Poll.GetEventPoll)
			events.POST("/:id/poll", ctrl.Poll.CreatePoll)
		}

		polls := onboarded.Group("/polls")
		{
			polls.GET("/:id", ctrl.Poll.GetPoll)
			polls.GET("/:id/results", ctrl.Poll.GetResults)
			polls.GET("/:id/voted", ctrl.Poll.HasVoted)
			polls.POST("/:id/vote", ctrl.Poll.Vote)
		}

		communities := onboarded.Group("/communities")
		{
			communities.GET("", ctrl.Community.GetAllCommunities)
			communities.POST("", ctrl.Community.CreateCommunity)
			communities.GET("/:id", ctrl.Community.GetCommunityByID)
			communities.PUT("/:id", ctrl.Community.UpdateCommunity)
			communities.DELETE("/:id", ctrl.Community.DeleteCommunity)
			communities.GET("/:id/posts", ctrl.Community.GetCommunityPosts)
			communities.GET("/:id/events", ctrl.Community.GetCommunityEvents)
			communities.GET("/:id/membership", ctrl.Community.GetMembership)
			communities.POST("/:id/members", ctrl.Community.JoinCommunity)
			communities.DELETE("/:id/members", ctrl.Community.LeaveCommunity)
		}

		onboarded.POST("/uploads/images", ctrl.Upload.UploadImage)
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, dto.NewStructuredResponse(gin.H{"status": "ok"}, "Service is healthy"))
	})

	router.GET("/metrics", metrics.Handler())
}
