package router

import (
	"github.com/gin-gonic/gin"

	"Lee_Forum/internal/handler"
	"Lee_Forum/internal/middleware"
	"Lee_Forum/internal/pkg"
	"Lee_Forum/internal/service"
)

// Deps 路由需要的全部服务
type Deps struct {
	Verifier  *pkg.TokenVerifier
	Identity  *service.IdentityService
	Sections  *service.SectionService
	Channels  *service.ChannelService
	Threads   *service.ThreadService
	Comments  *service.CommentService
	Polls     *service.PollService
	Reactions *service.ReactionService
}

func InitRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())

	user := handler.NewUserHandler(d.Identity)
	section := handler.NewSectionHandler(d.Sections)
	channel := handler.NewChannelHandler(d.Channels)
	thread := handler.NewThreadHandler(d.Threads, d.Channels)
	comment := handler.NewCommentHandler(d.Comments)
	poll := handler.NewPollHandler(d.Polls)
	reaction := handler.NewReactionHandler(d.Reactions)

	// 读接口：可匿名，登录时附带“我是否点过赞/投过票”
	pub := r.Group("/api")
	pub.Use(middleware.OptionalAuth(d.Verifier, d.Identity))
	{
		pub.GET("/users/:id", user.Get)
		pub.GET("/sections", section.List)
		pub.GET("/sections/:id", section.Get)
		pub.GET("/channels", channel.List)
		pub.GET("/channels/:id/threads", thread.List)
		pub.GET("/c/:slug", channel.GetBySlug)
		pub.GET("/c/:slug/t/:number", thread.Get)
		pub.GET("/threads/:id/comments", comment.List)
		pub.GET("/polls/:id", poll.Results)
		pub.GET("/reactions/:target/:id", reaction.Summary)
	}

	// 写接口：必须登录
	auth := r.Group("/api")
	auth.Use(middleware.AuthMiddleware(d.Verifier, d.Identity))
	{
		auth.GET("/me", user.Me)
		auth.PATCH("/me", user.UpdateProfile)
		auth.PUT("/users/:id/role", user.SetRole)

		auth.POST("/sections", section.Create)
		auth.PATCH("/sections/:id", section.Update)
		auth.POST("/sections/:id/toggle", section.ToggleStatus)
		auth.PUT("/sections/order", section.Reorder)
		auth.POST("/sections/publish", section.Publish)
		auth.DELETE("/sections/:id", section.Delete)

		auth.POST("/channels", channel.Create)
		auth.PATCH("/channels/:id", channel.Update)
		auth.PUT("/channels/:id/section", channel.Move)
		auth.PUT("/channels/order", channel.Reorder)
		auth.DELETE("/channels/:id", channel.Delete)

		auth.POST("/channels/:id/threads", thread.Create)
		auth.PATCH("/threads/:id", thread.Update)
		auth.DELETE("/threads/:id", thread.Delete)
		auth.PUT("/threads/:id/sticky", thread.SetSticky)
		auth.POST("/threads/:id/upvote", reaction.ToggleUpvote)

		auth.POST("/threads/:id/comments", comment.Create)
		auth.PATCH("/comments/:id", comment.Update)
		auth.DELETE("/comments/:id", comment.Delete)
		auth.POST("/comments/:id/like", reaction.ToggleLike)

		auth.POST("/polls/:id/votes", poll.Vote)
	}

	return r
}
