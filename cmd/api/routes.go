package main

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/healing-board/internal/auth"
	"github.com/yourusername/healing-board/internal/calendar"
	"github.com/yourusername/healing-board/internal/comment"
	"github.com/yourusername/healing-board/internal/post"
	"github.com/yourusername/healing-board/internal/user"
)

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "healing-board-api",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
// パスと動詞は既存のフロントエンドとの互換性のため変更しません。
func setupRoutes(
	router *gin.Engine,
	authManager *auth.Manager,
	userHandler *user.Handler,
	postHandler *post.Handler,
	commentHandler *comment.Handler,
	calendarHandler *calendar.Handler,
) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	api := router.Group("/api")
	{
		// 認証・メール認証・パスワード再設定
		api.POST("/send-verification", authManager.SendVerification)
		api.POST("/verify-code", authManager.VerifyCode)
		api.POST("/signup", authManager.Signup)
		api.POST("/login", authManager.Login)
		api.POST("/logout", auth.RequireLogin(), authManager.Logout)
		api.POST("/send-reset-code", authManager.SendResetCode)
		api.POST("/verify-reset-code", authManager.VerifyResetCode)
		api.POST("/reset-password", authManager.ResetPassword)

		// 閲覧系は認証不要
		api.GET("/posts", postHandler.List)
		api.GET("/posts/:id", postHandler.GetByID)
		api.GET("/comments", commentHandler.List)
		api.GET("/comments/:id", commentHandler.GetByID)

		// 変更系と個人情報はログイン必須
		protected := api.Group("")
		protected.Use(auth.RequireLogin())
		{
			protected.GET("/users/:iduser", userHandler.Info)
			protected.DELETE("/users/:iduser", userHandler.Withdraw)

			protected.POST("/posts", postHandler.Create)
			protected.PUT("/posts/:id", postHandler.Update)
			protected.DELETE("/posts/:id", postHandler.Delete)
			protected.GET("/my-posts/:iduser", postHandler.MyPosts)

			protected.POST("/comments", commentHandler.Create)
			protected.PUT("/comments/:id", commentHandler.Update)
			protected.DELETE("/comments/:id", commentHandler.Delete)

			protected.GET("/healing-calendar/:iduser", calendarHandler.ListByUser)
			protected.POST("/healing-calendar", calendarHandler.Create)
			protected.PUT("/healing-calendar/:id", calendarHandler.Update)
			protected.DELETE("/healing-calendar/:id", calendarHandler.Delete)
		}
	}
}
