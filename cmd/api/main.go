// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"log"
	"net/http"
	"strings"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/healing-board/internal/auth"
	"github.com/yourusername/healing-board/internal/calendar"
	"github.com/yourusername/healing-board/internal/comment"
	"github.com/yourusername/healing-board/internal/config"
	"github.com/yourusername/healing-board/internal/db"
	"github.com/yourusername/healing-board/internal/post"
	"github.com/yourusername/healing-board/internal/session"
	"github.com/yourusername/healing-board/internal/user"
	"github.com/yourusername/healing-board/internal/verify"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := newLogger(cfg)
	defer func() { _ = logger.Sync() }()

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// PostgreSQLへ接続してスキーマを初期化
	dbConn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer dbConn.Close()

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()

	// セッションストアの設定（クッキー署名鍵は必須）
	store := cookie.NewStore([]byte(cfg.SessionSecret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   session.MaxAgeSeconds(),
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	router.Use(sessions.Sessions(session.CookieName, store))

	// CORSミドルウェアの設定
	corsConfig := cors.DefaultConfig()
	// CORS許可オリジンを設定（カンマ区切りの文字列を配列に変換）
	origins := strings.Split(cfg.CORSAllowedOrigins, ",")
	corsConfig.AllowOrigins = origins
	// セッションクッキーを伴うリクエストを許可する
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Origin",
		"Content-Type",
		"Accept",
	}
	router.Use(cors.New(corsConfig))

	// メール通知の設定（MAIL_ASYNC が有効ならキュー経由）
	notifier, shutdownNotifier, err := setupNotifier(cfg, logger)
	if err != nil {
		logger.Fatal("failed to set up mail notifier", zap.Error(err))
	}
	if shutdownNotifier != nil {
		defer shutdownNotifier()
	}

	// 各コンポーネントの組み立て
	users := user.NewRepository(dbConn)
	hasher := auth.NewHasher(cfg.BcryptCost)
	verifier := verify.NewEngine()

	authManager := auth.NewManager(users, hasher, verifier, notifier, logger)
	userHandler := user.NewHandler(users, logger)
	postHandler := post.NewHandler(post.NewRepository(dbConn), users, logger)
	commentHandler := comment.NewHandler(comment.NewRepository(dbConn), logger)
	calendarHandler := calendar.NewHandler(calendar.NewRepository(dbConn), users, logger)

	// ルーティングの設定
	setupRoutes(router, authManager, userHandler, postHandler, commentHandler, calendarHandler)

	// サーバーの起動
	addr := ":" + cfg.Port
	logger.Info("starting API server",
		zap.String("addr", addr),
		zap.String("mode", cfg.GinMode),
	)
	if err := router.Run(addr); err != nil {
		logger.Fatal("failed to start server", zap.Error(err))
	}
}

// newLogger は実行モードに応じたロガーを作成します。
func newLogger(cfg *config.Config) *zap.Logger {
	var logger *zap.Logger
	var err error
	if cfg.GinMode == gin.ReleaseMode {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	return logger
}
