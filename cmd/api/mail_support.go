package main

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yourusername/healing-board/internal/config"
	"github.com/yourusername/healing-board/internal/mail"
)

// deliveryLogTTL は配送状態レコードをRedisに残す期間です。
const deliveryLogTTL = 24 * time.Hour

// setupNotifier はメール通知の送信経路を組み立てます。
// MAIL_ASYNC が無効な場合はSMTPへの同期送信、有効な場合はAsynqキュー経由になります。
// キュー経由の場合はワーカーも同一プロセス内で起動します。
func setupNotifier(cfg *config.Config, logger *zap.Logger) (mail.Notifier, func(), error) {
	sender := mail.NewSMTPSender(
		cfg.SMTPHost,
		cfg.SMTPPort,
		cfg.SMTPUsername,
		cfg.SMTPPassword,
		cfg.MailFrom,
	)

	if !cfg.MailAsync {
		return sender, nil, nil
	}

	opt, err := redis.ParseURL(cfg.QueueRedisURL)
	if err != nil {
		return nil, nil, err
	}

	redisClient := redis.NewClient(opt)
	store := mail.NewStore(redisClient, deliveryLogTTL)
	manager, err := mail.NewManager(cfg.QueueRedisURL, sender, store, logger)
	if err != nil {
		return nil, nil, err
	}

	manager.StartWorkers()

	shutdown := func() {
		_ = manager.Shutdown(context.Background())
		_ = redisClient.Close()
	}
	return manager, shutdown, nil
}
