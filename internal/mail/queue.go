package mail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const taskTypeDeliver = "mail:deliver"

// TaskPayload はメール配送タスクのペイロードです。
type TaskPayload struct {
	DeliveryID string `json:"deliveryId"`
	To         string `json:"to"`
	Subject    string `json:"subject"`
	Body       string `json:"body"`
}

// Manager はメール配送タスクの投入とワーカー管理を担います。
// Notifier を実装するため、ハンドラーからは同期送信と透過的に差し替えられます。
type Manager struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
	store  *Store
	sender Notifier
	logger *zap.Logger
}

// NewManager は Manager を初期化します。
// sender はワーカーが実際の送信に使う Notifier（通常は SMTPSender）です。
func NewManager(redisURL string, sender Notifier, store *Store, logger *zap.Logger) (*Manager, error) {
	if sender == nil {
		return nil, errors.New("sender is nil")
	}
	if store == nil {
		return nil, errors.New("store is nil")
	}
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	client := asynq.NewClient(opt)
	server := asynq.NewServer(
		opt,
		asynq.Config{
			Concurrency: 4,
			Queues: map[string]int{
				"mail": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	manager := &Manager{
		client: client,
		server: server,
		mux:    mux,
		store:  store,
		sender: sender,
		logger: logger,
	}
	mux.HandleFunc(taskTypeDeliver, manager.handleDeliverTask)

	return manager, nil
}

// StartWorkers は Asynq サーバーをバックグラウンドで起動します。
func (m *Manager) StartWorkers() {
	go func() {
		if err := m.server.Run(m.mux); err != nil && err != asynq.ErrServerClosed {
			m.logger.Error("asynq server stopped", zap.Error(err))
		}
	}()
}

// Shutdown はサーバーとクライアントを閉じます。
func (m *Manager) Shutdown(ctx context.Context) error {
	m.server.Shutdown()
	m.client.Close()
	return nil
}

// Deliver はメール配送タスクをキューへ投入します。
// キュー投入に失敗した場合のみエラーを返し、それが呼び出し元の配送エラーになります。
// 再送は行わないため MaxRetry は 0 です。
func (m *Manager) Deliver(ctx context.Context, to, subject, body string) error {
	payload := &TaskPayload{
		DeliveryID: uuid.NewString(),
		To:         to,
		Subject:    subject,
		Body:       body,
	}

	if err := m.store.Upsert(ctx, &Record{
		DeliveryID: payload.DeliveryID,
		Recipient:  to,
		Subject:    subject,
		Status:     StatusQueued,
	}); err != nil {
		return err
	}

	body2, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(taskTypeDeliver, body2, asynq.Queue("mail"))
	if _, err := m.client.EnqueueContext(ctx, task, asynq.MaxRetry(0)); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}

func (m *Manager) handleDeliverTask(ctx context.Context, task *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}
	if payload.DeliveryID == "" {
		return fmt.Errorf("missing deliveryId in payload")
	}

	if err := m.sender.Deliver(ctx, payload.To, payload.Subject, payload.Body); err != nil {
		m.logger.Warn("mail delivery failed",
			zap.String("deliveryId", payload.DeliveryID),
			zap.Error(err),
		)
		if markErr := m.store.MarkFailed(ctx, payload.DeliveryID, err.Error()); markErr != nil {
			m.logger.Warn("failed to record delivery failure", zap.Error(markErr))
		}
		return err
	}

	if err := m.store.MarkSent(ctx, payload.DeliveryID); err != nil {
		m.logger.Warn("failed to record delivery success", zap.Error(err))
	}
	return nil
}
