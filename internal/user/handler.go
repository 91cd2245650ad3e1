package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/healing-board/internal/apperr"
	"github.com/yourusername/healing-board/internal/session"
)

// Store はアカウント系ハンドラーが必要とする会員情報の操作です。
type Store interface {
	FindByHandle(ctx context.Context, iduser string) (*User, error)
	Withdraw(ctx context.Context, userID int64) error
}

// Handler はアカウント系エンドポイントのハンドラーをまとめた構造体です。
type Handler struct {
	store  Store
	logger *zap.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(store Store, logger *zap.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Info は GET /api/users/:iduser のハンドラーです。
// ログインIDとメールアドレスのみを返します。
func (h *Handler) Info(c *gin.Context) {
	iduser := c.Param("iduser")

	found, err := h.store.FindByHandle(c.Request.Context(), iduser)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "ユーザーがいません。")
			return
		}
		h.logger.Error("user lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"iduser": found.IDUser,
		"email":  found.Email,
	})
}

// Withdraw は DELETE /api/users/:iduser のハンドラーです。
// 退会は本人のみ可能で、admin ロールでも他人のアカウントは退会させられません。
// 所有リソースを順に削除したあと、セッションを破棄します。
func (h *Handler) Withdraw(c *gin.Context) {
	iduser := c.Param("iduser")

	st := session.Current(c)
	principal, ok := st.Principal()
	if !ok {
		apperr.Respond(c, apperr.KindAuthentication, "ログインが必要です。")
		return
	}
	if principal.IDUser != iduser {
		apperr.Respond(c, apperr.KindAuthorization, "本人のアカウントのみ退会できます。")
		return
	}

	found, err := h.store.FindByHandle(c.Request.Context(), iduser)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "ユーザーがいません。")
			return
		}
		h.logger.Error("user lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	if err := h.store.Withdraw(c.Request.Context(), found.ID); err != nil {
		// 途中で失敗した場合、先行する削除は取り消されずそのまま残る
		h.logger.Error("withdrawal cascade failed",
			zap.String("iduser", iduser),
			zap.Error(err),
		)
		apperr.Respond(c, apperr.KindStorage, "退会処理に失敗しました: "+err.Error())
		return
	}

	if err := st.Destroy(); err != nil {
		apperr.Respond(c, apperr.KindStorage, "セッションの削除に失敗しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "会員退会成功"})
}
