package calendar

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/healing-board/internal/apperr"
	"github.com/yourusername/healing-board/internal/auth"
	"github.com/yourusername/healing-board/internal/authz"
	"github.com/yourusername/healing-board/internal/user"
)

// UserFinder はログインIDから会員を引くための参照です。
type UserFinder interface {
	FindByHandle(ctx context.Context, iduser string) (*user.User, error)
}

// Handler はヒーリング記録エンドポイントのハンドラーをまとめた構造体です。
// すべてのエンドポイントがログインを必要とします。
type Handler struct {
	repo   *Repository
	users  UserFinder
	logger *zap.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(repo *Repository, users UserFinder, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, users: users, logger: logger}
}

// ListByUser は GET /api/healing-calendar/:iduser のハンドラーです。
// パスで指定された会員の記録を日付の昇順で返します。
func (h *Handler) ListByUser(c *gin.Context) {
	iduser := c.Param("iduser")

	found, err := h.users.FindByHandle(c.Request.Context(), iduser)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "ユーザーがいません。")
			return
		}
		h.logger.Error("user lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	records, err := h.repo.FindByUser(c.Request.Context(), found.ID)
	if err != nil {
		h.logger.Error("healing record list failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}
	if records == nil {
		records = []Record{}
	}
	c.JSON(http.StatusOK, records)
}

type recordRequest struct {
	Place       string `json:"place"`
	RecordDate  string `json:"record_date"`
	EmotionPrev string `json:"emotion_prev"`
	EmotionNext string `json:"emotion_next"`
}

func (r *recordRequest) incomplete() bool {
	return r.Place == "" || r.RecordDate == "" || r.EmotionPrev == "" || r.EmotionNext == ""
}

// Create は POST /api/healing-calendar のハンドラーです。所有者はログイン中の会員になります。
func (h *Handler) Create(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.KindAuthentication, "ログインが必要です。")
		return
	}

	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.incomplete() {
		apperr.Respond(c, apperr.KindValidation, "必須情報が欠けています。")
		return
	}

	id, err := h.repo.Create(c.Request.Context(), principal.ID, req.Place, req.RecordDate, req.EmotionPrev, req.EmotionNext)
	if err != nil {
		h.logger.Error("healing record create failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ヒーリング記録を保存しました。", "id": id})
}

// Update は PUT /api/healing-calendar/:id のハンドラーです。
// 先に記録を取得して所有者を確かめるため、存在しない記録は権限判定より先に 404 になります。
func (h *Handler) Update(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.KindAuthentication, "ログインが必要です。")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apperr.Respond(c, apperr.KindValidation, "記録IDが不正です。")
		return
	}

	var req recordRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.incomplete() {
		apperr.Respond(c, apperr.KindValidation, "必須情報が欠けています。")
		return
	}

	found, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "記録が見つかりません。")
			return
		}
		h.logger.Error("healing record lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	if !authz.CanMutate(principal.ID, found.UserID, principal.Role) {
		apperr.Respond(c, apperr.KindAuthorization, "権限がありません。")
		return
	}

	if err := h.repo.Update(c.Request.Context(), id, req.Place, req.RecordDate, req.EmotionPrev, req.EmotionNext); err != nil {
		h.logger.Error("healing record update failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ヒーリング記録を修正しました。"})
}

// Delete は DELETE /api/healing-calendar/:id のハンドラーです。判定の順序は Update と同じです。
func (h *Handler) Delete(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.KindAuthentication, "ログインが必要です。")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apperr.Respond(c, apperr.KindValidation, "記録IDが不正です。")
		return
	}

	found, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "記録が見つかりません。")
			return
		}
		h.logger.Error("healing record lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	if !authz.CanMutate(principal.ID, found.UserID, principal.Role) {
		apperr.Respond(c, apperr.KindAuthorization, "権限がありません。")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("healing record delete failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ヒーリング記録を削除しました。"})
}

func parseID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
