package comment

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/healing-board/internal/apperr"
	"github.com/yourusername/healing-board/internal/auth"
	"github.com/yourusername/healing-board/internal/authz"
)

// Handler はコメントエンドポイントのハンドラーをまとめた構造体です。
type Handler struct {
	repo   *Repository
	logger *zap.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(repo *Repository, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

type createRequest struct {
	PostID  int64  `json:"postId"`
	Content string `json:"content"`
}

// Create は POST /api/comments のハンドラーです。所有者はログイン中の会員になります。
func (h *Handler) Create(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.KindAuthentication, "ログインが必要です。")
		return
	}

	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.PostID == 0 || req.Content == "" {
		apperr.Respond(c, apperr.KindValidation, "投稿IDと内容を入力してください。")
		return
	}

	id, err := h.repo.Create(c.Request.Context(), req.PostID, principal.ID, req.Content)
	if err != nil {
		h.logger.Error("comment create failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"commentId": id})
}

// List は GET /api/comments のハンドラーです。認証不要です。
func (h *Handler) List(c *gin.Context) {
	comments, err := h.repo.FindAll(c.Request.Context())
	if err != nil {
		h.logger.Error("comment list failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}
	if comments == nil {
		comments = []Comment{}
	}
	c.JSON(http.StatusOK, comments)
}

// GetByID は GET /api/comments/:id のハンドラーです。認証不要です。
func (h *Handler) GetByID(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		apperr.Respond(c, apperr.KindValidation, "コメントIDが不正です。")
		return
	}

	found, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "コメントが見つかりません。")
			return
		}
		h.logger.Error("comment lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusOK, found)
}

type updateRequest struct {
	Content string `json:"content"`
}

// Update は PUT /api/comments/:id のハンドラーです。
// 先にコメントを取得して所有者を確かめるため、存在しないコメントは権限判定より先に 404 になります。
func (h *Handler) Update(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.KindAuthentication, "ログインが必要です。")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apperr.Respond(c, apperr.KindValidation, "コメントIDが不正です。")
		return
	}

	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		apperr.Respond(c, apperr.KindValidation, "内容を入力してください。")
		return
	}

	found, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "コメントが見つかりません。")
			return
		}
		h.logger.Error("comment lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	if !authz.CanMutate(principal.ID, found.UserID, principal.Role) {
		apperr.Respond(c, apperr.KindAuthorization, "権限がありません。")
		return
	}

	if err := h.repo.Update(c.Request.Context(), id, req.Content); err != nil {
		h.logger.Error("comment update failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "コメントを修正しました。"})
}

// Delete は DELETE /api/comments/:id のハンドラーです。判定の順序は Update と同じです。
func (h *Handler) Delete(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.KindAuthentication, "ログインが必要です。")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apperr.Respond(c, apperr.KindValidation, "コメントIDが不正です。")
		return
	}

	found, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "コメントが見つかりません。")
			return
		}
		h.logger.Error("comment lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	if !authz.CanMutate(principal.ID, found.UserID, principal.Role) {
		apperr.Respond(c, apperr.KindAuthorization, "権限がありません。")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("comment delete failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "コメントを削除しました。"})
}

func parseID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
