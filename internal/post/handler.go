package post

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

// Handler は投稿エンドポイントのハンドラーをまとめた構造体です。
type Handler struct {
	repo   *Repository
	users  UserFinder
	logger *zap.Logger
}

// NewHandler は Handler を作成します。
func NewHandler(repo *Repository, users UserFinder, logger *zap.Logger) *Handler {
	return &Handler{repo: repo, users: users, logger: logger}
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// Create は POST /api/posts のハンドラーです。所有者はログイン中の会員になります。
func (h *Handler) Create(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.KindAuthentication, "ログインが必要です。")
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" || req.Content == "" {
		apperr.Respond(c, apperr.KindValidation, "タイトルと内容を入力してください。")
		return
	}

	id, err := h.repo.Create(c.Request.Context(), principal.ID, req.Title, req.Content)
	if err != nil {
		h.logger.Error("post create failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"postId": id})
}

// List は GET /api/posts のハンドラーです。認証不要です。
func (h *Handler) List(c *gin.Context) {
	posts, err := h.repo.FindAll(c.Request.Context())
	if err != nil {
		h.logger.Error("post list failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}
	if posts == nil {
		posts = []Post{}
	}
	c.JSON(http.StatusOK, posts)
}

// GetByID は GET /api/posts/:id のハンドラーです。認証不要です。
func (h *Handler) GetByID(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		apperr.Respond(c, apperr.KindValidation, "投稿IDが不正です。")
		return
	}

	found, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "投稿が見つかりません。")
			return
		}
		h.logger.Error("post lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusOK, found)
}

// MyPosts は GET /api/my-posts/:iduser のハンドラーです。
// パスで指定された会員の投稿を新しい順に返します。
func (h *Handler) MyPosts(c *gin.Context) {
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

	posts, err := h.repo.FindByUser(c.Request.Context(), found.ID)
	if err != nil {
		h.logger.Error("post list failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}
	if posts == nil {
		posts = []Post{}
	}
	c.JSON(http.StatusOK, posts)
}

// Update は PUT /api/posts/:id のハンドラーです。
// 先に投稿を取得して所有者を確かめるため、存在しない投稿は権限判定より先に 404 になります。
func (h *Handler) Update(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.KindAuthentication, "ログインが必要です。")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apperr.Respond(c, apperr.KindValidation, "投稿IDが不正です。")
		return
	}

	var req postRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Title == "" || req.Content == "" {
		apperr.Respond(c, apperr.KindValidation, "タイトルと内容を入力してください。")
		return
	}

	found, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "投稿が見つかりません。")
			return
		}
		h.logger.Error("post lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	if !authz.CanMutate(principal.ID, found.UserID, principal.Role) {
		apperr.Respond(c, apperr.KindAuthorization, "権限がありません。")
		return
	}

	if err := h.repo.Update(c.Request.Context(), id, req.Title, req.Content); err != nil {
		h.logger.Error("post update failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "投稿を修正しました。"})
}

// Delete は DELETE /api/posts/:id のハンドラーです。判定の順序は Update と同じです。
func (h *Handler) Delete(c *gin.Context) {
	principal, ok := auth.PrincipalFrom(c)
	if !ok {
		apperr.Respond(c, apperr.KindAuthentication, "ログインが必要です。")
		return
	}

	id, err := parseID(c)
	if err != nil {
		apperr.Respond(c, apperr.KindValidation, "投稿IDが不正です。")
		return
	}

	found, err := h.repo.FindByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "投稿が見つかりません。")
			return
		}
		h.logger.Error("post lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	if !authz.CanMutate(principal.ID, found.UserID, principal.Role) {
		apperr.Respond(c, apperr.KindAuthorization, "権限がありません。")
		return
	}

	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		h.logger.Error("post delete failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "投稿を削除しました。"})
}

func parseID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
