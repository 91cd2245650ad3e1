package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/healing-board/internal/apperr"
	"github.com/yourusername/healing-board/internal/mail"
	"github.com/yourusername/healing-board/internal/session"
	"github.com/yourusername/healing-board/internal/user"
	"github.com/yourusername/healing-board/internal/verify"
)

// UserStore は認証エンドポイントが必要とする会員情報の操作です。
type UserStore interface {
	Register(ctx context.Context, iduser, passwordHash, email, name string) (int64, error)
	FindByHandle(ctx context.Context, iduser string) (*user.User, error)
	FindByHandleEmail(ctx context.Context, iduser, email string) (*user.User, error)
	UpdatePassword(ctx context.Context, iduser, email, passwordHash string) error
}

// Manager は認証・メール認証・パスワード再設定のハンドラーをまとめた構造体です。
type Manager struct {
	users    UserStore
	hasher   *Hasher
	verifier *verify.Engine
	notifier mail.Notifier
	logger   *zap.Logger
}

// NewManager は認証マネージャーを作成します。
func NewManager(users UserStore, hasher *Hasher, verifier *verify.Engine, notifier mail.Notifier, logger *zap.Logger) *Manager {
	return &Manager{
		users:    users,
		hasher:   hasher,
		verifier: verifier,
		notifier: notifier,
		logger:   logger,
	}
}

type sendVerificationRequest struct {
	Email string `json:"email"`
}

// SendVerification は POST /api/send-verification のハンドラーです。
// メール認証コードを発行してセッションへ保存し、メールを送信します。
// 送信に失敗してもコードは保存されたままです（再発行で上書き可能）。
func (m *Manager) SendVerification(c *gin.Context) {
	var req sendVerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		apperr.Respond(c, apperr.KindValidation, "メールアドレスを入力してください。")
		return
	}

	st := session.Current(c)
	code, err := m.verifier.Issue(st, verify.NamespaceSignupEmail, verify.Binding{Email: req.Email})
	if err != nil {
		apperr.Respond(c, apperr.KindStorage, "認証コードの発行に失敗しました。")
		return
	}
	if err := st.Save(); err != nil {
		apperr.Respond(c, apperr.KindStorage, "セッションの保存に失敗しました。")
		return
	}

	body := fmt.Sprintf("認証コードは %s です。", code)
	if err := m.notifier.Deliver(c.Request.Context(), req.Email, "メール認証コード", body); err != nil {
		m.logger.Warn("verification mail delivery failed", zap.Error(err))
		apperr.Respond(c, apperr.KindDelivery, "メール送信に失敗しました: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "認証コードが発送されました。"})
}

type verifyCodeRequest struct {
	Email string `json:"email"`
	Code  string `json:"code"`
}

// VerifyCode は POST /api/verify-code のハンドラーです。
// 期限切れ・不一致・成功の三値で応答します。
func (m *Manager) VerifyCode(c *gin.Context) {
	var req verifyCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.KindValidation, "メールアドレスと認証コードを入力してください。")
		return
	}

	st := session.Current(c)
	outcome := m.verifier.Validate(st, verify.NamespaceSignupEmail, verify.Binding{Email: req.Email}, req.Code)
	switch outcome {
	case verify.OutcomeExpired:
		apperr.Respond(c, apperr.KindExpiredCode, "認証コードが期限切れです。再発送してください。")
	case verify.OutcomeMismatch:
		apperr.Respond(c, apperr.KindMismatchCode, "認証コードが一致しません。")
	case verify.OutcomeVerified:
		if err := st.Save(); err != nil {
			apperr.Respond(c, apperr.KindStorage, "セッションの保存に失敗しました。")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "メール認証成功"})
	}
}

type signupRequest struct {
	IDUser string `json:"iduser"`
	UserPW string `json:"userpw"`
	Email  string `json:"email"`
	Name   string `json:"name"`
}

// Signup は POST /api/signup のハンドラーです。
// 登録成功時はメール認証の状態をセッションから取り除きます。
func (m *Manager) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.IDUser == "" || req.UserPW == "" || req.Email == "" || req.Name == "" {
		apperr.Respond(c, apperr.KindValidation, "ID、パスワード、メールアドレス、名前を入力してください。")
		return
	}

	hashed, err := m.hasher.Hash(req.UserPW)
	if err != nil {
		apperr.Respond(c, apperr.KindStorage, "サーバーエラーが発生しました。")
		return
	}

	if _, err := m.users.Register(c.Request.Context(), req.IDUser, hashed, req.Email, req.Name); err != nil {
		if errors.Is(err, apperr.ErrDuplicateHandle) {
			apperr.Respond(c, apperr.KindDuplicateHandle, "IDが重複しています。")
			return
		}
		m.logger.Error("user registration failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	st := session.Current(c)
	m.verifier.Consume(st, verify.NamespaceSignupEmail)
	if err := st.Save(); err != nil {
		apperr.Respond(c, apperr.KindStorage, "セッションの保存に失敗しました。")
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "会員登録完了", "redirect": "/login"})
}

type loginRequest struct {
	IDUser string `json:"iduser"`
	UserPW string `json:"userpw"`
}

// Login は POST /api/login のハンドラーです。
// 成功時のみセッションへログイン情報を保存します。失敗時はセッションに触れません。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IDUser == "" || req.UserPW == "" {
		apperr.Respond(c, apperr.KindValidation, "IDとパスワードを入力してください。")
		return
	}

	found, err := m.users.FindByHandle(c.Request.Context(), req.IDUser)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindAuthentication, "存在しないIDです。")
			return
		}
		m.logger.Error("user lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	if !m.hasher.Verify(found.UserPW, req.UserPW) {
		apperr.Respond(c, apperr.KindAuthentication, "パスワードが違います。")
		return
	}

	st := session.Current(c)
	st.SetPrincipal(session.Principal{
		IDUser: found.IDUser,
		ID:     found.ID,
		Role:   found.Role,
	})
	if err := st.Save(); err != nil {
		apperr.Respond(c, apperr.KindStorage, "セッションの保存に失敗しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ログイン成功", "iduser": found.IDUser})
}

// Logout は POST /api/logout のハンドラーです。セッションを破棄します。
func (m *Manager) Logout(c *gin.Context) {
	st := session.Current(c)
	if err := st.Destroy(); err != nil {
		apperr.Respond(c, apperr.KindStorage, "セッションの削除に失敗しました。")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "ログアウトしました。"})
}

type sendResetCodeRequest struct {
	IDUser string `json:"iduser"`
	Email  string `json:"email"`
}

// SendResetCode は POST /api/send-reset-code のハンドラーです。
// IDとメールアドレスの組が存在する場合のみ再設定コードを発行します。
func (m *Manager) SendResetCode(c *gin.Context) {
	var req sendResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.IDUser == "" || req.Email == "" {
		apperr.Respond(c, apperr.KindValidation, "IDとメールアドレスを入力してください。")
		return
	}

	if _, err := m.users.FindByHandleEmail(c.Request.Context(), req.IDUser, req.Email); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "一致するアカウントがありません。")
			return
		}
		m.logger.Error("user lookup failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	st := session.Current(c)
	binding := verify.Binding{Handle: req.IDUser, Email: req.Email}
	code, err := m.verifier.Issue(st, verify.NamespacePasswordReset, binding)
	if err != nil {
		apperr.Respond(c, apperr.KindStorage, "認証コードの発行に失敗しました。")
		return
	}
	if err := st.Save(); err != nil {
		apperr.Respond(c, apperr.KindStorage, "セッションの保存に失敗しました。")
		return
	}

	body := fmt.Sprintf("パスワード再設定の認証コードは %s です。", code)
	if err := m.notifier.Deliver(c.Request.Context(), req.Email, "パスワード再設定認証コード", body); err != nil {
		m.logger.Warn("reset mail delivery failed", zap.Error(err))
		apperr.Respond(c, apperr.KindDelivery, "メール送信に失敗しました: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "認証コードが発送されました。"})
}

type verifyResetCodeRequest struct {
	IDUser string `json:"iduser"`
	Email  string `json:"email"`
	Code   string `json:"code"`
}

// VerifyResetCode は POST /api/verify-reset-code のハンドラーです。
// 成功時はコード本体を取り除き、検証済みフラグと束縛だけを残します。
func (m *Manager) VerifyResetCode(c *gin.Context) {
	var req verifyResetCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperr.Respond(c, apperr.KindValidation, "ID、メールアドレス、認証コードを入力してください。")
		return
	}

	st := session.Current(c)
	binding := verify.Binding{Handle: req.IDUser, Email: req.Email}
	outcome := m.verifier.Validate(st, verify.NamespacePasswordReset, binding, req.Code)
	switch outcome {
	case verify.OutcomeExpired:
		apperr.Respond(c, apperr.KindExpiredCode, "認証コードが期限切れです。再発送してください。")
	case verify.OutcomeMismatch:
		apperr.Respond(c, apperr.KindMismatchCode, "認証コードが一致しません。")
	case verify.OutcomeVerified:
		m.verifier.ClearCode(st, verify.NamespacePasswordReset)
		if err := st.Save(); err != nil {
			apperr.Respond(c, apperr.KindStorage, "セッションの保存に失敗しました。")
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "認証成功"})
	}
}

type resetPasswordRequest struct {
	IDUser      string `json:"iduser"`
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// ResetPassword は POST /api/reset-password のハンドラーです。
// 再設定コードの検証を通過したセッションで、束縛と同じID＋メールアドレスに対してのみ許可します。
func (m *Manager) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil ||
		req.IDUser == "" || req.Email == "" || req.NewPassword == "" {
		apperr.Respond(c, apperr.KindValidation, "ID、メールアドレス、新しいパスワードを入力してください。")
		return
	}

	st := session.Current(c)
	bound := m.verifier.Binding(st, verify.NamespacePasswordReset)
	if !m.verifier.IsVerified(st, verify.NamespacePasswordReset) ||
		bound.Handle != req.IDUser || bound.Email != req.Email {
		apperr.Respond(c, apperr.KindValidation, "メール認証が必要です。")
		return
	}

	hashed, err := m.hasher.Hash(req.NewPassword)
	if err != nil {
		apperr.Respond(c, apperr.KindStorage, "サーバーエラーが発生しました。")
		return
	}

	if err := m.users.UpdatePassword(c.Request.Context(), req.IDUser, req.Email, hashed); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			apperr.Respond(c, apperr.KindNotFound, "一致するアカウントがありません。")
			return
		}
		m.logger.Error("password update failed", zap.Error(err))
		apperr.Respond(c, apperr.KindStorage, "DBエラーが発生しました。")
		return
	}

	m.verifier.Consume(st, verify.NamespacePasswordReset)
	if err := st.Save(); err != nil {
		apperr.Respond(c, apperr.KindStorage, "セッションの保存に失敗しました。")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "パスワードが変更されました。", "redirect": "/"})
}
