package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/yourusername/healing-board/internal/apperr"
	"github.com/yourusername/healing-board/internal/session"
)

// ContextPrincipalKey は、ハンドラー間でログイン済みユーザーを共有するためのキーです。
const ContextPrincipalKey = "auth.principal"

// RequireLogin はセッションにログイン済みユーザーがいることを検証するミドルウェアを返します。
// 未ログインの場合は 401 で打ち切ります。
func RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		st := session.Current(c)
		principal, ok := st.Principal()
		if !ok {
			apperr.Abort(c, apperr.KindAuthentication, "ログインが必要です。")
			return
		}
		c.Set(ContextPrincipalKey, principal)
		c.Next()
	}
}

// PrincipalFrom は RequireLogin が格納したログイン済みユーザーを取り出します。
func PrincipalFrom(c *gin.Context) (session.Principal, bool) {
	v, ok := c.Get(ContextPrincipalKey)
	if !ok {
		return session.Principal{}, false
	}
	principal, ok := v.(session.Principal)
	return principal, ok
}
