// Package apperr はAPI全体で共有するエラー分類を提供します。
// すべてのハンドラーは協調コンポーネントの失敗をここで定義された
// いずれか一つの種別に対応付けてレスポンスを返します。
package apperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Kind はエラーの種別を表します。レスポンスの code フィールドにそのまま載ります。
type Kind string

const (
	KindValidation      Kind = "VALIDATION_ERROR"       // 入力不足・不正 (400)
	KindDuplicateHandle Kind = "DUPLICATE_HANDLE"       // ID重複 (400, 会員登録のみ)
	KindAuthentication  Kind = "AUTHENTICATION_ERROR"   // 認証失敗・未ログイン (401)
	KindAuthorization   Kind = "AUTHORIZATION_ERROR"    // 権限なし (403)
	KindNotFound        Kind = "NOT_FOUND"              // 対象なし (404)
	KindExpiredCode     Kind = "EXPIRED_CODE"           // 認証コード期限切れ (400)
	KindMismatchCode    Kind = "MISMATCH_CODE"          // 認証コード不一致 (400)
	KindDelivery        Kind = "DELIVERY_ERROR"         // メール送信失敗 (500)
	KindStorage         Kind = "STORAGE_ERROR"          // DB障害 (500)
)

// リポジトリ層が返す番兵エラー。ハンドラー側で種別へ対応付けます。
var (
	ErrDuplicateHandle = errors.New("duplicate handle")
	ErrNotFound        = errors.New("not found")
)

// Status は種別に対応するHTTPステータスコードを返します。
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindDuplicateHandle, KindExpiredCode, KindMismatchCode:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindDelivery, KindStorage:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Respond は種別とメッセージをJSONで返します。
// code は機械判定用、error は画面表示用のメッセージです。
func Respond(c *gin.Context, kind Kind, message string) {
	c.JSON(kind.Status(), gin.H{
		"code":  string(kind),
		"error": message,
	})
}

// Abort はミドルウェアから後続処理を打ち切ってエラーを返します。
func Abort(c *gin.Context, kind Kind, message string) {
	c.AbortWithStatusJSON(kind.Status(), gin.H{
		"code":  string(kind),
		"error": message,
	})
}
