// Package session はクッキーで運ばれるセッション状態への型付きアクセスを提供します。
// セッションはリクエストごとにミドルウェアが遅延生成するため、
// 未知のトークンでもエラーにはならず空の状態が返ります。
package session

import (
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CookieName はセッショントークンを運ぶクッキーの名前です。
const CookieName = "hb_session"

// maxLifetime はクッキーストア側のセッション有効期間です。
// 認証コードの有効時間（verify.Window）とは独立しています。
const maxLifetime = 12 * time.Hour

// MaxAgeSeconds はクッキーの MaxAge に利用する秒数を返します。
func MaxAgeSeconds() int {
	return int(maxLifetime.Seconds())
}

const (
	keyPrincipalHandle = "principal_iduser"
	keyPrincipalID     = "principal_id"
	keyPrincipalRole   = "principal_role"
)

// RoleAdmin は所有権チェックを越えて変更を許可されるロールです。
const RoleAdmin = "admin"

// Principal はセッションに紐付いたログイン済みユーザーを表します。
type Principal struct {
	IDUser string // ログインID
	ID     int64  // usersテーブルの数値主キー
	Role   string // ロール ("user" または "admin")
}

// State は1リクエスト分のセッション状態をラップします。
// 値はクッキーストアでシリアライズできるようプリミティブのみを保存します。
type State struct {
	s sessions.Session
}

// Current は現在のリクエストのセッション状態を返します。
func Current(c *gin.Context) *State {
	return &State{s: sessions.Default(c)}
}

// Principal はセッションに保存されたログイン済みユーザーを返します。
// 未ログインの場合は ok=false を返します。
func (st *State) Principal() (Principal, bool) {
	handle, ok := st.s.Get(keyPrincipalHandle).(string)
	if !ok || handle == "" {
		return Principal{}, false
	}
	return Principal{
		IDUser: handle,
		ID:     readInt64(st.s.Get(keyPrincipalID)),
		Role:   readString(st.s.Get(keyPrincipalRole)),
	}, true
}

// SetPrincipal はログイン成功時にユーザー情報をセッションへ保存します。
func (st *State) SetPrincipal(p Principal) {
	st.s.Set(keyPrincipalHandle, p.IDUser)
	st.s.Set(keyPrincipalID, p.ID)
	st.s.Set(keyPrincipalRole, p.Role)
}

// ClearPrincipal はログイン情報のみを取り除きます。認証コードの状態は残ります。
func (st *State) ClearPrincipal() {
	st.s.Delete(keyPrincipalHandle)
	st.s.Delete(keyPrincipalID)
	st.s.Delete(keyPrincipalRole)
}

// Destroy はセッション全体を破棄し、クッキーを失効させます。
// ログアウトと会員退会でのみ呼ばれ、元に戻せません。
func (st *State) Destroy() error {
	st.s.Clear()
	st.s.Options(sessions.Options{Path: "/", MaxAge: -1})
	return st.s.Save()
}

// Save は変更をストアへ書き戻します。
func (st *State) Save() error {
	return st.s.Save()
}

// Get は生のセッション値を返します。認証コードエンジンが利用します。
func (st *State) Get(key string) any {
	return st.s.Get(key)
}

// Set は生のセッション値を保存します。
func (st *State) Set(key string, value any) {
	st.s.Set(key, value)
}

// Delete は生のセッション値を取り除きます。
func (st *State) Delete(key string) {
	st.s.Delete(key)
}

// readInt64 はストアのシリアライズ差異を吸収して int64 を取り出します。
func readInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case int:
		return int64(t)
	case float64:
		return int64(t)
	default:
		return 0
	}
}

func readString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}
