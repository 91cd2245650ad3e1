// Package verify はセッションに紐付く認証コードの発行・検証を提供します。
//
// コードは名前空間（メール認証／パスワード再設定）ごとに独立して管理され、
// 一つの名前空間には常に未処理コードが最大一つだけ存在します。
// 期限切れの掃除は行わず、検証時に経過時間を見て遅延判定します。
package verify

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

// Namespace は認証フローごとの独立したコード保存領域を表します。
type Namespace string

const (
	// NamespaceSignupEmail は会員登録時のメール認証フローです。
	NamespaceSignupEmail Namespace = "email"
	// NamespacePasswordReset はパスワード再設定フローです。
	NamespacePasswordReset Namespace = "reset"
)

// CodeLength は発行する認証コードの桁数です。
const CodeLength = 6

// Window はコード発行からの有効時間です。これを過ぎたコードは検証で必ず失敗します。
const Window = 3 * time.Minute

// Outcome は検証結果の三値です。
type Outcome int

const (
	// OutcomeVerified は期限内かつ束縛・コードが一致したことを表します。
	OutcomeVerified Outcome = iota
	// OutcomeExpired は発行から Window 以上経過したことを表します。コードの正誤より優先されます。
	OutcomeExpired
	// OutcomeMismatch は未発行・束縛不一致・コード不一致のいずれかを表します。
	OutcomeMismatch
)

// Binding はコードが束縛される対象です。
// メール認証ではメールアドレスのみ、パスワード再設定ではID＋メールアドレスの組を束縛します。
type Binding struct {
	Handle string // ログインID（メール認証フローでは空）
	Email  string // 送信先メールアドレス
}

// Store は1セッション分のキーバリュー状態です。session.State が実装します。
type Store interface {
	Get(key string) any
	Set(key string, value any)
	Delete(key string)
}

// Engine は認証コードの発行と検証を行います。
type Engine struct {
	now func() time.Time
}

// NewEngine は Engine を作成します。
func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// Issue は新しいコードを生成して名前空間へ保存し、生成したコードを返します。
// 既存の未処理コードがあれば上書きされ、古いコードは以後一致しなくなります。
// メール送信は呼び出し側の責務です（送信に失敗してもコード自体は保存済み）。
func (e *Engine) Issue(s Store, ns Namespace, b Binding) (string, error) {
	code, err := generateCode()
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}

	s.Set(ns.key("code"), code)
	s.Set(ns.key("id"), b.Handle)
	s.Set(ns.key("target"), b.Email)
	s.Set(ns.key("issued_at"), e.now().Unix())
	s.Set(ns.key("verified"), false)

	return code, nil
}

// Validate は提出されたコードを三値で判定します。
// 期限切れはコードの正誤に関わらず最優先で判定されます。
// 未発行の名前空間への検証は Mismatch です。
// Verified の場合は検証済みフラグを立てます。
func (e *Engine) Validate(s Store, ns Namespace, b Binding, submitted string) Outcome {
	stored, ok := s.Get(ns.key("code")).(string)
	if !ok || stored == "" {
		return OutcomeMismatch
	}

	issuedAt := readInt64(s.Get(ns.key("issued_at")))
	if issuedAt == 0 || e.now().Sub(time.Unix(issuedAt, 0)) >= Window {
		return OutcomeExpired
	}

	if readString(s.Get(ns.key("id"))) != b.Handle {
		return OutcomeMismatch
	}
	if readString(s.Get(ns.key("target"))) != b.Email {
		return OutcomeMismatch
	}
	if stored != submitted {
		return OutcomeMismatch
	}

	s.Set(ns.key("verified"), true)
	return OutcomeVerified
}

// IsVerified は名前空間が検証済みかどうかを返します。
// パスワード変更などの後続処理が通過条件として参照します。
func (e *Engine) IsVerified(s Store, ns Namespace) bool {
	v, ok := s.Get(ns.key("verified")).(bool)
	return ok && v
}

// Binding は名前空間に保存されている束縛対象を返します。
// 後続処理がリクエストの値と照合するために使います。
func (e *Engine) Binding(s Store, ns Namespace) Binding {
	return Binding{
		Handle: readString(s.Get(ns.key("id"))),
		Email:  readString(s.Get(ns.key("target"))),
	}
}

// ClearCode はコード本体と発行時刻のみを取り除きます。
// 検証済みフラグと束縛は残るため、再設定フローの最終確認には引き続き使えます。
func (e *Engine) ClearCode(s Store, ns Namespace) {
	s.Delete(ns.key("code"))
	s.Delete(ns.key("issued_at"))
}

// Consume は名前空間の状態をすべて取り除きます。
// コードが守っていたフロー（会員登録・パスワード変更）の完了時に呼びます。
func (e *Engine) Consume(s Store, ns Namespace) {
	s.Delete(ns.key("code"))
	s.Delete(ns.key("id"))
	s.Delete(ns.key("target"))
	s.Delete(ns.key("issued_at"))
	s.Delete(ns.key("verified"))
}

func (ns Namespace) key(field string) string {
	return string(ns) + "_" + field
}

// generateCode はコード空間 [0, 10^6) から一様に乱数を引き、ゼロ埋め6桁で返します。
func generateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < CodeLength; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", CodeLength, n), nil
}

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
