// Package auth は認証エンドポイントとログイン検証ミドルウェアを提供します。
package auth

import "golang.org/x/crypto/bcrypt"

// Hasher はbcryptによるパスワードの一方向ハッシュ化と照合を行います。
// ソルトは呼び出しごとにbcrypt内部で生成されます。
type Hasher struct {
	cost int
}

// NewHasher は Hasher を作成します。cost が 0 以下の場合は bcrypt のデフォルトを使います。
func NewHasher(cost int) *Hasher {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash はパスワードをハッシュ化します。
func (h *Hasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify は候補パスワードを保存済みハッシュと照合します。
// 比較はbcrypt内部で定数時間で行われます。
func (h *Hasher) Verify(hash, candidate string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) == nil
}
