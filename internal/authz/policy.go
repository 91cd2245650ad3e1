// Package authz はリソース変更の可否判定を提供します。
// 投稿・コメント・ヒーリング記録の更新／削除はすべてこの一つの述語を通ります。
package authz

import "github.com/yourusername/healing-board/internal/session"

// CanMutate は actor がリソースを変更してよいかを判定します。
// admin ロールは所有権に関わらず許可、それ以外は所有者本人のみ許可します。
// 会員退会は例外で、admin でも本人以外は退会させられません（ハンドラー側で本人確認のみ行う）。
func CanMutate(actorID int64, ownerID int64, role string) bool {
	if role == session.RoleAdmin {
		return true
	}
	return actorID == ownerID
}
