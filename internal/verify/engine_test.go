package verify

import (
	"testing"
	"time"
)

type mapStore struct {
	values map[string]any
}

func newMapStore() *mapStore {
	return &mapStore{values: make(map[string]any)}
}

func (s *mapStore) Get(key string) any {
	return s.values[key]
}

func (s *mapStore) Set(key string, value any) {
	s.values[key] = value
}

func (s *mapStore) Delete(key string) {
	delete(s.values, key)
}

// newTestEngine は固定時刻から始まる Engine と、時刻を進める関数を返します。
func newTestEngine() (*Engine, func(d time.Duration)) {
	current := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	engine := NewEngine()
	engine.now = func() time.Time { return current }
	advance := func(d time.Duration) { current = current.Add(d) }
	return engine, advance
}

func TestIssueThenValidate(t *testing.T) {
	engine, _ := newTestEngine()
	store := newMapStore()
	binding := Binding{Email: "a@x.com"}

	code, err := engine.Issue(store, NamespaceSignupEmail, binding)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if len(code) != CodeLength {
		t.Fatalf("unexpected code length: %q", code)
	}

	if got := engine.Validate(store, NamespaceSignupEmail, binding, code); got != OutcomeVerified {
		t.Fatalf("Validate = %v, want OutcomeVerified", got)
	}
	if !engine.IsVerified(store, NamespaceSignupEmail) {
		t.Fatal("IsVerified = false after successful validation")
	}
}

func TestValidateExpiredAfterWindow(t *testing.T) {
	engine, advance := newTestEngine()
	store := newMapStore()
	binding := Binding{Email: "a@x.com"}

	code, err := engine.Issue(store, NamespaceSignupEmail, binding)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// 正しいコードでも期限切れが優先される
	advance(181 * time.Second)
	if got := engine.Validate(store, NamespaceSignupEmail, binding, code); got != OutcomeExpired {
		t.Fatalf("Validate = %v, want OutcomeExpired", got)
	}
	if engine.IsVerified(store, NamespaceSignupEmail) {
		t.Fatal("IsVerified = true after expired validation")
	}

	// 再発行すれば期限内の検証は通る
	code, err = engine.Issue(store, NamespaceSignupEmail, binding)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	advance(10 * time.Second)
	if got := engine.Validate(store, NamespaceSignupEmail, binding, code); got != OutcomeVerified {
		t.Fatalf("Validate after reissue = %v, want OutcomeVerified", got)
	}
}

func TestValidateExpiredAtExactWindow(t *testing.T) {
	engine, advance := newTestEngine()
	store := newMapStore()
	binding := Binding{Email: "a@x.com"}

	code, err := engine.Issue(store, NamespaceSignupEmail, binding)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// ちょうど180秒経過でも期限切れ
	advance(Window)
	if got := engine.Validate(store, NamespaceSignupEmail, binding, code); got != OutcomeExpired {
		t.Fatalf("Validate = %v, want OutcomeExpired", got)
	}
}

func TestReissueInvalidatesOldCode(t *testing.T) {
	engine, _ := newTestEngine()
	store := newMapStore()
	binding := Binding{Email: "a@x.com"}

	first, err := engine.Issue(store, NamespaceSignupEmail, binding)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	second, err := engine.Issue(store, NamespaceSignupEmail, binding)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if first != second {
		if got := engine.Validate(store, NamespaceSignupEmail, binding, first); got != OutcomeMismatch {
			t.Fatalf("Validate with old code = %v, want OutcomeMismatch", got)
		}
	}
	if got := engine.Validate(store, NamespaceSignupEmail, binding, second); got != OutcomeVerified {
		t.Fatalf("Validate with new code = %v, want OutcomeVerified", got)
	}
}

func TestValidateMismatchCases(t *testing.T) {
	engine, _ := newTestEngine()
	store := newMapStore()
	binding := Binding{Handle: "user1", Email: "a@x.com"}

	// 未発行の名前空間は Mismatch
	if got := engine.Validate(store, NamespacePasswordReset, binding, "000000"); got != OutcomeMismatch {
		t.Fatalf("Validate without issue = %v, want OutcomeMismatch", got)
	}

	code, err := engine.Issue(store, NamespacePasswordReset, binding)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	// 束縛の不一致
	other := Binding{Handle: "user1", Email: "b@x.com"}
	if got := engine.Validate(store, NamespacePasswordReset, other, code); got != OutcomeMismatch {
		t.Fatalf("Validate with wrong email = %v, want OutcomeMismatch", got)
	}
	other = Binding{Handle: "user2", Email: "a@x.com"}
	if got := engine.Validate(store, NamespacePasswordReset, other, code); got != OutcomeMismatch {
		t.Fatalf("Validate with wrong handle = %v, want OutcomeMismatch", got)
	}

	// コードの不一致
	wrong := "000000"
	if wrong == code {
		wrong = "000001"
	}
	if got := engine.Validate(store, NamespacePasswordReset, binding, wrong); got != OutcomeMismatch {
		t.Fatalf("Validate with wrong code = %v, want OutcomeMismatch", got)
	}

	// 失敗してもフラグは立たない
	if engine.IsVerified(store, NamespacePasswordReset) {
		t.Fatal("IsVerified = true after mismatches")
	}
}

func TestNamespacesAreIndependent(t *testing.T) {
	engine, _ := newTestEngine()
	store := newMapStore()
	signup := Binding{Email: "a@x.com"}
	reset := Binding{Handle: "user1", Email: "a@x.com"}

	signupCode, err := engine.Issue(store, NamespaceSignupEmail, signup)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if _, err := engine.Issue(store, NamespacePasswordReset, reset); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if got := engine.Validate(store, NamespaceSignupEmail, signup, signupCode); got != OutcomeVerified {
		t.Fatalf("Validate signup = %v, want OutcomeVerified", got)
	}

	// メール認証の成功はパスワード再設定の検証状態に影響しない
	if engine.IsVerified(store, NamespacePasswordReset) {
		t.Fatal("password-reset namespace verified by signup validation")
	}

	// 消費も名前空間単位
	engine.Consume(store, NamespaceSignupEmail)
	if engine.IsVerified(store, NamespaceSignupEmail) {
		t.Fatal("signup namespace still verified after Consume")
	}
	if b := engine.Binding(store, NamespacePasswordReset); b != reset {
		t.Fatalf("password-reset binding changed: %+v", b)
	}
}

func TestClearCodeKeepsVerifiedFlag(t *testing.T) {
	engine, _ := newTestEngine()
	store := newMapStore()
	binding := Binding{Handle: "user1", Email: "a@x.com"}

	code, err := engine.Issue(store, NamespacePasswordReset, binding)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if got := engine.Validate(store, NamespacePasswordReset, binding, code); got != OutcomeVerified {
		t.Fatalf("Validate = %v, want OutcomeVerified", got)
	}

	engine.ClearCode(store, NamespacePasswordReset)

	if !engine.IsVerified(store, NamespacePasswordReset) {
		t.Fatal("IsVerified = false after ClearCode")
	}
	if b := engine.Binding(store, NamespacePasswordReset); b != binding {
		t.Fatalf("binding lost after ClearCode: %+v", b)
	}
	// コード本体は消えているので再検証は Mismatch
	if got := engine.Validate(store, NamespacePasswordReset, binding, code); got != OutcomeMismatch {
		t.Fatalf("Validate after ClearCode = %v, want OutcomeMismatch", got)
	}
}
