// Package mail は認証コードなどの通知メール送信を提供します。
// 送信は fire-and-forget であり、再送は行いません。失敗は呼び出し元へそのまま返します。
package mail

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strings"
)

// Notifier は通知メールの送信先インターフェースです。
// 同期送信（SMTPSender）とキュー投入（Manager）の双方が実装します。
type Notifier interface {
	Deliver(ctx context.Context, to, subject, body string) error
}

// SMTPSender はSMTPで直接メールを送信します。
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

// NewSMTPSender は SMTPSender を作成します。
// username が空の場合は認証なしで送信します。
func NewSMTPSender(host, port, username, password, from string) *SMTPSender {
	return &SMTPSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}
}

// Deliver はメールを1通送信します。
func (s *SMTPSender) Deliver(ctx context.Context, to, subject, body string) error {
	if to == "" {
		return fmt.Errorf("recipient is required")
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := net.JoinHostPort(s.host, s.port)
	msg := buildMessage(s.from, to, subject, body)
	if err := smtp.SendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

// buildMessage はUTF-8本文のシンプルなテキストメールを組み立てます。
func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("UTF-8", subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	b.WriteString("\r\n")
	return []byte(b.String())
}
