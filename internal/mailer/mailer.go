// Package mailer はSMTP経由のメール送信を提供する。
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"net/url"
	"strings"
)

// Config はSMTPメーラーの設定。
type Config struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	BaseURL  string
	SiteName string
}

// SMTPMailer はSMTP経由でメールを送信する。
// 送信失敗は呼び出し側へエラーとして返すのみで、リトライは行わない。
type SMTPMailer struct {
	config Config
	// send はテストで差し替え可能な送信関数。デフォルトはsmtp.SendMail。
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer はSMTPMailerを生成する。
func NewSMTPMailer(config Config) *SMTPMailer {
	return &SMTPMailer{
		config: config,
		send:   smtp.SendMail,
	}
}

// verificationTemplate はメール確認用のHTMLテンプレート。
var verificationTemplate = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"><title>メールアドレスの確認</title></head>
<body style="font-family: sans-serif;">
<div style="max-width: 600px; margin: 0 auto;">
<h1>{{.SiteName}}へようこそ！</h1>
<p>{{.Username}} さん、</p>
<p>ご登録ありがとうございます。アカウントを有効化するため、メールアドレスを確認してください。</p>
<p><a href="{{.VerifyURL}}">メールアドレスを確認する</a></p>
<p>ボタンが動作しない場合は、次のリンクをブラウザにコピーしてください:</p>
<p>{{.VerifyURL}}</p>
<hr>
<p>このメールは自動送信されています。返信しないでください。</p>
</div>
</body>
</html>`))

// SendVerificationEmail はメール確認リンクを含むメールを送信する。
// リンクにはBASE_URL/auth/verify-email?token=... の形式で確認トークンを埋め込む。
func (m *SMTPMailer) SendVerificationEmail(to, username, token string) error {
	if m.config.Host == "" {
		return fmt.Errorf("smtp is not configured")
	}

	verifyURL := fmt.Sprintf("%s/auth/verify-email?token=%s",
		strings.TrimSuffix(m.config.BaseURL, "/"), url.QueryEscape(token))

	var body bytes.Buffer
	err := verificationTemplate.Execute(&body, map[string]string{
		"SiteName":  m.config.SiteName,
		"Username":  username,
		"VerifyURL": verifyURL,
	})
	if err != nil {
		return fmt.Errorf("failed to render verification email: %w", err)
	}

	subject := fmt.Sprintf("メールアドレスの確認 - %s", m.config.SiteName)
	msg := buildMessage(m.config.From, to, subject, body.String())

	addr := m.config.Host + ":" + m.config.Port
	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	if err := m.send(addr, auth, m.config.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}

// buildMessage はRFC 5322形式のメッセージを組み立てる。
func buildMessage(from, to, subject, htmlBody string) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return b.Bytes()
}
