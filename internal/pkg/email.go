package pkg

import (
	"crypto/tls"
	"fmt"
	"html"

	"gopkg.in/gomail.v2"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string // 显示的发件人，可与 Username 相同
}

func SendEmail(cfg SMTPConfig, to, subject, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", cfg.From)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	return d.DialAndSend(m)
}

// MentionHTML 被提及通知邮件正文
func MentionHTML(author, threadTitle, excerpt string) string {
	return fmt.Sprintf(`<p>Hi,</p><p><b>%s</b> mentioned you in <b>%s</b>:</p><blockquote>%s</blockquote>`,
		html.EscapeString(author), html.EscapeString(threadTitle), html.EscapeString(excerpt))
}
