package services

import (
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"strings"

	"go-cropadvisor/config"
	"go-cropadvisor/logger"
)

// Mailer 发送通知邮件
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// NewMailer Host 为空时返回只记录日志的实现
func NewMailer(cfg config.MailConfig, log *logger.Logger) Mailer {
	if cfg.Host == "" {
		return &LogMailer{log: log.With("mailer", "log")}
	}
	return &SMTPMailer{cfg: cfg, log: log.With("mailer", "smtp")}
}

// SMTPMailer 通过SMTP发送纯文本邮件
type SMTPMailer struct {
	cfg config.MailConfig
	log *logger.Logger
}

func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := buildMessage(m.cfg.From, to, subject, body)
	if err := smtp.SendMail(addr, auth, envelopeAddress(m.cfg.From), []string{to}, msg); err != nil {
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	m.log.Info("Mail sent", "to", to, "subject", subject)
	return nil
}

// LogMailer 开发环境使用，邮件内容写入日志
type LogMailer struct {
	log *logger.Logger
}

func (m *LogMailer) Send(_ context.Context, to, subject, body string) error {
	m.log.Info("Mail not sent, SMTP not configured", "to", to, "subject", subject, "body", body)
	return nil
}

func buildMessage(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// envelopeAddress 从 "Name <addr>" 中取出地址
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		if j := strings.LastIndex(from, ">"); j > i {
			return from[i+1 : j]
		}
	}
	return strings.TrimSpace(from)
}
