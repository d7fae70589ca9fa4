package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"go-cropadvisor/config"
	"go-cropadvisor/logger"
)

func TestNewMailer_FallsBackToLog(t *testing.T) {
	m := NewMailer(config.MailConfig{}, logger.Nop())
	assert.IsType(t, &LogMailer{}, m)
	assert.NoError(t, m.Send(context.Background(), "a@example.com", "hi", "body"))

	m = NewMailer(config.MailConfig{Host: "smtp.example.com", Port: 587}, logger.Nop())
	assert.IsType(t, &SMTPMailer{}, m)
}

func TestBuildMessage(t *testing.T) {
	msg := string(buildMessage("CropAdvisor <no-reply@example.com>", "a@example.com", "Verify", "line one"))
	assert.True(t, strings.HasPrefix(msg, "From: CropAdvisor <no-reply@example.com>\r\n"))
	assert.Contains(t, msg, "Subject: Verify\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\nline one"))
}

func TestEnvelopeAddress(t *testing.T) {
	assert.Equal(t, "no-reply@example.com", envelopeAddress("CropAdvisor <no-reply@example.com>"))
	assert.Equal(t, "plain@example.com", envelopeAddress(" plain@example.com "))
}
