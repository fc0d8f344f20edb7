package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type captureSender struct {
	to      string
	subject string
	body    string
}

func (c *captureSender) Send(to, subject, htmlBody string) error {
	c.to = to
	c.subject = subject
	c.body = htmlBody
	return nil
}

func TestMailer_SendSoilConfirmation(t *testing.T) {
	sender := &captureSender{}
	mailer := NewMailer(sender, "Bindisa Agritech")

	err := mailer.SendSoilConfirmation("farmer@example.com", "Asha", "SOIL-1724900000000-ABC123")
	assert.NoError(t, err)

	assert.Equal(t, "farmer@example.com", sender.to)
	assert.Equal(t, "Soil Analysis Request Received - Sample SOIL-1724900000000-ABC123", sender.subject)
	assert.Contains(t, sender.body, "Asha")
	assert.Contains(t, sender.body, "SOIL-1724900000000-ABC123")
}

func TestMailer_SendSoilCompleted(t *testing.T) {
	sender := &captureSender{}
	mailer := NewMailer(sender, "Bindisa Agritech")

	score := 78
	err := mailer.SendSoilCompleted("farmer@example.com", "Asha", "SOIL-1-X", &score)
	assert.NoError(t, err)

	assert.Equal(t, "Soil Analysis Completed - Sample SOIL-1-X", sender.subject)
	assert.Contains(t, sender.body, "78/100")
}

func TestMailer_SendSoilCompletedWithoutScore(t *testing.T) {
	sender := &captureSender{}
	mailer := NewMailer(sender, "Bindisa Agritech")

	err := mailer.SendSoilCompleted("farmer@example.com", "Asha", "SOIL-1-X", nil)
	assert.NoError(t, err)
	assert.NotContains(t, sender.body, "/100")
}

func TestMailer_SendEmailVerification(t *testing.T) {
	sender := &captureSender{}
	mailer := NewMailer(sender, "Bindisa Agritech")

	err := mailer.SendEmailVerification("farmer@example.com", "Asha", "https://app.example.com/verify?token=abc")
	assert.NoError(t, err)

	assert.Equal(t, "Verify your Bindisa Agritech account", sender.subject)
	assert.Contains(t, sender.body, "https://app.example.com/verify?token=abc")
}

func TestMailer_SendPasswordReset(t *testing.T) {
	sender := &captureSender{}
	mailer := NewMailer(sender, "Bindisa Agritech")

	err := mailer.SendPasswordReset("farmer@example.com", "Asha", "https://app.example.com/reset?token=xyz")
	assert.NoError(t, err)

	assert.Equal(t, "Password Reset Request", sender.subject)
	assert.Contains(t, sender.body, "https://app.example.com/reset?token=xyz")
}
