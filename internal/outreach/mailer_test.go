package outreach

import (
	"context"
	"errors"
	"net/smtp"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/dealflow/internal/config"
	"github.com/nurpe/dealflow/internal/model"
)

func TestSMTPMailer_Send(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "mail.local", Port: "25", From: "deals@firm.test", FromName: "Deal Team"}, zerolog.Nop())
	var gotAddr string
	var gotTo []string
	var gotMsg string
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.Equal(t, "deals@firm.test", from)
		return nil
	}

	err := m.Send(context.Background(), Message{To: []string{"ir@fund.test"}, Subject: "Hello\r\nBcc: x", Body: "body"})
	require.NoError(t, err)
	assert.Equal(t, "mail.local:25", gotAddr)
	assert.Equal(t, []string{"ir@fund.test"}, gotTo)
	assert.Contains(t, gotMsg, "From: Deal Team <deals@firm.test>\r\n")
	assert.Contains(t, gotMsg, "Subject: Hello  Bcc: x\r\n")
	assert.Contains(t, gotMsg, "\r\n\r\nbody")
}

func TestSMTPMailer_SendFailure(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "mail.local", Port: "25", From: "deals@firm.test"}, zerolog.Nop())
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }

	err := m.Send(context.Background(), Message{To: []string{"ir@fund.test"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPMailer_UnconfiguredRecordsOnly(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{}, zerolog.Nop())
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called")
		return nil
	}
	assert.False(t, m.Configured())
	assert.NoError(t, m.Send(context.Background(), Message{To: []string{"ir@fund.test"}}))
	assert.ErrorIs(t, m.Send(context.Background(), Message{}), ErrNoRecipients)
}

func TestCompose(t *testing.T) {
	deal := model.Deal{Name: "Falcon", Type: model.DealTypeSellSide}
	inv := model.DealInvestor{Organization: &model.Organization{Name: "Northwind Capital"}}

	msg := Compose(deal, inv, "Ada Advisor", "", "")
	assert.Equal(t, "Falcon: investment opportunity", msg.Subject)
	assert.Contains(t, msg.Body, "Dear Northwind Capital team,")
	assert.Contains(t, msg.Body, "sell side process")
	assert.Contains(t, msg.Body, "Ada Advisor")

	custom := Compose(deal, inv, "Ada", "Custom", "Text")
	assert.Equal(t, Message{Subject: "Custom", Body: "Text"}, custom)
}
