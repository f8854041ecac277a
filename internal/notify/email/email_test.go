package email

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_Build(t *testing.T) {
	s := NewSender(Config{Host: "localhost", Port: 2525, From: "accounts@asafoundation.org"})

	msg, err := s.build(Message{
		To:      "a@x.com",
		Subject: "Payment Advice",
		HTML:    "<p>Dear Acme Co</p>",
		Attachments: []Attachment{{
			Name:        "Payment_Advice.pdf",
			ContentType: "application/pdf",
			Data:        []byte("%PDF-1.3"),
		}},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "a@x.com")
	assert.Contains(t, raw, "Subject: Payment Advice")
	assert.Contains(t, raw, "Payment_Advice.pdf")
	assert.Contains(t, raw, "application/pdf")
}

func TestSender_BuildRejectsBadInput(t *testing.T) {
	s := NewSender(Config{From: "accounts@asafoundation.org"})

	_, err := s.build(Message{})
	assert.ErrorIs(t, err, ErrNoRecipient)

	_, err = s.build(Message{To: "not an address"})
	assert.Error(t, err)
}

func TestSender_SendFailsWithoutServer(t *testing.T) {
	s := NewSender(Config{Host: "127.0.0.1", Port: 1, From: "accounts@asafoundation.org"})

	err := s.Send(context.Background(), Message{To: "a@x.com", Subject: "x", HTML: "<p>x</p>"})
	assert.Error(t, err)
}
