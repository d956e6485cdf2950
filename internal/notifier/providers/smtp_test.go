package providers

import (
	"bytes"
	"io"
	"net/mail"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "me", "secret", "me@example.com")
	e := s.Message([]string{"you@example.com"}, "Top posts (24h): @jack", "<p>hi</p>", "hi")

	raw, err := e.Bytes()
	require.NoError(t, err)

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	require.NoError(t, err)

	from, err := mail.ParseAddress(msg.Header.Get("From"))
	require.NoError(t, err)
	assert.Equal(t, "xtop", from.Name)
	assert.Equal(t, "me@example.com", from.Address)

	to, err := mail.ParseAddressList(msg.Header.Get("To"))
	require.NoError(t, err)
	require.Len(t, to, 1)
	assert.Equal(t, "you@example.com", to[0].Address)

	assert.Equal(t, "Top posts (24h): @jack", msg.Header.Get("Subject"))
	assert.Contains(t, msg.Header.Get("Content-Type"), "multipart/alternative")

	body, err := io.ReadAll(msg.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "<p>hi</p>")
}
