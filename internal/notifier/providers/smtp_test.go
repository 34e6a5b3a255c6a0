package providers

import (
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessageIsValidMultipart(t *testing.T) {
	raw := buildMessage("bot@example.com", "me@example.com", "Subject line", "<p>hi</p>", "hi", time.Now())

	msg, err := mail.ReadMessage(strings.NewReader(string(raw)))
	require.NoError(t, err)
	assert.Equal(t, "Subject line", msg.Header.Get("Subject"))
	assert.Equal(t, "me@example.com", msg.Header.Get("To"))

	mediaType, params, err := mime.ParseMediaType(msg.Header.Get("Content-Type"))
	require.NoError(t, err)
	assert.Equal(t, "multipart/alternative", mediaType)

	mr := multipart.NewReader(msg.Body, params["boundary"])
	var types, bodies []string
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		body, err := io.ReadAll(part)
		require.NoError(t, err)
		types = append(types, part.Header.Get("Content-Type"))
		bodies = append(bodies, strings.TrimSpace(string(body)))
	}
	assert.Equal(t, []string{`text/plain; charset="utf-8"`, `text/html; charset="utf-8"`}, types)
	assert.Equal(t, []string{"hi", "<p>hi</p>"}, bodies)
}

func TestSendUsesConfiguredServer(t *testing.T) {
	s := NewSMTPSender("smtp.example.com", 587, "user", "pass", "")

	var gotAddr, gotFrom string
	var gotTo []string
	var gotAuth smtp.Auth
	s.sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo = addr, a, from, to
		return nil
	}

	require.NoError(t, s.Send("me@example.com", "s", "<p>h</p>", "p"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "user", gotFrom)
	assert.Equal(t, []string{"me@example.com"}, gotTo)
	assert.NotNil(t, gotAuth)

	s.sendMail = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("535 auth failed") }
	assert.ErrorContains(t, s.Send("me@example.com", "s", "h", "p"), "535 auth failed")
}
