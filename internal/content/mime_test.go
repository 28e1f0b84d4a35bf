package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractMessageBody(t *testing.T) {
	t.Run("plain_text_message", func(t *testing.T) {
		raw := "From: a@example.com\r\n" +
			"To: b@example.com\r\n" +
			"Subject: hi\r\n" +
			"Content-Type: text/plain\r\n" +
			"\r\n" +
			"Hello there.\r\n"

		body, isHTML, err := ExtractMessageBody([]byte(raw))
		require.NoError(t, err)
		assert.False(t, isHTML)
		assert.Equal(t, "Hello there.", strings.TrimSpace(body))
	})

	t.Run("html_only_message", func(t *testing.T) {
		raw := "From: a@example.com\r\n" +
			"Content-Type: text/html\r\n" +
			"\r\n" +
			"<p>Hello</p>\r\n"

		body, isHTML, err := ExtractMessageBody([]byte(raw))
		require.NoError(t, err)
		assert.True(t, isHTML)
		assert.Contains(t, body, "<p>Hello</p>")
	})

	t.Run("multipart_prefers_plain_text", func(t *testing.T) {
		raw := "From: a@example.com\r\n" +
			"Content-Type: multipart/alternative; boundary=SEP\r\n" +
			"\r\n" +
			"--SEP\r\n" +
			"Content-Type: text/plain\r\n" +
			"\r\n" +
			"plain body\r\n" +
			"--SEP\r\n" +
			"Content-Type: text/html\r\n" +
			"\r\n" +
			"<b>html body</b>\r\n" +
			"--SEP--\r\n"

		body, isHTML, err := ExtractMessageBody([]byte(raw))
		require.NoError(t, err)
		assert.False(t, isHTML)
		assert.Equal(t, "plain body", strings.TrimSpace(body))
	})

	t.Run("no_displayable_part", func(t *testing.T) {
		raw := "From: a@example.com\r\n" +
			"Content-Type: application/octet-stream\r\n" +
			"\r\n" +
			"binary\r\n"

		_, _, err := ExtractMessageBody([]byte(raw))
		assert.Error(t, err)
	})
}
