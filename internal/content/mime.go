package content

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/emersion/go-message"
	_ "github.com/emersion/go-message/charset"
)

// ExtractMessageBody pulls the displayable body out of a raw RFC 822
// message. text/plain wins over text/html; the isHTML flag tells the caller
// whether the returned body still needs ConvertHTMLToText. Nested multiparts
// (multipart/alternative inside multipart/mixed) are walked recursively.
func ExtractMessageBody(raw []byte) (body string, isHTML bool, err error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !message.IsUnknownCharset(err) {
		return "", false, fmt.Errorf("failed to parse message: %w", err)
	}

	plain, html, err := collectBodies(entity)
	if err != nil {
		return "", false, err
	}

	switch {
	case plain != "":
		return plain, false, nil
	case html != "":
		return html, true, nil
	default:
		return "", false, fmt.Errorf("message has no text/plain or text/html part")
	}
}

func collectBodies(entity *message.Entity) (plain, html string, err error) {
	if mr := entity.MultipartReader(); mr != nil {
		for {
			part, err := mr.NextPart()
			if err == io.EOF {
				break
			}
			if err != nil {
				if message.IsUnknownCharset(err) {
					continue
				}
				return "", "", fmt.Errorf("failed to read message part: %w", err)
			}
			p, h, err := collectBodies(part)
			if err != nil {
				return "", "", err
			}
			if plain == "" {
				plain = p
			}
			if html == "" {
				html = h
			}
		}
		return plain, html, nil
	}

	mediaType, _, _ := entity.Header.ContentType()
	data, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read message body: %w", err)
	}

	switch strings.ToLower(mediaType) {
	case "text/plain", "":
		return string(data), "", nil
	case "text/html":
		return "", string(data), nil
	}
	return "", "", nil
}
