package inbox

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
	"time"

	"github.com/mikey/llm-spam-scorer/internal/core"
)

const noTextPlaceholder = "[No text content found in multipart message]"

var headerDecoder = new(mime.WordDecoder)

// ParseMessage builds an Email from a raw RFC 5322 message
func ParseMessage(id string, raw []byte) (core.Email, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return core.Email{}, fmt.Errorf("failed to parse email message: %w", err)
	}

	body, err := extractTextFromMessage(msg)
	if err != nil {
		return core.Email{}, fmt.Errorf("failed to extract text content: %w", err)
	}

	email := core.Email{
		ID:         id,
		From:       decodeHeader(msg.Header.Get("From")),
		Subject:    decodeHeader(msg.Header.Get("Subject")),
		Body:       body,
		Headers:    make(map[string][]string, len(msg.Header)),
		ReceivedAt: time.Now(),
	}
	for key, values := range msg.Header {
		email.Headers[key] = values
	}
	if date, err := msg.Header.Date(); err == nil {
		email.ReceivedAt = date
	}
	if to, err := msg.Header.AddressList("To"); err == nil {
		for _, addr := range to {
			email.To = append(email.To, addr.Address)
		}
	}
	if email.ID == "" {
		email.ID = strings.Trim(msg.Header.Get("Message-Id"), "<> ")
	}
	return email, nil
}

// decodeHeader decodes RFC 2047 encoded words, returning the input unchanged on failure
func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// extractTextFromMessage extracts the text content from an email message.
// For multipart messages it collects the text/plain parts, descending into nested multiparts.
func extractTextFromMessage(msg *mail.Message) (string, error) {
	return extractText(msg.Header.Get("Content-Type"), msg.Header.Get("Content-Transfer-Encoding"), msg.Body)
}

func extractText(contentType, transferEncoding string, body io.Reader) (string, error) {
	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		data, err := io.ReadAll(decodeTransfer(transferEncoding, body))
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	boundary, ok := params["boundary"]
	if !ok {
		// No boundary found, return the body as is
		data, err := io.ReadAll(body)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	mr := multipart.NewReader(body, boundary)
	var textContent strings.Builder
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Keep whatever was read before the damage
			if textContent.Len() > 0 {
				return textContent.String(), nil
			}
			return "", fmt.Errorf("failed to read multipart body: %w", err)
		}

		partType := strings.ToLower(part.Header.Get("Content-Type"))
		switch {
		case strings.HasPrefix(partType, "multipart/"):
			nested, err := extractText(part.Header.Get("Content-Type"), "", part)
			if err == nil && nested != noTextPlaceholder {
				textContent.WriteString(nested)
			}
		case partType == "" || strings.HasPrefix(partType, "text/plain"):
			data, err := io.ReadAll(decodeTransfer(part.Header.Get("Content-Transfer-Encoding"), part))
			if err != nil {
				continue
			}
			textContent.Write(data)
			textContent.WriteString("\n")
		}
		// Skip other parts (attachments, html, etc.)
	}

	if textContent.Len() > 0 {
		return textContent.String(), nil
	}
	return noTextPlaceholder, nil
}

func decodeTransfer(encoding string, r io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, newlineStripper{r})
	case "quoted-printable":
		return quotedprintable.NewReader(r)
	default:
		return r
	}
}

// newlineStripper drops CR and LF so wrapped base64 decodes
type newlineStripper struct {
	r io.Reader
}

func (n newlineStripper) Read(p []byte) (int, error) {
	for {
		count, err := n.r.Read(p)
		kept := 0
		for _, b := range p[:count] {
			if b != '\r' && b != '\n' {
				p[kept] = b
				kept++
			}
		}
		if kept > 0 || err != nil {
			return kept, err
		}
	}
}
