package extract

import (
	"bytes"
	"io"
	"mime"
	"net/mail"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"go.uber.org/zap"

	"github.com/mikey/phish-interrogator/internal/core"
)

// DateLayout is the date format the classifier parses
const DateLayout = "2006-01-02 15:04:05"

var headerDecoder = &mime.WordDecoder{CharsetReader: charset.Reader}

// FromMessage builds MessageAttributes from an RFC 5322 message.
// Like Extract it never fails; unreadable parts become placeholders.
func (e *Extractor) FromMessage(r io.Reader) core.MessageAttributes {
	raw, err := io.ReadAll(r)
	if err != nil {
		e.logger.Warn("Failed to read message", zap.Error(err))
		return core.NewMessageAttributes("", "", "", "", "", "")
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		e.logger.Warn("Failed to parse message", zap.Error(err))
		return core.NewMessageAttributes("", "", "", "", "", "")
	}

	from := decodeHeader(msg.Header.Get("From"))
	if addr, err := mail.ParseAddress(from); err == nil {
		from = addr.Address
	}

	var to, receiverName string
	if addrs, err := msg.Header.AddressList("To"); err == nil && len(addrs) > 0 {
		list := make([]string, 0, len(addrs))
		for _, a := range addrs {
			list = append(list, a.Address)
		}
		to = strings.Join(list, ", ")
		receiverName = addrs[0].Name
	} else {
		to = decodeHeader(msg.Header.Get("To"))
	}

	var date string
	if t, err := msg.Header.Date(); err == nil {
		date = t.Format(DateLayout)
	}

	body, err := readBody(raw)
	if err != nil {
		e.logger.Warn("Failed to read message body", zap.Error(err))
		body = ""
	}

	return core.NewMessageAttributes(
		e.textProcessor.Normalize(from),
		e.textProcessor.Normalize(to),
		date,
		e.textProcessor.Normalize(decodeHeader(msg.Header.Get("Subject"))),
		e.textProcessor.Normalize(body),
		e.textProcessor.Normalize(receiverName),
	)
}

func decodeHeader(value string) string {
	decoded, err := headerDecoder.DecodeHeader(value)
	if err != nil {
		return value
	}
	return decoded
}

// readBody returns the body text a reader would see. Transfer encodings and
// charsets are decoded; multipart messages keep only their text/plain parts.
func readBody(raw []byte) (string, error) {
	entity, err := message.Read(bytes.NewReader(raw))
	if err != nil && !isRecoverable(err) {
		return "", err
	}

	if mr := multipartReader(entity); mr != nil {
		return readTextParts(mr)
	}

	bodyBytes, err := io.ReadAll(entity.Body)
	if err != nil {
		return "", err
	}
	return string(bodyBytes), nil
}

// isRecoverable reports errors that still leave a readable entity behind
func isRecoverable(err error) bool {
	return message.IsUnknownCharset(err) || message.IsUnknownEncoding(err)
}

func multipartReader(e *message.Entity) message.MultipartReader {
	mediaType, params, err := e.Header.ContentType()
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") || params["boundary"] == "" {
		return nil
	}
	return e.MultipartReader()
}

// readTextParts concatenates text/plain parts, descending into nested multiparts
func readTextParts(mr message.MultipartReader) (string, error) {
	var textContent bytes.Buffer

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil && !isRecoverable(err) {
			// Keep what was read before the broken part
			if textContent.Len() > 0 {
				return textContent.String(), nil
			}
			return "", err
		}

		if nested := multipartReader(part); nested != nil {
			if text, err := readTextParts(nested); err == nil {
				textContent.WriteString(text)
			}
			continue
		}

		mediaType, _, err := part.Header.ContentType()
		if err != nil || mediaType != "text/plain" {
			continue
		}
		partBytes, err := io.ReadAll(part.Body)
		if err != nil {
			continue
		}
		textContent.Write(partBytes)
		textContent.WriteString("\n")
	}

	return textContent.String(), nil
}
