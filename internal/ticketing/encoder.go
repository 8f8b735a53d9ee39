package ticketing

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/skip2/go-qrcode"
)

const dataURIPrefix = "data:image/png;base64,"

// ErrEncodingFailed is returned when the QR image cannot be rendered.
var ErrEncodingFailed = errors.New("qr code encoding failed")

// Encoder renders ticket payloads as PNG QR codes.
type Encoder struct {
	Level qrcode.RecoveryLevel
	Size  int
}

// NewEncoder returns an encoder with the given pixel size and recovery
// level name ("low", "medium", "high", "highest").
func NewEncoder(size int, recovery string) *Encoder {
	if size <= 0 {
		size = 256
	}
	return &Encoder{Level: ParseRecoveryLevel(recovery), Size: size}
}

func ParseRecoveryLevel(name string) qrcode.RecoveryLevel {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "low":
		return qrcode.Low
	case "high":
		return qrcode.High
	case "highest":
		return qrcode.Highest
	default:
		return qrcode.Medium
	}
}

// Encode builds the payload for token and renders it as a data URI.
func (e *Encoder) Encode(token string, event EventSummary, participant ParticipantSummary) (string, error) {
	text, err := EncodePayload(NewPayload(token, event, participant))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	return e.Render(text)
}

// Render turns arbitrary text into a PNG data URI.
func (e *Encoder) Render(text string) (string, error) {
	png, err := qrcode.Encode(text, e.Level, e.Size)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrEncodingFailed, err)
	}
	return dataURIPrefix + base64.StdEncoding.EncodeToString(png), nil
}

// DecodeDataURI returns the PNG bytes of a data URI produced by Render.
func DecodeDataURI(uri string) ([]byte, error) {
	if !strings.HasPrefix(uri, dataURIPrefix) {
		return nil, errors.New("not a png data uri")
	}
	return base64.StdEncoding.DecodeString(strings.TrimPrefix(uri, dataURIPrefix))
}
