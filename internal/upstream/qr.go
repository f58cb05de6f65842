package upstream

import (
	"encoding/base64"
	"fmt"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

// QR is the canonical QR payload representation. The backend is
// inconsistent about what it returns for the qrcode field: sometimes a
// ready-to-use data URI, sometimes a bare base64 image, sometimes the raw
// pairing code. Callers downstream of NormalizeQR only ever see a data URI.
type QR struct {
	// DataURI is a data:image/...;base64 string ready for an <img> tag.
	DataURI string
	// Code is the raw pairing code, when the payload carried one.
	Code string
}

// NormalizeQR converts any of the observed qrcode payload encodings into
// the canonical form.
func NormalizeQR(payload string) (QR, error) {
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return QR{}, fmt.Errorf("empty qr payload")
	}

	if strings.HasPrefix(payload, "data:image/") {
		return QR{DataURI: payload}, nil
	}

	if raw, err := base64.StdEncoding.DecodeString(payload); err == nil && isImage(raw) {
		return QR{DataURI: "data:image/png;base64," + payload}, nil
	}

	// Raw pairing code: render it ourselves.
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		return QR{}, fmt.Errorf("failed to render qr code: %w", err)
	}
	return QR{
		DataURI: "data:image/png;base64," + base64.StdEncoding.EncodeToString(png),
		Code:    payload,
	}, nil
}

// isImage checks for PNG and JPEG magic bytes
func isImage(raw []byte) bool {
	if len(raw) < 4 {
		return false
	}
	if raw[0] == 0x89 && raw[1] == 'P' && raw[2] == 'N' && raw[3] == 'G' {
		return true
	}
	return raw[0] == 0xff && raw[1] == 0xd8
}
