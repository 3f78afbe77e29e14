package provider

import (
	"context"
	"net/http"
)

// qrEndpoints is the candidate list for fetching a pairing QR code; the
// provider has renamed this endpoint repeatedly across versions.
var qrEndpoints = []string{
	"/qr-code",
	"/qrcode",
	"/qr-code/image",
	"/instance/qr-code",
	"/session/qr",
}

// qrPayloadKeys are the historical body keys a QR payload has appeared
// under. The first non-empty match wins.
var qrPayloadKeys = []string{
	"qrcode",
	"qrCode",
	"qr",
	"base64",
	"code",
	"image",
}

// QRResult reports either a QR payload to render or that no QR is needed
// because the instance is already paired.
type QRResult struct {
	Needed  bool
	Payload string
}

// GetQRCode checks status first: an already-connected instance needs no QR,
// and invalid credentials make probing QR endpoints pointless. Otherwise it
// accepts the first response carrying a recognizable QR payload key or a
// flipped connected flag.
func (c *Client) GetQRCode(ctx context.Context) (*QRResult, error) {
	status, err := c.GetStatus(ctx)
	if err != nil {
		if pe, ok := AsError(err); ok && pe.Class == ErrInvalidCredentials {
			return nil, pe
		}
		// Other status failures still allow a QR attempt; a freshly created
		// instance often answers QR endpoints before any status endpoint.
	} else if status.Connected {
		return &QRResult{Needed: false}, nil
	}

	var lastErr error
	for _, endpoint := range qrEndpoints {
		body, err := c.call(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			lastErr = err
			continue
		}
		if v, ok := body["connected"].(bool); ok && v {
			return &QRResult{Needed: false}, nil
		}
		for _, key := range qrPayloadKeys {
			if payload, ok := body[key].(string); ok && payload != "" {
				return &QRResult{Needed: true, Payload: payload}, nil
			}
		}
		// Answered but with no QR under any known key; try the next shape.
	}

	if lastErr != nil {
		if pe, ok := AsError(lastErr); ok {
			return nil, pe
		}
		return nil, lastErr
	}
	return nil, &Error{Class: ErrUnclassified, Detail: "no QR payload found under any known endpoint"}
}
