package transferservice

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-petr/pet-wallet/internal/domain"
	"github.com/go-petr/pet-wallet/pkg/moneypkg"
)

// QRScheme is the URI scheme of payment QR codes issued by the wallet.
const QRScheme = "petwallet"

// ParseQRPayload decodes a scanned payment QR code.
//
// Both petwallet://pay?email=&name=&amount=&note= and the UPI style
// upi://pay?pa=&pn=&am=&tn= keys are accepted. A payload without a recipient
// is reported as domain.ErrDestinationNotFound.
func ParseQRPayload(payload string) (domain.QRPayload, error) {
	var qr domain.QRPayload

	u, err := url.Parse(strings.TrimSpace(payload))
	if err != nil {
		return qr, fmt.Errorf("%w: malformed qr payload", domain.ErrInvalidRequest)
	}

	switch strings.ToLower(u.Scheme) {
	case QRScheme, "upi":
	default:
		return qr, fmt.Errorf("%w: unsupported qr scheme %q", domain.ErrInvalidRequest, u.Scheme)
	}

	q := u.Query()

	first := func(keys ...string) string {
		for _, k := range keys {
			if v := strings.TrimSpace(q.Get(k)); v != "" {
				return v
			}
		}

		return ""
	}

	qr.Email = strings.ToLower(first("email", "pa"))
	qr.Name = first("name", "pn")
	qr.Amount = first("amount", "am")
	qr.Note = first("note", "tn")

	if qr.Email == "" {
		return qr, fmt.Errorf("%w: qr payload has no recipient", domain.ErrDestinationNotFound)
	}

	return qr, nil
}

// EncodeQRPayload renders the payload the way ParseQRPayload reads it.
func EncodeQRPayload(qr domain.QRPayload) string {
	q := url.Values{}
	q.Set("email", qr.Email)

	if qr.Name != "" {
		q.Set("name", qr.Name)
	}

	if qr.Amount != "" {
		q.Set("amount", qr.Amount)
	}

	if qr.Note != "" {
		q.Set("note", qr.Note)
	}

	u := url.URL{Scheme: QRScheme, Host: "pay", RawQuery: q.Encode()}

	return u.String()
}

// qrAmount picks the amount to pay. When both the request and the payload carry one they must agree.
func qrAmount(requested, encoded string) (string, error) {
	switch {
	case requested == "":
		return encoded, nil
	case encoded == "":
		return requested, nil
	}

	a, err := moneypkg.Parse(requested)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}

	b, err := moneypkg.Parse(encoded)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidAmount, err)
	}

	if a != b {
		return "", fmt.Errorf("%w: amount does not match the qr code", domain.ErrInvalidAmount)
	}

	return requested, nil
}
