package utils

import (
	"fmt"

	qrcode "github.com/skip2/go-qrcode"
)

// QR sizes: 256px for on-screen display, 1024px for the PNG download.
const (
	QRSizeDisplay  = 256
	QRSizeDownload = 1024
)

// SurveyQRPNG renders the public survey URL as a PNG QR code.
func SurveyQRPNG(publicURL string, size int) ([]byte, error) {
	if publicURL == "" {
		return nil, fmt.Errorf("empty survey URL")
	}
	if size <= 0 {
		size = QRSizeDisplay
	}
	return qrcode.Encode(publicURL, qrcode.Medium, size)
}
