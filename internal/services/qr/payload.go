package qr

import (
	"regexp"
	"time"

	"cleanbage/internal/models"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9]`)

// ID derives the permanent QR identifier for an account. It is a pure
// function of the user's id and email: the same inputs always produce the
// same identifier, so a printed code never goes stale.
func ID(userID, email string) string {
	return "QR_" + userID + "_" + nonAlphanumeric.ReplaceAllString(email, "_")
}

// PayloadFor builds the wire payload encoded into a user's QR code.
func PayloadFor(u *models.User) models.QRPayload {
	return models.QRPayload{
		Type:      models.QRPayloadType,
		QRID:      ID(u.ID, u.Email),
		UserID:    u.ID,
		UserName:  u.Name,
		UserEmail: u.Email,
		Society:   u.Society,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt.UTC().Format(time.RFC3339),
		Version:   models.QRPayloadVersion,
	}
}
