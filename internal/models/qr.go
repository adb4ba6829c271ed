package models

// QRPayload is the content encoded in a user's printed/displayed QR code.
// This is a stable wire contract: codes already in circulation must remain
// scannable, so fields are only ever added, and QRID is never regenerated
// for an existing account.
type QRPayload struct {
	Type      string `json:"type"`
	QRID      string `json:"qrId"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	Society   string `json:"society"`
	Phone     string `json:"phone"`
	CreatedAt string `json:"createdAt"`
	Version   string `json:"version"`
}

// QRPayloadType is the discriminator for user waste-collection QR codes.
const QRPayloadType = "user_waste_collection"

// QRPayloadVersion is bumped only on additive payload changes.
const QRPayloadVersion = "1.0"
