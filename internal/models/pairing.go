package models

import (
	"time"
)

// Pairing binds a short numeric code to a device for one claim.
// ClaimedAt is nil until the code is consumed; a claimed or expired
// row is logically dead and its code may be reissued.
type Pairing struct {
	PairCode  string     `json:"pair_code"`
	DeviceID  string     `json:"device_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	ClaimedAt *time.Time `json:"claimed_at,omitempty"`
}
