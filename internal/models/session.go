package models

import (
	"time"
)

type Session struct {
	SessionToken string    `json:"-"`
	DeviceID     string    `json:"device_id"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}
