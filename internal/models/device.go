package models

import (
	"time"
)

type Device struct {
	ID                   string     `json:"id"`
	HardwareUID          string     `json:"hardware_uid"`
	DeviceToken          string     `json:"-"`
	DeviceTokenExpiresAt *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
}
