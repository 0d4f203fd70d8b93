package models

import (
	"encoding/json"
	"time"
)

type ModuleType string

const (
	ModuleText     ModuleType = "text"
	ModuleBTCPrice ModuleType = "btc_price"
	ModuleWeather  ModuleType = "weather"
)

// ValidModuleType reports whether t is one of the supported module types.
func ValidModuleType(t string) bool {
	switch ModuleType(t) {
	case ModuleText, ModuleBTCPrice, ModuleWeather:
		return true
	}
	return false
}

// ModuleConfig is the single active config for a device, replaced
// wholesale on every write. Params semantics are owned by the render
// pipeline.
type ModuleConfig struct {
	DeviceID  string          `json:"device_id"`
	Type      ModuleType      `json:"type"`
	Params    json.RawMessage `json:"params"`
	UpdatedAt time.Time       `json:"updated_at"`
}
