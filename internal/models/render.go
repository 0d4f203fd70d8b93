package models

// Render is the resolved display output for a device's current module.
// TTL tells the device how long the lines stay valid.
type Render struct {
	Lines []string `json:"lines"`
	TTL   int      `json:"ttl"`
}

// ConfigResponse is the poll payload returned to a device.
type ConfigResponse struct {
	Render      Render `json:"render"`
	NextPollSec int    `json:"next_poll_sec"`
}
