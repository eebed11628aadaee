package util

import "github.com/google/uuid"

// NewSessionID returns a short random identifier used to correlate log
// lines and stats for one room session across reconnects.
func NewSessionID() string {
	return uuid.NewString()[:8]
}
