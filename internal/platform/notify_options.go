// Package platform sends desktop notifications through the host's native
// notification service.
package platform

import "time"

// Urgency mirrors the Freedesktop urgency levels.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// DefaultAppName is reported to the notification service when Options
// leaves AppName empty.
const DefaultAppName = "RadView"

// Options configures how a notification is displayed on the host platform.
type Options struct {
	// AppName identifies the sender; empty means DefaultAppName.
	AppName string
	// IconPath, when non-empty, points to an image file the notification center
	// should display with the notification if supported by the platform.
	IconPath string
	Urgency  Urgency
	// Timeout is how long the notification stays up; zero uses 5s.
	Timeout time.Duration
}

func (o Options) appName() string {
	if o.AppName == "" {
		return DefaultAppName
	}
	return o.AppName
}

func (o Options) timeoutMillis() int32 {
	if o.Timeout <= 0 {
		return 5000
	}
	return int32(o.Timeout / time.Millisecond)
}
