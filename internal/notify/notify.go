// Package notify logs viewer notices and forwards the enabled ones to the
// desktop notification service.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/example/radview/internal/config"
	"github.com/example/radview/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventRefused reports an action refused to protect an invariant.
	EventRefused Event = "refused"
	// EventLoadFailed reports an image that could not be decoded.
	EventLoadFailed Event = "load-failed"
	// EventUploadFailed reports a file whose upload was rolled back.
	EventUploadFailed Event = "upload-failed"
	// EventSkipped reports files filtered out before upload.
	EventSkipped Event = "skipped"
	// EventSaved reports a frame written to disk.
	EventSaved Event = "saved"
	// EventCopied reports a frame copied to the clipboard.
	EventCopied Event = "copied"
	// EventStoreFailed reports a viewer state save failure.
	EventStoreFailed Event = "store-failed"
)

// Events lists every event in a stable order.
func Events() []Event {
	return []Event{EventRefused, EventLoadFailed, EventUploadFailed, EventSkipped, EventSaved, EventCopied, EventStoreFailed}
}

// Failure reports whether e describes something that went wrong.
func (e Event) Failure() bool {
	switch e {
	case EventLoadFailed, EventUploadFailed, EventStoreFailed:
		return true
	}
	return false
}

// EventPreference describes formatting for a notification event.
type EventPreference struct {
	Template string
}

// Preferences describes notification behaviour loaded from configuration.
type Preferences struct {
	Title  string
	Events map[Event]EventPreference
}

// DefaultPreferences returns the default notification settings.
func DefaultPreferences() Preferences {
	prefs := Preferences{Title: "RadView", Events: make(map[Event]EventPreference)}
	for _, e := range Events() {
		prefs.Events[e] = EventPreference{Template: "%s"}
	}
	prefs.Events[EventSaved] = EventPreference{Template: "Saved %s"}
	prefs.Events[EventCopied] = EventPreference{Template: "Copied %s to clipboard"}
	return prefs
}

// LoadPreferences reads title and template overrides from the environment,
// e.g. RADVIEW_NOTIFY_TITLE or RADVIEW_NOTIFY_LOAD_FAILED_TEXT.
func LoadPreferences() Preferences {
	prefs := DefaultPreferences()
	if v := strings.TrimSpace(os.Getenv("RADVIEW_NOTIFY_TITLE")); v != "" {
		prefs.Title = v
	}
	for _, e := range Events() {
		key := "RADVIEW_NOTIFY_" + strings.ToUpper(strings.ReplaceAll(string(e), "-", "_")) + "_TEXT"
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			prefs.Events[e] = EventPreference{Template: v}
		}
	}
	return prefs
}

// Notifier logs every event and sends OS-level notifications for the
// enabled ones.
type Notifier struct {
	prefs   Preferences
	enabled map[Event]bool
	log     zerolog.Logger
	send    func(title, body string, opts platform.Options) error
}

// New creates a new Notifier using the provided preferences.
func New(prefs Preferences, log zerolog.Logger) *Notifier {
	cloned := Preferences{Title: prefs.Title, Events: make(map[Event]EventPreference, len(prefs.Events))}
	for k, v := range prefs.Events {
		cloned.Events[k] = v
	}
	return &Notifier{
		prefs:   cloned,
		enabled: make(map[Event]bool),
		log:     log,
		send:    platform.Notify,
	}
}

// Enable toggles the notifier for the provided event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	if n.enabled == nil {
		n.enabled = make(map[Event]bool)
	}
	n.enabled[event] = enabled
}

// Configure applies the per-event toggles from the config file.
func (n *Notifier) Configure(c config.Notify) {
	n.Enable(EventRefused, c.Refused)
	n.Enable(EventLoadFailed, c.LoadFailed)
	n.Enable(EventUploadFailed, c.UploadFailed)
	n.Enable(EventSkipped, c.Skipped)
	n.Enable(EventSaved, c.Saved)
	n.Enable(EventCopied, c.Copied)
	n.Enable(EventStoreFailed, c.StoreFailed)
}

// Notify logs text and, when enabled, shows it on the desktop.
func (n *Notifier) Notify(event Event, text string) {
	if n == nil {
		return
	}
	evt := n.log.Info()
	if event.Failure() {
		evt = n.log.Warn()
	}
	evt.Str("event", string(event)).Msg(text)
	opts := platform.Options{}
	if event.Failure() {
		opts.Urgency = platform.UrgencyCritical
	}
	n.dispatch(event, text, opts)
}

// Saved reports a file written to path, using it as the notification icon.
func (n *Notifier) Saved(path string) {
	if n == nil {
		return
	}
	detail := strings.TrimSpace(path)
	opts := platform.Options{}
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, statErr := os.Stat(abs); statErr == nil {
			opts.IconPath = abs
		}
	}
	n.log.Info().Str("event", string(EventSaved)).Str("path", detail).Msg("frame saved")
	n.dispatch(EventSaved, detail, opts)
}

// Copied reports a frame placed on the clipboard with a preview icon.
func (n *Notifier) Copied(detail string, img image.Image) {
	if n == nil {
		return
	}
	if strings.TrimSpace(detail) == "" {
		detail = "frame"
	}
	n.log.Info().Str("event", string(EventCopied)).Msg(detail)
	if !n.enabledFor(EventCopied) {
		return
	}
	opts := platform.Options{}
	if img != nil {
		if path, cleanup, err := createPreview(img); err != nil {
			n.log.Warn().Err(err).Msg("notification preview")
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventCopied, detail, opts)
}

func (n *Notifier) enabledFor(event Event) bool {
	if n == nil || n.enabled == nil {
		return false
	}
	return n.enabled[event]
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.enabledFor(event) {
		return
	}
	template := strings.TrimSpace(n.template(event))
	if template == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(template, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		n.log.Debug().Err(err).Str("event", string(event)).Msg("desktop notification")
	}
}

func (n *Notifier) template(event Event) string {
	if pref, ok := n.prefs.Events[event]; ok {
		return pref.Template
	}
	return ""
}

func createPreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "radview-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	cleanup := func() { _ = os.Remove(path) }
	return path, cleanup, nil
}
