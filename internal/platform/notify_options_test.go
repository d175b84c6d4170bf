package platform

import (
	"testing"
	"time"
)

func TestOptionDefaults(t *testing.T) {
	var o Options
	if o.appName() != DefaultAppName || o.timeoutMillis() != 5000 {
		t.Fatalf("defaults = %q %d", o.appName(), o.timeoutMillis())
	}
	o = Options{AppName: "Reader", Timeout: 2 * time.Second}
	if o.appName() != "Reader" || o.timeoutMillis() != 2000 {
		t.Fatalf("overrides = %q %d", o.appName(), o.timeoutMillis())
	}
}
