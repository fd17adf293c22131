package version

import (
	"strings"
	"testing"
)

func TestUserAgent(t *testing.T) {
	old := Version
	Version = "v1.2.3"
	t.Cleanup(func() { Version = old })

	if got := UserAgent(); got != "livewatch/v1.2.3" {
		t.Errorf("UserAgent() = %q, want %q", got, "livewatch/v1.2.3")
	}
	if got := String(); !strings.HasPrefix(got, "livewatch v1.2.3 (commit=") {
		t.Errorf("String() = %q", got)
	}
}
