package hotkey

import (
	"strings"

	"github.com/rbright/hotscribe/internal/failure"
)

// CheckTap reports why a global key tap cannot observe key events in the
// session described by goos and getenv. A nil error means the tap can start;
// the platform may still prompt for input monitoring.
func CheckTap(goos string, getenv func(string) string) error {
	if goos == "darwin" || goos == "windows" {
		return nil
	}
	if strings.TrimSpace(getenv("DISPLAY")) != "" {
		return nil
	}
	if strings.EqualFold(strings.TrimSpace(getenv("XDG_SESSION_TYPE")), "wayland") {
		return failure.New(failure.KindPermission, "Wayland session without XWayland blocks global key taps; bind `hotscribe toggle` in the compositor instead")
	}
	return failure.New(failure.KindPermission, "no X display (DISPLAY is unset); global key taps are unavailable")
}
