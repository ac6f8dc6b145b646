// Package output defines the OutputDriver seam the design notes call for:
// hotkey/clipboard/keystroke side effects live behind this interface so the
// streaming core never imports a platform keyboard library directly (spec §9
// "Hotkey/keyboard side effects"). Concrete platform drivers (clipboard paste
// vs synthesized keystrokes) are themselves out of scope (spec §1) — this
// package only defines the contract and a logging stub a deployment swaps
// out for a real implementation.
package output

import "log"

// Driver delivers recognized text to the user's focused application.
type Driver interface {
	// Paste delivers text via the clipboard-paste path.
	Paste(text string) error
	// Type delivers text by synthesizing keystrokes, the fallback path when
	// WriteClipboardError occurs (spec §7).
	Type(text string) error
}

// Mode selects which delivery path a Driver prefers.
type Mode string

const (
	ModePaste Mode = "paste"
	ModeType  Mode = "type"
)

// logDriver is the stand-in Driver used until a platform implementation is
// wired in; it never fails, so PostProcessor/output callers can exercise the
// full pipeline without a real clipboard or keyboard library.
type logDriver struct{}

// NewLogDriver returns a Driver that logs delivered text instead of touching
// the OS clipboard or keyboard.
func NewLogDriver() Driver { return logDriver{} }

func (logDriver) Paste(text string) error {
	log.Printf("output: paste %q", text)
	return nil
}

func (logDriver) Type(text string) error {
	log.Printf("output: type %q", text)
	return nil
}

// Deliver runs the configured Mode, falling back to Type on a Paste failure
// (spec §7 WriteClipboardError).
func Deliver(d Driver, mode Mode, text string) error {
	if mode == ModeType {
		return d.Type(text)
	}
	if err := d.Paste(text); err != nil {
		log.Printf("output: paste failed, falling back to type: %v", err)
		return d.Type(text)
	}
	return nil
}
