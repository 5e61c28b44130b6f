// Package errmsg provides consistent error formatting for user-facing messages.
package errmsg

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// Op represents an operation that can fail.
type Op string

// Operation constants - grouped by domain.
const (
	// Playback operations
	OpPlaybackStart Op = "start playback"
	OpPlaybackSeek  Op = "seek"
	OpDecoderOpen   Op = "open audio file"
	OpDeviceInit    Op = "initialize audio device"

	// Playlist persistence
	OpPlaylistRestore Op = "load playlist"

	// External surfaces
	OpMPRISExport Op = "export MPRIS interface"

	// Configuration
	OpConfigLoad Op = "load configuration"
	OpConfigSave Op = "save configuration"
)

// Format creates a user-friendly error message.
func Format(op Op, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Failed to %s: %v", op, err)
}

// FormatWith creates an error message with additional context.
func FormatWith(op Op, context string, err error) string {
	if err == nil {
		return ""
	}
	if context == "" {
		return Format(op, err)
	}
	return fmt.Sprintf("Failed to %s '%s': %v", op, context, err)
}

// FormatSkip renders the status line shown when playback auto-advances
// past a track it could not play.
func FormatSkip(path string, err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Skipping: %s: %v", path, err)
}

// FormatSize renders a file size for a status line, e.g. "4.1 MB".
func FormatSize(bytes int64) string {
	return humanize.Bytes(uint64(bytes))
}
