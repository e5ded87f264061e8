package common

import (
	"fmt"
	"log"
)

// Global variable to control debug output
var VerboseMode bool = false

// SetVerboseMode enables or disables verbose/debug output
func SetVerboseMode(verbose bool) {
	VerboseMode = verbose
}

// Error messages
const (
	ErrFailedToOpenDevice        = "failed to open NetMD device"
	ErrFailedToReadConfig        = "failed to read config file"
	ErrFailedToParseConfig       = "failed to parse config file"
	ErrFailedToReadLayout        = "failed to read group layout"
	ErrFailedToParseLayout       = "failed to parse group layout"
	ErrFailedToListContent       = "failed to list disc content"
	ErrFailedToReadStatus        = "failed to read device status"
	ErrFailedToRenameDisc        = "failed to rename disc"
	ErrFailedToRewriteGroups     = "failed to rewrite disc groups"
	ErrFailedToEnterSession      = "failed to set up secure session"
	ErrFailedToDownloadTrack     = "failed to download track"
	ErrFailedToUploadTrack       = "failed to upload track"
	ErrFailedToReadAudio         = "failed to read audio file"
	ErrFailedToWriteAudio        = "failed to write audio file"
	ErrFailedToEncodeTitle       = "failed to encode title"
	ErrFailedToReadUTOC          = "failed to read UTOC sector"
	ErrFailedToWriteUTOC         = "failed to write UTOC sector"
	ErrFailedToEnterFactory      = "failed to enter factory mode"
	ErrFailedToExportDisc        = "failed to export disc"
	ErrUnknownWireformat         = "unknown wire format"
	ErrInvalidTrackNumber        = "invalid track number"
	ErrInvalidSectorSize         = "UTOC sector must be exactly 2352 bytes"
	ErrInvalidPatchValue         = "patch value must be exactly 4 bytes"
	ErrSessionNotInitialized     = "secure session not initialized"
	ErrNoDeviceFound             = "no compatible NetMD device found"
)

// Info messages
const (
	InfoDeviceOpened          = "Opened %s (%04x:%04x)"
	InfoDiscListed            = "Disc has %d tracks in %d groups"
	InfoSessionEstablished    = "Secure session %s established (EKB %08x)"
	InfoSessionClosed         = "Secure session %s closed"
	InfoTrackDownloaded       = "Track %d written to disc"
	InfoTrackUploaded         = "Track %d read from disc (%d bytes)"
	InfoDiscRenamed           = "Disc renamed to %q"
	InfoGroupsRewritten       = "Disc groups rewritten (%d groups)"
	InfoUTOCSectorRead        = "UTOC sector %d read (%d bytes)"
	InfoUTOCSectorWritten     = "UTOC sector %d written"
	InfoFactoryModeEntered    = "Factory mode entered (%s)"
	InfoWaitingForDevice      = "Waiting for device to become ready (state: %s)"
)

// Debug messages
const (
	DebugSendCommand        = "-> %x"
	DebugReadReply          = "<- %x"
	DebugReplyLength        = "Reply length register: %d (attempt %d)"
	DebugInterimRetry       = "Interim status, retry %d after %v"
	DebugDescriptorState    = "Descriptor %s -> %s"
	DebugEKBSelected        = "Selected EKB %q for leaf ID %x"
	DebugPacketEncrypted    = "Packet %d encrypted (%d bytes)"
	DebugPacketWritten      = "Packet %d written (%d/%d bytes)"
	DebugTitleBudget        = "Title budget: %d cells used by tracks, %d remaining"
	DebugGroupSkipped       = "Group %d (%s) skipped: %s title does not fit"
	DebugBulkRead           = "Bulk read %d/%d bytes"
)

// Warning messages
const (
	WarnDescriptorClose       = "Descriptor %s state change to %s failed: %v"
	WarnStaleSession          = "No stale secure session to clean up: %v"
	WarnTrackProtection       = "Could not disable new track protection: %v"
	WarnSessionKeyForget      = "Device did not forget session key: %v"
	WarnTitleBudgetExceeded   = "Title budget exceeded, %d half-width and %d full-width groups dropped"
	WarnTitlesCleared         = "Title budget exceeded, %s titles cleared"
	WarnUnknownOperatingState = "Unknown operating status 0x%04x"
)

// LogInfo logs an informational message
func LogInfo(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[INFO] "+message, args...)
	} else {
		log.Printf("[INFO] %s", message)
	}
}

// LogWarn logs a warning message
func LogWarn(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[WARN] "+message, args...)
	} else {
		log.Printf("[WARN] %s", message)
	}
}

// LogError logs an error message
func LogError(message string, args ...interface{}) {
	if len(args) > 0 {
		log.Printf("[ERROR] "+message, args...)
	} else {
		log.Printf("[ERROR] %s", message)
	}
}

// LogDebug logs a debug message (only if VerboseMode is enabled)
func LogDebug(message string, args ...interface{}) {
	if !VerboseMode {
		return
	}
	if len(args) > 0 {
		log.Printf("[DEBUG] "+message, args...)
	} else {
		log.Printf("[DEBUG] %s", message)
	}
}

// FormatError creates a formatted error with additional context
func FormatError(baseMessage string, details interface{}) error {
	if err, ok := details.(error); ok {
		return fmt.Errorf("%s: %w", baseMessage, err)
	}
	return fmt.Errorf("%s: %v", baseMessage, details)
}

// FormatErrorString creates a formatted error with string details
func FormatErrorString(baseMessage, details string, args ...interface{}) error {
	if len(args) > 0 {
		return fmt.Errorf("%s: "+details, append([]interface{}{baseMessage}, args...)...)
	}
	return fmt.Errorf("%s: %s", baseMessage, details)
}
