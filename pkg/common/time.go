// Package common provides shared helpers for disc time values.
// MiniDisc positions are counted in hours, minutes, seconds and frames,
// with 512 frames per second.
package common

import "fmt"

// FramesPerSecond is the number of sound frames per second on disc.
const FramesPerSecond = 512

// TimeToFrames converts an (hour, minute, second, frame) tuple to a frame count
func TimeToFrames(hour, minute, second, frame int) int {
	return ((hour*60+minute)*60+second)*FramesPerSecond + frame
}

// FramesToTime splits a frame count back into (hour, minute, second, frame)
func FramesToTime(frames int) (hour, minute, second, frame int) {
	frame = frames % FramesPerSecond
	frames /= FramesPerSecond
	second = frames % 60
	frames /= 60
	minute = frames % 60
	hour = frames / 60
	return
}

// FormatTimeFromFrames renders a frame count as hh:mm:ss+fff
func FormatTimeFromFrames(frames int) string {
	h, m, s, f := FramesToTime(frames)
	return fmt.Sprintf("%02d:%02d:%02d+%03d", h, m, s, f)
}
