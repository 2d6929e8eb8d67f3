// Package audio provides the playback gateway that plays the phone's WAV
// tracks. The real implementation uses the system sound device.
// The fake implementation allows testing without audio hardware.
package audio

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Player plays one track at a time. Play preempts the current track.
type Player interface {
	Play(track string) error
	Stop() error
	IsPlaying() bool
	Close() error
}

// CheckLibrary verifies the media directory. It returns the tracks that are
// missing, and an error if the directory is unusable or any required track
// is missing.
func CheckLibrary(dir string, tracks []string, required []string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("media directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("media directory %s is not a directory", dir)
	}

	var missing []string
	for _, t := range tracks {
		fi, err := os.Stat(filepath.Join(dir, t))
		if err != nil || fi.IsDir() {
			missing = append(missing, t)
		}
	}

	var errs []error
	for _, r := range required {
		for _, m := range missing {
			if r == m {
				errs = append(errs, fmt.Errorf("required track %s not found in %s", r, dir))
				break
			}
		}
	}
	return missing, errors.Join(errs...)
}
