// Package volume cuts an ordered file list into output documents.
//
// A volume is filled file by file until its line counter reaches the
// threshold; the next file then opens a new volume. A file is never split,
// so a volume whose first file alone exceeds the threshold holds just that
// file.
package volume

import (
	"context"
	"errors"
	"fmt"
)

// ErrInvalidThreshold is returned for thresholds below one line.
var ErrInvalidThreshold = errors.New("volume line threshold must be at least 1")

// Volume summarises one written document.
type Volume struct {
	Number int
	Files  []string
	Lines  int
}

// Publisher opens output documents.
type Publisher interface {
	Open(number int) (Writer, error)
}

// Writer receives the files of one volume.
type Writer interface {
	// WriteFile renders path and returns the number of lines it took.
	WriteFile(ctx context.Context, path string) (int, error)
	Close() error
}

// Split writes paths into as many volumes as the threshold requires and
// returns what went where. Volumes are numbered from 1. On error the
// volumes finished so far are returned along with it.
func Split(ctx context.Context, paths []string, threshold int, publisher Publisher) ([]Volume, error) {
	if threshold < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidThreshold, threshold)
	}

	var volumes []Volume
	next := 0
	for number := 1; next < len(paths); number++ {
		if err := ctx.Err(); err != nil {
			return volumes, err
		}

		w, err := publisher.Open(number)
		if err != nil {
			return volumes, fmt.Errorf("failed to open volume %d: %w", number, err)
		}

		v := Volume{Number: number}
		for next < len(paths) && v.Lines < threshold {
			if err := ctx.Err(); err != nil {
				_ = w.Close()
				return volumes, err
			}
			path := paths[next]
			next++

			n, err := w.WriteFile(ctx, path)
			if err != nil {
				_ = w.Close()
				return volumes, err
			}
			v.Files = append(v.Files, path)
			v.Lines += n
		}

		if err := w.Close(); err != nil {
			return volumes, fmt.Errorf("failed to close volume %d: %w", number, err)
		}
		volumes = append(volumes, v)
	}
	return volumes, nil
}
