package tasks

import (
	"fmt"

	"github.com/desertthunder/yt2mp3/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Resolve Phase = iota
	LocateVideo
	FetchPlaylist
	Download
	Convert
	FetchCover
	Tag
	Record
	Skip
	Done
	Failed
)

func (p Phase) String() string {
	switch p {
	case Resolve:
		return "resolve"
	case LocateVideo:
		return "locate_video"
	case FetchPlaylist:
		return "fetch_playlist"
	case Download:
		return "download"
	case Convert:
		return "convert"
	case FetchCover:
		return "fetch_cover"
	case Tag:
		return "tag"
	case Record:
		return "record"
	case Skip:
		return "skip"
	case Done:
		return "done"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func songLabel(song *models.ResolvedSong) string {
	return fmt.Sprintf("%s - %s", song.Artist, song.Track)
}

func downloadUpdate(step, total int, song *models.ResolvedSong) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Download,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Downloading %s...", songLabel(song)),
	}
}

func convertUpdate(step, total int, pct float64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Convert,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Converting to mp3 (%.0f%%)...", pct),
		Data:    pct,
	}
}

func coverUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchCover,
		Step:    step,
		Total:   total,
		Message: "Fetching cover art...",
	}
}

func tagUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Tag,
		Step:    step,
		Total:   total,
		Message: "Writing tags...",
	}
}

func skipUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Skip,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Already downloaded: %s", path),
		Data:    path,
	}
}

func doneUpdate(step, total int, song *models.ResolvedSong, path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Done,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("✓ %s → %s", songLabel(song), path),
		Data:    song,
	}
}

func fetchPlaylistUpdate(url string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetching playlist %s...", url),
	}
}

func resolveEntryUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolve,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Resolving %s...", step, total, title),
	}
}

func entryFailedUpdate(step, total int, title string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, title, err),
	}
}

func entryDoneUpdate(step, total int, result *SongResult) ProgressUpdate {
	msg := fmt.Sprintf("[%d/%d] ✓ %s", step, total, songLabel(result.Song))
	if result.Skipped {
		msg = fmt.Sprintf("[%d/%d] = %s (already downloaded)", step, total, songLabel(result.Song))
	}
	return ProgressUpdate{
		Phase:   Done,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    result,
	}
}
