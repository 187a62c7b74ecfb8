package tasks

import (
	"fmt"

	"github.com/desertthunder/clmusic/internal/models"
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
	SearchTracks Phase = iota
	ResolveCovers
	FetchStream
	SaveFile
)

func (p Phase) String() string {
	switch p {
	case SearchTracks:
		return "search_tracks"
	case ResolveCovers:
		return "resolve_covers"
	case FetchStream:
		return "fetch_stream"
	case SaveFile:
		return "save_file"
	default:
		return ""
	}
}

// sendProgress sends an update without blocking; a full or nil channel drops it.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func searchingUpdate(query string, source models.Source) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SearchTracks,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Searching %s for %q...", source, query),
	}
}

func coverUpdate(step, total int, tr *models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveCovers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] cover for %s", step, total, tr.Display()),
		Data:    tr,
	}
}

func fetchStreamUpdate(tr models.Track, quality models.Quality) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchStream,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Resolving %s at %s...", tr.Display(), quality),
	}
}

// saveUpdate reports bytes written; total is -1 when the length is unknown.
func saveUpdate(written, total int64, name string) ProgressUpdate {
	msg := fmt.Sprintf("%s: %d bytes", name, written)
	if total > 0 {
		msg = fmt.Sprintf("%s: %d/%d bytes", name, written, total)
	}
	return ProgressUpdate{
		Phase:   SaveFile,
		Step:    int(written),
		Total:   int(total),
		Message: msg,
	}
}
