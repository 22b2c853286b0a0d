package verification

import "time"

// Status is the verdict of one track or of a whole run.
type Status string

const (
	StatusPending Status = "PENDING"
	StatusOk      Status = "OK"
	StatusFailed  Status = "FAILED"
)

// TrackRecord is the verification state of one log position.
type TrackRecord struct {
	Position         int
	FileName         string
	ExpectedChecksum string
	ActualChecksum   string
	Status           Status
}

// Run aggregates the records of one invocation.
type Run struct {
	ID        string
	AlbumPath string
	LogFile   string
	Tracks    []*TrackRecord
	Status    Status
	Timestamp time.Time
	Duration  time.Duration
}

// Failed returns the records whose checksum did not match.
func (r *Run) Failed() []*TrackRecord {
	var failed []*TrackRecord
	for _, t := range r.Tracks {
		if t.Status != StatusOk {
			failed = append(failed, t)
		}
	}
	return failed
}

func aggregate(tracks []*TrackRecord) Status {
	if len(tracks) == 0 {
		return StatusFailed
	}
	for _, t := range tracks {
		if t.Status != StatusOk {
			return StatusFailed
		}
	}
	return StatusOk
}
