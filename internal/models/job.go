package models

// JobRecord is one listing extracted from the listings page.
type JobRecord struct {
	ID    int64  `json:"id,omitempty"`
	UID   string `json:"uid"`
	Title string `json:"title"`
}

// RecordFailure pairs a record with the reason it could not be persisted.
type RecordFailure struct {
	Record JobRecord `json:"record"`
	Err    error     `json:"-"`
	Reason string    `json:"reason"`
}

// SaveReport summarizes a batch persisted one record at a time.
type SaveReport struct {
	Saved  []JobRecord     `json:"saved"`
	Failed []RecordFailure `json:"failed,omitempty"`
}

func (r SaveReport) Total() int {
	return len(r.Saved) + len(r.Failed)
}

func (r SaveReport) Partial() bool {
	return len(r.Failed) > 0
}
