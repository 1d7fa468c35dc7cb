package domain

// RecordFailure describes one post a record store could not write.
type RecordFailure struct {
	Ordinal int
	Error   string
}

// StorageResult is the outcome of writing to one sink.
type StorageResult struct {
	SinkID         string
	Succeeded      bool
	Locator        string
	SummaryLocator string
	ErrorDetail    string
	Written        int
	RecordFailures []RecordFailure
}

// EmergencyFiles points at the local files written when every sink failed.
type EmergencyFiles struct {
	PostsPath   string
	SummaryPath string
}

// PersistenceOutcome aggregates one StorageResult per configured sink.
type PersistenceOutcome struct {
	Results               []StorageResult
	UsedEmergencyFallback bool
	Emergency             *EmergencyFiles
}

// Succeeded counts sinks that accepted the batch.
func (o PersistenceOutcome) Succeeded() int {
	n := 0
	for _, r := range o.Results {
		if r.Succeeded {
			n++
		}
	}
	return n
}
