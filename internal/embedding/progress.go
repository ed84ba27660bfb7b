package embedding

// Status is a phase of engine initialization reported to the progress observer.
type Status string

const (
	StatusDownloading Status = "downloading"
	StatusLoading     Status = "loading"
	StatusProcessing  Status = "processing"
	StatusReady       Status = "ready"
	StatusError       Status = "error"
)

// Event is a progress notification emitted during engine initialization.
// Percent is only meaningful for StatusDownloading; -1 means unknown.
type Event struct {
	Status  Status
	Percent float64
	Message string
}

// Observer receives progress events. Purely observational: it is never
// required for correctness and may be nil.
type Observer func(Event)

func (o Observer) emit(e Event) {
	if o != nil {
		o(e)
	}
}
