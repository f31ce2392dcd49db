package enum

type RunStatus string

const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

func (t RunStatus) String() string {
	return string(t)
}

// RerunPolicy controls what happens when a run is re-executed for a date
// that already has a finalized report
type RerunPolicy string

const (
	RerunOverwrite RerunPolicy = "overwrite"
	RerunAppend    RerunPolicy = "append"
)

func (t RerunPolicy) String() string {
	return string(t)
}
