package constants

// ContractStatus is the lifecycle state of an uploaded contract.
type ContractStatus string

// Stable values (these exact strings are stored and returned by the API).
const (
	StatusPending    ContractStatus = "pending"    // uploaded, not yet picked up
	StatusProcessing ContractStatus = "processing" // text extraction / LLM in progress
	StatusCompleted  ContractStatus = "completed"  // terminal, data populated
	StatusFailed     ContractStatus = "failed"     // terminal, error populated
)

// Progress checkpoints written by the pipeline.
const (
	ProgressPending       = 0
	ProgressStarted       = 10
	ProgressTextExtracted = 40
	ProgressDone          = 100
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s ContractStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

func (s ContractStatus) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}
