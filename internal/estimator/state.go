package estimator

// State は Estimate 呼び出しの状態
type State int

const (
	StateIdle State = iota
	StatePartitioning
	StateDispatched
	StateAllWorkersComplete
	StateAggregated
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StatePartitioning:
		return "Partitioning"
	case StateDispatched:
		return "Dispatched"
	case StateAllWorkersComplete:
		return "AllWorkersComplete"
	case StateAggregated:
		return "Aggregated"
	case StateDone:
		return "Done"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal は終端状態かどうかを返す
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
