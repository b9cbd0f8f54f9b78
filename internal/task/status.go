package task

// Status is the lifecycle state of a classification task. The worker is the
// only writer after creation; transitions go through CanTransition so every
// move is checked against the same table.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusDone       Status = "done"
	StatusFailed     Status = "failed"
)

// transitions is the full lifecycle. There is deliberately no
// processing -> pending edge: a task orphaned mid-flight by a worker crash
// stays processing until someone requeues it by hand.
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing},
	StatusProcessing: {StatusDone, StatusFailed},
	StatusFailed:     {StatusPending}, // manual requeue only
	StatusDone:       {},
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether no further automatic transition exists.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// CanTransition reports whether from -> to is a legal lifecycle move.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
