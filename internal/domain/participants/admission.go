package participants

// Admission decides whether one more participant fits an event.
type Admission func(quota, current int) error

// Admit rejects when current has reached quota. Negative inputs are treated
// as full.
func Admit(quota, current int) error {
	if quota < 0 || current < 0 {
		return ErrCapacityExceeded
	}
	if current >= quota {
		return ErrCapacityExceeded
	}
	return nil
}
