package classify

import "fmt"

// ValidationError is returned when a reading is rejected before classification.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid reading: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ClassifierError is returned when the predictor could not be invoked.
// Nothing is persisted in that case.
type ClassifierError struct {
	Err error
}

func (e *ClassifierError) Error() string {
	return fmt.Sprintf("classifier failed: %v", e.Err)
}

func (e *ClassifierError) Unwrap() error { return e.Err }

// PersistenceError is returned when the store rejected the labeled reading.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("unable persist reading: %v", e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
