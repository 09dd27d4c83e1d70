package models

import "fmt"

// MissingColumnError reports a required input field that the data does not
// carry. It is fatal for the stage that raises it.
type MissingColumnError struct {
	Name string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("missing required column: %s", e.Name)
}

// InsufficientHistoryError reports that the bar sequence is too short to
// analyze: fewer than two rows, or the warm-up trim left nothing.
type InsufficientHistoryError struct {
	Rows int
	Need int
}

func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("insufficient history: have %d rows, need at least %d", e.Rows, e.Need)
}
