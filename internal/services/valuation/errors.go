package valuation

import "fmt"

// minValidRows is the minimum number of valid observations the regression
// stage needs before it will fit.
const minValidRows = 10

// InsufficientDataError is returned when the regression stage cannot find
// enough valid rows (price > 0, active addresses > 0, market cap > 0). It is
// the only error Analyze can return; every other sub-metric degrades to a
// documented default instead.
type InsufficientDataError struct {
	ValidRows int
	Required  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for network valuation: %d valid rows, need at least %d", e.ValidRows, e.Required)
}
