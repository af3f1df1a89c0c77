package constants

// PipelineStatus is the external verdict for one pipeline invocation.
type PipelineStatus string

// Stable values (these exact strings appear on the wire).
const (
	StatusOK          PipelineStatus = "ok"          // processed; results are trustworthy
	StatusUnprocessed PipelineStatus = "unprocessed" // terminal domain rejection
)

// TestStatus classifies a result value against its reference range.
type TestStatus string

const (
	TestLow    TestStatus = "low"
	TestNormal TestStatus = "normal"
	TestHigh   TestStatus = "high"
)

// IsTestStatus reports whether s is one of the admitted status values.
func IsTestStatus(s string) bool {
	switch TestStatus(s) {
	case TestLow, TestNormal, TestHigh:
		return true
	}
	return false
}
