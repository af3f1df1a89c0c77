package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/medreport-ai/simplifier/constants"
)

// candidate mirrors the oracle's record shape with every field optional, so
// one incomplete record never fails the batch.
type candidate struct {
	Name     *string  `json:"name"`
	Value    *float64 `json:"value"`
	Unit     *string  `json:"unit"`
	Status   *string  `json:"status"`
	RefRange *struct {
		Low  *float64 `json:"low"`
		High *float64 `json:"high"`
	} `json:"ref_range"`
}

// AdmitRecords applies the completeness filter: a candidate is admitted only
// when name, value, unit, status, and both reference bounds are present and
// well-formed. Everything else is dropped with a reason for the log — an
// incomplete record is worse than a missing one. Admitted values are carried
// through unchanged except for whitespace trimming and status lowercasing.
func AdmitRecords(raw []json.RawMessage) ([]TestRecord, []string) {
	var admitted []TestRecord
	var dropped []string

	drop := func(i int, c candidate, why string) {
		name := "?"
		if c.Name != nil && *c.Name != "" {
			name = *c.Name
		}
		dropped = append(dropped, fmt.Sprintf("candidate %d (%s): %s", i, name, why))
	}

	for i, rm := range raw {
		var c candidate
		if err := json.Unmarshal(rm, &c); err != nil {
			dropped = append(dropped, fmt.Sprintf("candidate %d: not an object: %v", i, err))
			continue
		}

		switch {
		case c.Name == nil || strings.TrimSpace(*c.Name) == "":
			drop(i, c, "missing name")
		case c.Value == nil:
			drop(i, c, "missing value")
		case c.Unit == nil || strings.TrimSpace(*c.Unit) == "":
			drop(i, c, "missing unit")
		case c.Status == nil || !constants.IsTestStatus(strings.ToLower(strings.TrimSpace(*c.Status))):
			drop(i, c, "missing or unknown status")
		case c.RefRange == nil || c.RefRange.Low == nil || c.RefRange.High == nil:
			drop(i, c, "incomplete ref_range")
		case *c.RefRange.Low > *c.RefRange.High:
			drop(i, c, "inverted ref_range")
		default:
			admitted = append(admitted, TestRecord{
				Name:   strings.TrimSpace(*c.Name),
				Value:  *c.Value,
				Unit:   strings.TrimSpace(*c.Unit),
				Status: constants.TestStatus(strings.ToLower(strings.TrimSpace(*c.Status))),
				RefRange: RefRange{
					Low:  *c.RefRange.Low,
					High: *c.RefRange.High,
				},
			})
		}
	}
	return admitted, dropped
}
