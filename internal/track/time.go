package track

import "time"

// timeNow is a package-level variable for testability.
// Tests can replace this to control time in assertions.
var timeNow = time.Now

// stamp formats the current time as RFC3339 UTC, the only timestamp
// format that appears in the document and ledger.
func stamp() string {
	return timeNow().UTC().Format(time.RFC3339)
}
