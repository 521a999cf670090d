package repository

import (
	"strings"
	"testing"
)

// The insert must bind both timestamp columns; relying on the table defaults
// would store now() while the signup response carries the clock's value.
func TestInsertUserBindsTimestamps(t *testing.T) {
	for _, column := range []string{"created_at", "last_seen_at"} {
		if !strings.Contains(insertUserSQL, column) {
			t.Fatalf("insertUserSQL must set %s explicitly:\n%s", column, insertUserSQL)
		}
	}
	if !strings.Contains(insertUserSQL, "$8") {
		t.Fatalf("insertUserSQL must bind eight parameters:\n%s", insertUserSQL)
	}
}
