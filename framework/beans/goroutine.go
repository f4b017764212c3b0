package beans

import (
	"runtime"
	"strconv"
	"strings"
)

// goid returns the current goroutine ID. The registry uses it to attribute
// in-creation entries to their owning goroutine, so that a re-entrant lookup
// (a cycle) is distinguishable from a concurrent one (another goroutine
// building the same singleton).
func goid() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	field := strings.Fields(strings.TrimPrefix(string(buf[:n]), "goroutine "))[0]
	id, _ := strconv.ParseInt(field, 10, 64)
	return id
}
