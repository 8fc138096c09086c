package geometry

import (
	"cmp"
	"strconv"
	"strings"
)

// CompareIDs orders object ids for drawing. Two integer ids compare
// numerically, anything else compares as strings. Integer ids sort before
// non-integer ones so mixed lists still have a total order.
func CompareIDs(a, b string) int {
	na, errA := strconv.ParseInt(strings.TrimSpace(a), 10, 64)
	nb, errB := strconv.ParseInt(strings.TrimSpace(b), 10, 64)
	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}

// TypeColor returns the outline stroke colour for an object type.
func TypeColor(objType string) string {
	switch objType {
	case "text":
		return "#EAB308"
	case "image":
		return "#22C55E"
	case "path":
		return "#3B82F6"
	case "form":
		return "#EF4444"
	case "annotation":
		return "#8B5CF6"
	default:
		return "#6B7280"
	}
}
