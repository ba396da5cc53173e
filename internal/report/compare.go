package report

import (
	"fmt"
	"strings"
	"time"
)

// CompareValues orders two cells the way the grid sorts them: numbers
// numerically, strings lexicographically, times chronologically, false before
// true. nil sorts first. Cells of unrelated types compare equal so a stable
// sort keeps their incoming order.
func CompareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}

	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Cmp(db)
		}
		return 0
	}

	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(av, bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	case bool:
		if bv, ok := b.(bool); ok {
			switch {
			case av == bv:
				return 0
			case !av:
				return -1
			default:
				return 1
			}
		}
	}
	return 0
}

// groupKey normalizes a cell into a bucket key, so values that are equal but
// not identical (an int32 and an int64, two times at the same instant in
// different zones) fall into the same group
func groupKey(v any) string {
	if v == nil {
		return "nil"
	}
	if d, ok := toDecimal(v); ok {
		return "n:" + d.String()
	}

	switch t := v.(type) {
	case string:
		return "s:" + t
	case []byte:
		return "s:" + string(t)
	case time.Time:
		return fmt.Sprintf("t:%d", t.UnixNano())
	case bool:
		return fmt.Sprintf("b:%t", t)
	default:
		return fmt.Sprintf("%T:%v", v, v)
	}
}
