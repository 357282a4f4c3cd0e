package localdb

import (
	"cmp"
	"fmt"
	"reflect"

	"golang.org/x/text/collate"
)

func valuesEqual(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	default:
		return reflect.DeepEqual(a, b)
	}
}

// typeRank orders values of different JSON types against each other.
func typeRank(v any) int {
	switch v.(type) {
	case bool:
		return 0
	case float64:
		return 1
	case string:
		return 2
	default:
		return 3
	}
}

// compareValues orders two non-nil values. Strings use the collator, numbers
// and booleans compare by value.
func compareValues(col *collate.Collator, a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return col.CompareString(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return cmp.Compare(av, bv)
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
	if c := cmp.Compare(typeRank(a), typeRank(b)); c != 0 {
		return c
	}
	return cmp.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// compareForOrder applies direction and null placement: nulls last when
// ascending, first when descending.
func compareForOrder(col *collate.Collator, a, b any, ascending bool) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		if ascending {
			return 1
		}
		return -1
	case b == nil:
		if ascending {
			return -1
		}
		return 1
	}
	c := compareValues(col, a, b)
	if !ascending {
		c = -c
	}
	return c
}
