package cart

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Normalize turns any stored cart shape into the canonical de-duplicated id
// list, keeping first-seen order. Accepted elements are integers, numeric
// strings and legacy {id, qty} objects; anything else is dropped.
// canonical is true when raw already was a plain list of unique ids.
func Normalize(raw []byte) (ids []int, canonical bool, err error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return nil, false, fmt.Errorf("cart is not a JSON array: %w", err)
	}

	ids = make([]int, 0, len(elems))
	seen := make(map[int]bool, len(elems))
	canonical = true
	for _, elem := range elems {
		id, plain, ok := parseID(elem)
		if !ok {
			canonical = false
			continue
		}
		if !plain {
			canonical = false
		}
		if seen[id] {
			canonical = false
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, canonical, nil
}

// parseID reports the product id in elem and whether elem was a bare number.
func parseID(elem json.RawMessage) (id int, plain bool, ok bool) {
	var v interface{}
	if err := json.Unmarshal(elem, &v); err != nil {
		return 0, false, false
	}
	switch val := v.(type) {
	case float64:
		id, ok = intFromFloat(val)
		return id, true, ok
	case string:
		id, ok = intFromString(val)
		return id, false, ok
	case map[string]interface{}:
		switch inner := val["id"].(type) {
		case float64:
			id, ok = intFromFloat(inner)
		case string:
			id, ok = intFromString(inner)
		}
		return id, false, ok
	}
	return 0, false, false
}

func intFromFloat(f float64) (int, bool) {
	if f <= 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func intFromString(s string) (int, bool) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
