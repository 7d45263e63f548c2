package ledger

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// ToInt64 converts whatever numeric shape the ledger hands back (big
// integers, numeric strings, native numbers, absent values) into an int64.
// It is the sole boundary between ledger-native numeric encodings and the
// mirror's integers, and it never fails: anything unparseable is 0.
func ToInt64(value interface{}) int64 {
	switch v := value.(type) {
	case nil:
		return 0
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return n
	case *big.Int:
		if v == nil {
			return 0
		}
		return v.Int64()
	case big.Int:
		return v.Int64()
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0
		}
		return n
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	case float32:
		return int64(v)
	case float64:
		return int64(v)
	case bool:
		if v {
			return 1
		}
		return 0
	case fmt.Stringer:
		n, err := strconv.ParseInt(strings.TrimSpace(v.String()), 10, 64)
		if err != nil {
			return 0
		}
		return n
	default:
		return 0
	}
}
