package dto

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"transport-request-service/internal/numfmt"
)

// Number accepts either a JSON number or a locale-formatted string such as
// "1.234.567" or "1.234,5". Unparseable strings decode to 0.
type Number float64

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*n = 0
		return nil
	}

	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("number: %w", err)
		}
		*n = Number(numfmt.ParseFormattedNumber(s))
		return nil
	}

	v, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("number: %w", err)
	}
	*n = Number(v)
	return nil
}

func (n Number) Float() float64 { return float64(n) }
