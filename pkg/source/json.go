package source

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// stringOrNumber decodes JSON fields that upstreams serve sometimes as
// a string and sometimes as a bare number (post ids in particular)
type stringOrNumber string

// UnmarshalJSON implements json.Unmarshaler
func (s *stringOrNumber) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}
	if data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = stringOrNumber(str)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(data, &num); err != nil {
		return fmt.Errorf("neither string nor number: %w", err)
	}
	*s = stringOrNumber(num.String())
	return nil
}
