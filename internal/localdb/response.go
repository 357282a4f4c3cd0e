package localdb

import (
	"encoding/json"
	"fmt"
)

// Response is the {data, error} pair every query resolves to. Data is a Row,
// a []Row or nil.
type Response struct {
	Data  any
	Error error
}

// Rows returns the data as rows. A single row is returned as a one-element
// slice.
func (r Response) Rows() []Row {
	switch d := r.Data.(type) {
	case []Row:
		return d
	case Row:
		return []Row{d}
	default:
		return nil
	}
}

// Row returns the data as one row, the first when the data is a list.
func (r Response) Row() Row {
	switch d := r.Data.(type) {
	case Row:
		return d
	case []Row:
		if len(d) > 0 {
			return d[0]
		}
	}
	return nil
}

// Found reports whether the response carries data.
func (r Response) Found() bool {
	switch d := r.Data.(type) {
	case nil:
		return false
	case Row:
		return d != nil
	case []Row:
		return d != nil
	default:
		return true
	}
}

// Decode unmarshals the data into dst through its JSON tags. It returns the
// response error if there is one and leaves dst untouched when data is nil.
func (r Response) Decode(dst any) error {
	if r.Error != nil {
		return r.Error
	}
	if !r.Found() {
		return nil
	}
	raw, err := json.Marshal(r.Data)
	if err != nil {
		return fmt.Errorf("encode response data: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode response data: %w", err)
	}
	return nil
}
