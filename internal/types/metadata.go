package types

import (
	"database/sql/driver"
	"encoding/json"

	ierr "github.com/feebridge/feebridge/internal/errors"
)

// Metadata is an opaque bag of additional key-value pairs carried on a
// record and never interpreted by the billing core. Gateway responses and
// pass-through configuration live here.
type Metadata map[string]string

// Value serializes the metadata to JSON for storage in a jsonb column.
func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

// Scan deserializes a jsonb column back into the metadata map.
func (m *Metadata) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return ierr.NewError("unsupported metadata column type").
			WithReportableDetails(map[string]any{"type": value}).
			Mark(ierr.ErrSystem)
	}
	return json.Unmarshal(data, m)
}
