package model

import (
	"bytes"

	"github.com/google/uuid"
)

// ID is a Mealie entity id. An empty string decodes to the zero ID so
// hand-written snapshots may leave ids blank; any other value must be a UUID.
type ID struct {
	uuid.UUID
}

// NewID wraps u
func NewID(u uuid.UUID) ID {
	return ID{UUID: u}
}

// UnmarshalText accepts "" as the zero ID
func (id *ID) UnmarshalText(text []byte) error {
	if len(bytes.TrimSpace(text)) == 0 {
		*id = ID{}
		return nil
	}
	return id.UUID.UnmarshalText(text)
}
