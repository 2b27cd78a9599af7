package availability

import (
	"fmt"

	"github.com/google/uuid"

	"gigbook/internal/shared/faults"
	"gigbook/internal/window"
)

// Resource types a booking can reference
const (
	ResourceArtist    = "ARTIST"
	ResourceEquipment = "EQUIPMENT"
	ResourceUnit      = "UNIT"
)

// ResourceRef identifies one resource requested by a booking. Quantity is
// only meaningful for equipment; artists and units are identity-based.
type ResourceRef struct {
	Type     string    `json:"type"`
	ID       uuid.UUID `json:"id"`
	Quantity int       `json:"quantity,omitempty"`
}

func (r ResourceRef) Validate() error {
	switch r.Type {
	case ResourceArtist, ResourceUnit:
		if r.Quantity > 1 {
			return fmt.Errorf("%w: %s resources carry no quantity", faults.ErrInvalidWindow, r.Type)
		}
	case ResourceEquipment:
		if r.Quantity < 1 {
			return fmt.Errorf("%w: equipment quantity must be at least 1", faults.ErrInvalidWindow)
		}
	default:
		return fmt.Errorf("%w: unknown resource type %q", faults.ErrInvalidWindow, r.Type)
	}
	if r.ID == uuid.Nil {
		return fmt.Errorf("%w: resource id is required", faults.ErrInvalidWindow)
	}
	return nil
}

// Result is the unified answer of a single-resource availability check
type Result struct {
	Available bool            `json:"available"`
	Remaining int             `json:"remaining,omitempty"`
	Conflicts []window.Window `json:"conflicts,omitempty"`
}

func ValidResourceType(t string) bool {
	return t == ResourceArtist || t == ResourceEquipment || t == ResourceUnit
}
