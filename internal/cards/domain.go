// Package cards models the physical-token identities read by the equipment
// controller. A card is one of four fixed variants persisted as a base row
// plus at most one variant join row.
package cards

import (
	"fmt"

	"github.com/makerhall/makerhall/internal/shared"
)

// CardType discriminates the card variants. The type is immutable once
// created; changing a card's purpose means delete-then-recreate.
type CardType int

const (
	TypeShutdown CardType = 1
	TypeProxy    CardType = 2
	TypeTraining CardType = 3
	TypeUser     CardType = 4
)

// String returns the wire name of the type.
func (t CardType) String() string {
	switch t {
	case TypeShutdown:
		return "shutdown"
	case TypeProxy:
		return "proxy"
	case TypeTraining:
		return "training"
	case TypeUser:
		return "user"
	default:
		return fmt.Sprintf("unknown(%d)", int(t))
	}
}

// ParseCardType maps a wire name to its type.
func ParseCardType(s string) (CardType, error) {
	switch s {
	case "shutdown":
		return TypeShutdown, nil
	case "proxy":
		return TypeProxy, nil
	case "training":
		return TypeTraining, nil
	case "user":
		return TypeUser, nil
	default:
		return 0, &shared.InvalidInputError{Field: "type", Reason: "unknown card type " + s}
	}
}

// Card is the tagged union over the four variants. The id is the physical
// card's own embedded identifier, externally assigned and unique across all
// variants. EquipmentTypeID is set only for training cards, UserID only for
// user cards.
type Card struct {
	ID              int64
	Type            CardType
	EquipmentTypeID int64
	UserID          int64
}

// Validate checks the variant payload exhaustively.
func (c Card) Validate() error {
	if c.ID <= 0 {
		return &shared.InvalidInputError{Field: "id", Reason: "card id must be positive"}
	}
	switch c.Type {
	case TypeShutdown, TypeProxy:
		if c.EquipmentTypeID != 0 || c.UserID != 0 {
			return &shared.InvalidInputError{Field: "type", Reason: c.Type.String() + " cards carry no reference"}
		}
	case TypeTraining:
		if c.EquipmentTypeID <= 0 {
			return &shared.InvalidInputError{Field: "equipment_type_id", Reason: "training cards require an equipment type"}
		}
		if c.UserID != 0 {
			return &shared.InvalidInputError{Field: "user_id", Reason: "training cards carry no user"}
		}
	case TypeUser:
		if c.UserID <= 0 {
			return &shared.InvalidInputError{Field: "user_id", Reason: "user cards require a user"}
		}
		if c.EquipmentTypeID != 0 {
			return &shared.InvalidInputError{Field: "equipment_type_id", Reason: "user cards carry no equipment type"}
		}
	default:
		return &shared.InvalidInputError{Field: "type", Reason: fmt.Sprintf("unknown card type %d", int(c.Type))}
	}
	return nil
}

// Filter narrows a card search. Zero-valued fields are ignored; populated
// fields are ANDed. IDFragment substring-matches the card id because
// physical ids are long digit strings humans transcribe imprecisely.
type Filter struct {
	EquipmentTypeID int64
	UserID          int64
	IDFragment      string
}
