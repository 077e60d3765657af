package types

import (
	"encoding/json"

	"github.com/invmap/engine/internal/inventory"
)

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PositionRequest struct {
	X float64 `json:"x" validate:"finite"`
	Y float64 `json:"y" validate:"finite"`
}

func (p *PositionRequest) Position() *inventory.Position {
	if p == nil {
		return nil
	}
	return &inventory.Position{X: p.X, Y: p.Y}
}

// CreateNodeRequest carries the attribute record of Type in Data. Position is
// optional; without it the node is placed at random.
type CreateNodeRequest struct {
	Type     string           `json:"type" validate:"required,nodetype"`
	Data     json.RawMessage  `json:"data" validate:"required"`
	Position *PositionRequest `json:"position"`
}

// UpdateNodeRequest merges Data into the node's attributes when present and
// moves it when Position is present.
type UpdateNodeRequest struct {
	Data     json.RawMessage  `json:"data"`
	Position *PositionRequest `json:"position"`
}

type MoveNodeRequest struct {
	X *float64 `json:"x" validate:"required"`
	Y *float64 `json:"y" validate:"required"`
}
