package models

import "github.com/google/uuid"

// Row is implemented by the three inventory models so stores can accept any of them.
type Row interface {
	Table() Table
	RowID() uuid.UUID
	Owner() uuid.UUID
}

var (
	_ Row = (*Location)(nil)
	_ Row = (*Unit)(nil)
	_ Row = (*Equipment)(nil)
)
