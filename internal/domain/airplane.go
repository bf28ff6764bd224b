package domain

import "time"

type Airplane struct {
	ID        int64
	Name      string
	Model     string
	Capacity  int
	CreatedAt time.Time
	UpdatedAt time.Time
}
