package domain

import "time"

type Airport struct {
	ID        int64
	Name      string
	Latitude  float64
	Longitude float64
	Timezone  string
	CreatedAt time.Time
	UpdatedAt time.Time
}
