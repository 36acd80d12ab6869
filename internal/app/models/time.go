package models

import "time"

type TimeModel struct {
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (m *TimeModel) SetCreatedAtUpdatedAt(at time.Time) {
	m.CreatedAt = at
	m.UpdatedAt = at
}

func (m *TimeModel) SetUpdatedAt(at time.Time) {
	m.UpdatedAt = at
}
