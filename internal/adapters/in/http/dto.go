package http

import "time"

// NewDelivery is the request body for delivery registration. Coordinates are
// optional; when absent the address is geocoded.
type NewDelivery struct {
	Address   string   `json:"address"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
}

// AssignRequest names the unit for an assignment, or leaves it empty for
// automatic selection of the nearest idle unit.
type AssignRequest struct {
	UnitID string `json:"unit_id"`
}

// StatusRequest is the request body for operator-driven status changes.
type StatusRequest struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// Delivery is one delivery in API responses.
type Delivery struct {
	ID             string    `json:"id"`
	Address        string    `json:"address"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Status         string    `json:"status"`
	AssignedUnitID *string   `json:"assigned_unit_id,omitempty"`
	FailureReason  *string   `json:"failure_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Unit is one fleet member in API responses.
type Unit struct {
	ID                 string     `json:"id"`
	Status             string     `json:"status"`
	Latitude           *float64   `json:"latitude,omitempty"`
	Longitude          *float64   `json:"longitude,omitempty"`
	PositionAt         *time.Time `json:"position_at,omitempty"`
	AssignedDeliveryID *string    `json:"assigned_delivery_id,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Error is the uniform error body.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Result reports the outcome of an operation on an existing delivery.
type Result struct {
	DeliveryID string `json:"delivery_id"`
	Status     string `json:"status"`
}
