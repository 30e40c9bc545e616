package models

import "time"

// PersonnelStatus is the administrative state of a courier account.
type PersonnelStatus string

const (
	PersonnelPending   PersonnelStatus = "pending"
	PersonnelActive    PersonnelStatus = "active"
	PersonnelInactive  PersonnelStatus = "inactive"
	PersonnelSuspended PersonnelStatus = "suspended"
)

func (s PersonnelStatus) Valid() bool {
	switch s {
	case PersonnelPending, PersonnelActive, PersonnelInactive, PersonnelSuspended:
		return true
	}
	return false
}

// Availability is the courier's working state. Busy is only set by the
// system while a delivery is in progress.
type Availability string

const (
	AvailabilityOffline Availability = "offline"
	AvailabilityOnline  Availability = "online"
	AvailabilityBusy    Availability = "busy"
)

type VehicleType string

const (
	VehicleBicycle VehicleType = "bicycle"
	VehicleBike    VehicleType = "bike"
	VehicleScooter VehicleType = "scooter"
	VehicleCar     VehicleType = "car"
)

func (v VehicleType) Valid() bool {
	switch v {
	case VehicleBicycle, VehicleBike, VehicleScooter, VehicleCar:
		return true
	}
	return false
}

type DeliveryPersonnel struct {
	ID                uint            `json:"id" gorm:"primaryKey"`
	UserID            uint            `json:"user_id" gorm:"uniqueIndex;not null"`
	User              User            `json:"user" gorm:"foreignKey:UserID"`
	ZoneID            *uint           `json:"zone_id" gorm:"index"`
	Zone              *Zone           `json:"zone,omitempty" gorm:"foreignKey:ZoneID"`
	VehicleType       VehicleType     `json:"vehicle_type" gorm:"size:20;not null"`
	VehicleNumber     string          `json:"vehicle_number" gorm:"size:30"`
	LicenseNumber     string          `json:"license_number" gorm:"size:50"`
	Status            PersonnelStatus `json:"status" gorm:"size:20;index;not null;default:'pending'"`
	Availability      Availability    `json:"availability" gorm:"size:20;index;not null;default:'offline'"`
	CurrentLat        *float64        `json:"current_lat"`
	CurrentLng        *float64        `json:"current_lng"`
	LocationUpdatedAt *time.Time      `json:"location_updated_at"`
	Rating            float64         `json:"rating" gorm:"default:0"`
	RatingCount       int             `json:"rating_count" gorm:"default:0"`
	TotalDeliveries   int             `json:"total_deliveries" gorm:"default:0"`
	TotalEarnings     float64         `json:"total_earnings" gorm:"default:0"`
	IsVerified        bool            `json:"is_verified" gorm:"default:false"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

func (DeliveryPersonnel) TableName() string {
	return "delivery_personnel"
}

// CanTakeDeliveries reports whether the courier may be handed new work.
func (p *DeliveryPersonnel) CanTakeDeliveries() bool {
	return p.Status == PersonnelActive && p.IsVerified && p.Availability == AvailabilityOnline
}
