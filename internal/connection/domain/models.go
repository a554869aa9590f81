package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ConnectionStatus string

const (
	ConnectionActive       ConnectionStatus = "active"
	ConnectionDisconnected ConnectionStatus = "disconnected"
)

// ServiceConnection links a customer to a metered supply point under a
// tariff. Billing resolves the customer and tariff through the connection,
// never directly from the meter.
type ServiceConnection struct {
	ID         snowflake.ID     `json:"id" gorm:"primaryKey"`
	CustomerID snowflake.ID     `json:"customer_id" gorm:"index:ix_connections_customer"`
	MeterID    snowflake.ID     `json:"meter_id" gorm:"index:ix_connections_meter"`
	TariffID   snowflake.ID     `json:"tariff_id" gorm:"index"`
	Status     ConnectionStatus `json:"status" gorm:"index"`

	ConnectedAt    time.Time  `json:"connected_at"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (ServiceConnection) TableName() string { return "service_connections" }
