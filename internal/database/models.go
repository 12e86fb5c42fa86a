package database

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// Tenant is one restaurant account on the platform.
type Tenant struct {
	ID           uuid.UUID
	Name         string
	Slug         string
	CurrencyCode string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// User is a staff account. TenantID is null for platform admins.
type User struct {
	ID             uuid.UUID
	TenantID       pgtype.UUID
	FullName       string
	Email          string
	HashedPassword string
	Role           string
	IsActive       bool
	CreatedAt      time.Time
}

type MenuItem struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Category    pgtype.Text
	Description pgtype.Text
	BasePrice   pgtype.Numeric
	IsAvailable bool
	SortOrder   int32
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type AddonGroup struct {
	ID            uuid.UUID
	MenuItemID    uuid.UUID
	Name          string
	GroupType     string
	Category      string
	Required      bool
	MinSelections int32
	MaxSelections int32
	SortOrder     int32
	IsActive      bool
}

// AddonOption carries optional quantity-tier pricing: the first
// TierBaseQuantity units cost Price each, further units TierAdditionalPrice.
type AddonOption struct {
	ID                  uuid.UUID
	AddonGroupID        uuid.UUID
	Name                string
	Price               pgtype.Numeric
	IsAvailable         bool
	TierBaseQuantity    pgtype.Int4
	TierAdditionalPrice pgtype.Numeric
	SortOrder           int32
	IsActive            bool
}

type Customer struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	FullName       string
	Email          pgtype.Text
	Phone          pgtype.Text
	Postcode       pgtype.Text
	LoyaltyPoints  int32
	LifetimePoints int32
	IsActive       bool
	CreatedAt      time.Time
}

type LoyaltyEntry struct {
	ID         uuid.UUID
	CustomerID uuid.UUID
	OrderID    pgtype.UUID
	Points     int32
	Reason     string
	CreatedAt  time.Time
}

type Voucher struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	Code            string
	VoucherType     string
	Value           pgtype.Numeric
	MinOrderAmount  pgtype.Numeric
	MaxRedemptions  pgtype.Int4
	RedemptionCount int32
	ExpiresAt       pgtype.Timestamptz
	IsActive        bool
}

type DeliveryZone struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	Name             string
	PostcodePrefixes []string
	DeliveryFee      pgtype.Numeric
	MinOrderAmount   pgtype.Numeric
	IsActive         bool
}

type TenantSettings struct {
	TenantID     uuid.UUID
	CurrencyCode string
	UpdatedAt    time.Time
}

// ThrottleRule is per-day order-capacity configuration. It is stored and
// served, not enforced anywhere.
type ThrottleRule struct {
	TenantID             uuid.UUID
	DayOfWeek            int32
	Enabled              bool
	IntervalMinutes      int32
	MaxOrdersPerInterval int32
}

type Order struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	OrderNumber      string
	CustomerID       pgtype.UUID
	OrderType        string
	Status           string
	DeliveryAddress  pgtype.Text
	DeliveryPostcode pgtype.Text
	ZoneID           pgtype.UUID
	Subtotal         pgtype.Numeric
	DeliveryFee      pgtype.Numeric
	DiscountAmount   pgtype.Numeric
	VoucherID        pgtype.UUID
	VoucherCode      pgtype.Text
	TotalAmount      pgtype.Numeric
	PaymentMethod    string
	Notes            pgtype.Text
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// OrderItem snapshots the item name and prices at order time.
type OrderItem struct {
	ID                  uuid.UUID
	OrderID             uuid.UUID
	MenuItemID          uuid.UUID
	ItemName            string
	Quantity            int32
	UnitPrice           pgtype.Numeric
	AddonTotal          pgtype.Numeric
	LineTotal           pgtype.Numeric
	SpecialInstructions pgtype.Text
}

// OrderItemAddon snapshots one selected addon option on an order line.
type OrderItemAddon struct {
	ID            uuid.UUID
	OrderItemID   uuid.UUID
	AddonGroupID  uuid.UUID
	GroupName     string
	AddonOptionID uuid.UUID
	OptionName    string
	Quantity      int32
	UnitPrice     pgtype.Numeric
	TotalPrice    pgtype.Numeric
	Note          pgtype.Text
}
