package enum

// ── State machines (CHECK constrained in DB) ──

const (
	OrderStatusNew       = "NEW"
	OrderStatusPreparing = "PREPARING"
	OrderStatusReady     = "READY"
	OrderStatusCompleted = "COMPLETED"
	OrderStatusCancelled = "CANCELLED"
)

const (
	OrderTypePickup   = "PICKUP"
	OrderTypeDelivery = "DELIVERY"
)

const (
	PaymentMethodCash   = "CASH"
	PaymentMethodCard   = "CARD"
	PaymentMethodOnline = "ONLINE"
)

// ── Roles ──

const (
	UserRolePlatformAdmin = "PLATFORM_ADMIN"
	UserRoleAdmin         = "ADMIN"
	UserRoleStaff         = "STAFF"
)

// ── Addon configuration ──

const (
	AddonGroupTypeSingle   = "SINGLE"
	AddonGroupTypeMultiple = "MULTIPLE"
)

const (
	AddonCategorySize    = "SIZE"
	AddonCategoryExtra   = "EXTRA"
	AddonCategorySauce   = "SAUCE"
	AddonCategorySides   = "SIDES"
	AddonCategoryDrink   = "DRINK"
	AddonCategoryDessert = "DESSERT"
)

// ── Vouchers ──

const (
	VoucherTypePercentage = "PERCENTAGE"
	VoucherTypeFixed      = "FIXED_AMOUNT"
)

// ── Loyalty tiers (thresholds on lifetime points) ──

const (
	LoyaltyTierBronze = "BRONZE"
	LoyaltyTierSilver = "SILVER"
	LoyaltyTierGold   = "GOLD"
)
