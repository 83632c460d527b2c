package models

import (
	"time"
)

type OrderStatus string

const (
	OrderStatusPending     OrderStatus = "PENDING"
	OrderStatusProcessing  OrderStatus = "PROCESSING"
	OrderStatusBackordered OrderStatus = "BACKORDERED"
	OrderStatusShipped     OrderStatus = "SHIPPED"
	OrderStatusCompleted   OrderStatus = "COMPLETED"
	OrderStatusCancelled   OrderStatus = "CANCELLED"
)

const (
	PaymentMethodCard           = "card"
	PaymentMethodBankTransfer   = "bank_transfer"
	PaymentMethodCashOnDelivery = "cash_on_delivery"
)

const (
	FeeModelPercentage = "percentage"
	FeeModelFixed      = "fixed"
)

const (
	BearerCustomer = "customer"
	BearerMerchant = "merchant"
)

const (
	CancelledByCustomer = "customer"
	CancelledByAdmin    = "admin"
)

func ValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCard, PaymentMethodBankTransfer, PaymentMethodCashOnDelivery:
		return true
	}
	return false
}

func KnownStatus(s OrderStatus) bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusBackordered,
		OrderStatusShipped, OrderStatusCompleted, OrderStatusCancelled:
		return true
	}
	return false
}

type Category struct {
	ID   uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"unique;not null"          json:"name"`
}

// Product prices and all other amounts in the store are integer yen.
type Product struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"          json:"id"`
	Name        string    `gorm:"not null"                          json:"name"`
	Description string    `gorm:"not null"                          json:"description"`
	Price       int64     `gorm:"not null"                          json:"price"`
	Stock       int64     `gorm:"not null;default:0;check:stock>=0" json:"stock"`
	CategoryID  *uint     `gorm:"index"                             json:"category_id"`
	Active      bool      `gorm:"not null"                          json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type User struct {
	ID           uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Username     string `gorm:"unique;not null"          json:"username"`
	PasswordHash string `gorm:"not null"                 json:"-"`
	Role         string `gorm:"not null"                 json:"role"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"      json:"id"`
	Token     string `gorm:"unique;not null" json:"token"`
	UserID    uint   `gorm:"index;not null"  json:"user_id"`
	Role      string `gorm:"not null"        json:"role"`
	ExpiresAt int64  `gorm:"not null"        json:"expires_at"`
	Revoked   bool   `gorm:"default:false"   json:"revoked"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                  json:"id"`
	UserID    uint `gorm:"index;not null"              json:"user_id"`
	ProductID uint `gorm:"not null"                    json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"  json:"quantity"`
}

// ShippingRate is the per-category shipping fee. CategoryID nil marks the
// store-wide default rate; FreeShippingThreshold nil means the fee always
// applies. At most one rate per category (and one default) should be active.
type ShippingRate struct {
	ID                    uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID            *uint     `gorm:"index"                    json:"category_id"`
	FeePerOrder           int64     `gorm:"not null"                 json:"fee_per_order"`
	FreeShippingThreshold *int64    `json:"free_shipping_threshold"`
	Active                bool      `gorm:"not null"                 json:"active"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}

// PaymentFeeRule configures the payment-method surcharge. Rate is a percentage
// of the subtotal when FeeModel is "percentage"; FixedAmount is yen when it is
// "fixed". When Bearer is "merchant" the fee never reaches the customer total.
type PaymentFeeRule struct {
	ID          uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Method      string  `gorm:"uniqueIndex;not null"      json:"method"`
	FeeModel    string  `gorm:"not null"                  json:"fee_model"`
	Rate        float64 `json:"rate"`
	FixedAmount int64   `json:"fixed_amount"`
	Bearer      string  `gorm:"not null;default:customer" json:"bearer"`
	Active      bool    `gorm:"not null"                  json:"active"`
}

// Order invariant: TotalAmount == SubtotalAmount + ShippingFee + SurchargeAmount.
// SurchargeAmount covers card and bank transfer surcharges as well as cash on
// delivery, so it is not tied to a single payment method.
type Order struct {
	ID              uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	OrderNumber     string      `gorm:"uniqueIndex;not null"     json:"order_number"`
	UserID          uint        `gorm:"index;not null"           json:"user_id"`
	Status          OrderStatus `gorm:"index;not null"           json:"status"`
	PaymentMethod   string      `gorm:"not null"                 json:"payment_method"`
	ShippingAddress string      `json:"shipping_address"`
	SubtotalAmount  int64       `gorm:"not null"                 json:"subtotal_amount"`
	ShippingFee     int64       `gorm:"not null"                 json:"shipping_fee"`
	SurchargeAmount int64       `gorm:"not null"                 json:"surcharge_amount"`
	TotalAmount     int64       `gorm:"not null"                 json:"total_amount"`
	Items           []OrderItem `gorm:"foreignKey:OrderID"       json:"items"`
	CreatedAt       time.Time   `json:"created_at"`
	PaidAt          *time.Time  `json:"paid_at"`
	CancelledAt     *time.Time  `json:"cancelled_at"`
	CancelledBy     string      `json:"cancelled_by"`
	CancelReason    string      `json:"cancel_reason"`
}

// OrderItem snapshots the product name and price at order time so historical
// orders stay immutable under later catalog edits.
type OrderItem struct {
	ID                  uint   `gorm:"primaryKey"                json:"id"`
	OrderID             uint   `gorm:"index;not null"            json:"order_id"`
	ProductID           uint   `gorm:"not null"                  json:"product_id"`
	ProductNameSnapshot string `gorm:"not null"                  json:"product_name_snapshot"`
	UnitPriceSnapshot   int64  `gorm:"not null"                  json:"unit_price_snapshot"`
	Quantity            uint   `gorm:"not null;check:quantity>0" json:"quantity"`
	LineTotal           int64  `gorm:"not null"                  json:"line_total"`
}
