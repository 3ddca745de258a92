package dto

// CreateOrderRequest places an order for a product
type CreateOrderRequest struct {
	ProductID     int64  `json:"productId" validate:"required,gt=0"`
	PaymentMethod string `json:"paymentMethod" validate:"required,oneof=stripe paypal crypto"`
}

// ConfirmOrderRequest records an off-platform payment
type ConfirmOrderRequest struct {
	PaymentReference string `json:"paymentReference" validate:"omitempty,max=255"`
}

// CreateSubscriptionRequest starts a subscription on behalf of a user
type CreateSubscriptionRequest struct {
	UserID    int64  `json:"userId" validate:"required,gt=0"`
	ProductID int64  `json:"productId" validate:"required,gt=0"`
	Interval  string `json:"interval,omitempty" validate:"omitempty,oneof=month year"`
}

// StartTrialRequest starts a free trial
type StartTrialRequest struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`
}

// ExtendTrialRequest pushes a trial's expiry out
type ExtendTrialRequest struct {
	Days int `json:"days" validate:"required,gte=1,lte=365"`
}
