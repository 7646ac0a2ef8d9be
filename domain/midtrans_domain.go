package domain

import (
	"errors"
)

const (
	// PremiumPrice is the flat subscription price in IDR.
	PremiumPrice int64 = 49000
)

var (
	MessageSuccessCreateTransaction = "transaction created successfully"
	MessageSuccessWebhook           = "notification processed"

	MessageFailedCreateTransaction = "failed to create transaction"
	MessageFailedWebhook           = "failed to process notification"

	ErrPaymentFailed       = errors.New("payment failed")
	ErrTransactionNotFound = errors.New("transaction not found")
)

type (
	MidtransPaymentRequest struct {
		Email string `json:"email" validate:"required,email"`
	}

	MidtransPaymentResponse struct {
		OrderID     string `json:"order_id"`
		Token       string `json:"token"`
		RedirectURL string `json:"redirect_url"`
	}
)
