package transaction

import "time"

// Card is the summary of the charged card as reported by the payment
// gateway. We only keep what the confirmation exposes.
type Card struct {
	Brand    string `json:"brand"`
	Country  string `json:"country"`
	ExpMonth int    `json:"expMonth"`
	ExpYear  int    `json:"expYear"`
}

// Transaction is the persisted record of a successful charge.
type Transaction struct {
	ID       string `json:"id"`
	ChargeID string `json:"chargeId"`
	// unix seconds, as reported by the gateway
	Date int64 `json:"date"`
	// minor units
	Amount      int64     `json:"amount"`
	ProductName string    `json:"productName"`
	Card        Card      `json:"card"`
	CreatedAt   time.Time `json:"createdAt"`
}

type PayRequest struct {
	// amount in major units (eg. euros); converted to minor units for the gateway
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"required"`
	SourceToken string  `json:"stripeToken" binding:"required"`
}
