package melhorenvio

import "github.com/shopspring/decimal"

// CalculateRequest is the body of POST /api/v2/me/shipment/calculate
type CalculateRequest struct {
	From    Address  `json:"from"`
	To      Address  `json:"to"`
	Package Package  `json:"package"`
	Options *Options `json:"options,omitempty"`
}

type Address struct {
	PostalCode string `json:"postal_code"`
}

// Package dimensions are centimetres, weight is kilograms
type Package struct {
	Height float64 `json:"height"`
	Width  float64 `json:"width"`
	Length float64 `json:"length"`
	Weight float64 `json:"weight"`
}

type Options struct {
	InsuranceValue float64 `json:"insurance_value"`
	Receipt        bool    `json:"receipt"`
	OwnHand        bool    `json:"own_hand"`
}

// Quote is one carrier service returned by the calculator. Services the
// carrier cannot serve come back with Error set and no price.
type Quote struct {
	ID                 int              `json:"id"`
	Name               string           `json:"name"`
	Price              *decimal.Decimal `json:"price,omitempty"`
	CustomPrice        *decimal.Decimal `json:"custom_price,omitempty"`
	Discount           *decimal.Decimal `json:"discount,omitempty"`
	Currency           string           `json:"currency,omitempty"`
	DeliveryTime       int              `json:"delivery_time,omitempty"`
	CustomDeliveryTime int              `json:"custom_delivery_time,omitempty"`
	Company            Company          `json:"company"`
	Error              string           `json:"error,omitempty"`
}

type Company struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}

// Usable reports whether the quote carries a price that can be offered
func (q Quote) Usable() bool {
	if q.Error != "" {
		return false
	}
	if q.CustomPrice != nil && q.CustomPrice.IsPositive() {
		return true
	}
	return q.Price != nil && q.Price.IsPositive()
}
