package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCash       PaymentMethod = "Cash"
	PaymentCreditCard PaymentMethod = "Credit Card"
	PaymentDebitCard  PaymentMethod = "Debit Card"
	PaymentPIX        PaymentMethod = "PIX"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCash, PaymentCreditCard, PaymentDebitCard, PaymentPIX:
		return true
	}
	return false
}

// Payment is how the customer pays on delivery. Only cash carries extra data.
type Payment interface {
	Method() PaymentMethod
	isPayment()
}

// CashPayment records the amount the courier has to bring change for.
type CashPayment struct {
	ChangeNeeded decimal.Decimal
}

func (CashPayment) Method() PaymentMethod { return PaymentCash }
func (CashPayment) isPayment()            {}

type ElectronicPayment struct {
	Kind PaymentMethod
}

func (p ElectronicPayment) Method() PaymentMethod { return p.Kind }
func (ElectronicPayment) isPayment()              {}

// NewPayment builds the payment variant for method. changeNeeded is required
// for cash and ignored otherwise.
func NewPayment(method PaymentMethod, changeNeeded *decimal.Decimal) (Payment, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("invalid payment method %q", method)
	}
	if method != PaymentCash {
		return ElectronicPayment{Kind: method}, nil
	}
	if changeNeeded == nil {
		return nil, errors.New("changeNeeded is required for cash payments")
	}
	if changeNeeded.IsNegative() {
		return nil, errors.New("changeNeeded cannot be negative")
	}
	return CashPayment{ChangeNeeded: RoundMoney(*changeNeeded)}, nil
}

// PaymentFields flattens a payment into its storable columns.
func PaymentFields(p Payment) (PaymentMethod, *decimal.Decimal) {
	if p == nil {
		return "", nil
	}
	if cash, ok := p.(CashPayment); ok {
		change := cash.ChangeNeeded
		return PaymentCash, &change
	}
	return p.Method(), nil
}
