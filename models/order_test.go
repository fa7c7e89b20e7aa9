package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderJSON_UserIsIDUntilCustomerResolved(t *testing.T) {
	order := Order{ID: "o1", UserID: "u1", Status: StatusPending, Payment: ElectronicPayment{Kind: PaymentPIX}}

	raw, err := json.Marshal(order)
	require.NoError(t, err)
	var plain map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &plain))
	assert.Equal(t, "u1", plain["user"])

	order.Customer = &Customer{Name: "Ana", Email: "ana@example.com", Phone: "11999990000"}
	raw, err = json.Marshal(order)
	require.NoError(t, err)
	var populated struct {
		User Customer `json:"user"`
	}
	require.NoError(t, json.Unmarshal(raw, &populated))
	assert.Equal(t, Customer{ID: "u1", Name: "Ana", Email: "ana@example.com", Phone: "11999990000"}, populated.User)

	var back Order
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, "u1", back.UserID)
	require.NotNil(t, back.Customer)
	assert.Equal(t, "11999990000", back.Customer.Phone)
}

func TestOrderJSON_DecodesBareUserID(t *testing.T) {
	var order Order
	require.NoError(t, json.Unmarshal([]byte(`{"id":"o1","user":"u1","paymentMethod":"PIX"}`), &order))
	assert.Equal(t, "u1", order.UserID)
	assert.Nil(t, order.Customer)
	assert.Equal(t, ElectronicPayment{Kind: PaymentPIX}, order.Payment)
}

func TestOrderJSON_RejectsBadPayment(t *testing.T) {
	var order Order
	err := json.Unmarshal([]byte(`{"id":"o1","user":"u1","paymentMethod":"Cash"}`), &order)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "changeNeeded")

	err = json.Unmarshal([]byte(`{"id":"o1","user":"u1","paymentMethod":"bitcoin"}`), &order)
	assert.Error(t, err)

	require.NoError(t, json.Unmarshal([]byte(`{"id":"o1","user":"u1","paymentMethod":"Cash","changeNeeded":20}`), &order))
	cash, ok := order.Payment.(CashPayment)
	require.True(t, ok)
	assert.True(t, cash.ChangeNeeded.Equal(decimal.NewFromInt(20)))
}
