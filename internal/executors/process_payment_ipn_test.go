package executors

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richardliu001/ticketing-actions/internal/model"
)

func TestIPNStatus(t *testing.T) {
	cases := map[string]model.PaymentStatus{
		"unpaid":    model.PaymentUnpaid,
		"paid":      model.PaymentPendingConfirmation,
		"overpaid":  model.PaymentPendingConfirmation,
		"underpaid": model.PaymentPendingConfirmation,
		"paid_late": model.PaymentPendingConfirmation,
		"Confirmed": model.PaymentCompleted,
		"completed": model.PaymentCompleted,
		"refunded":  model.PaymentRefunded,
		"cancelled": model.PaymentCancelled,
		"draft":     model.PaymentDraft,
		"weird":     model.PaymentUnknown,
	}
	for in, want := range cases {
		s := in
		assert.Equal(t, want, IPNStatus(&s), in)
	}
	assert.Equal(t, model.PaymentUnknown, IPNStatus(nil))
}

func ipnPayload(id, status, orderID string, received string) map[string]any {
	p := map[string]any{"id": id, "status": status}
	if orderID != "" {
		p["custom_payment_id"] = orderID
	}
	if received != "" {
		p["payment_details"] = map[string]any{"received_amount": received}
	}
	return p
}

func TestProcessPaymentIPN_PendingThenCompleted(t *testing.T) {
	f := newFixture(t)
	u := f.seedUser(t, "Ana", "ana@example.com")
	o := &model.Order{UserID: u.ID, Status: model.OrderPendingPayment, OrderType: model.OrderCart, Total: decimal.RequireFromString("40")}
	f.create(t, o)
	exec := NewProcessPaymentIPNExecutor(f.deps)

	a := f.action(t, model.ActionPaymentProviderIPN, ipnPayload("ipn-1", "paid", o.ID.String(), ""), nil, nil)
	require.NoError(t, f.run(t, exec, a))

	var p model.Payment
	require.NoError(t, f.db.First(&p, "order_id = ?", o.ID).Error)
	assert.Equal(t, "globee-ipn-1", p.ExternalReference)
	assert.Equal(t, model.PaymentPendingConfirmation, p.Status)
	assert.Empty(t, f.actionsOfType(t, model.ActionSendPurchaseCompletedCommunication))

	b := f.action(t, model.ActionPaymentProviderIPN, ipnPayload("ipn-1", "confirmed", o.ID.String(), "40.00"), nil, nil)
	require.NoError(t, f.run(t, exec, b))

	require.NoError(t, f.db.First(&p, "order_id = ?", o.ID).Error)
	assert.Equal(t, model.PaymentCompleted, p.Status)
	assert.True(t, p.Amount.Equal(decimal.RequireFromString("40")))
	require.NotNil(t, p.CompletedAt)

	var got model.Order
	require.NoError(t, f.db.First(&got, "id = ?", o.ID).Error)
	assert.Equal(t, model.OrderPaid, got.Status)

	follow := f.actionsOfType(t, model.ActionSendPurchaseCompletedCommunication)
	require.Len(t, follow, 1)
	assert.Equal(t, o.ID, *follow[0].MainTableID)

	var payments int64
	require.NoError(t, f.db.Model(&model.Payment{}).Where("order_id = ?", o.ID).Count(&payments).Error)
	assert.Equal(t, int64(1), payments)
}

func TestProcessPaymentIPN_MissingCustomIDIsNoop(t *testing.T) {
	f := newFixture(t)
	a := f.action(t, model.ActionPaymentProviderIPN, ipnPayload("ipn-2", "paid", "", ""), nil, nil)
	require.NoError(t, f.run(t, NewProcessPaymentIPNExecutor(f.deps), a))

	var n int64
	require.NoError(t, f.db.Model(&model.Payment{}).Count(&n).Error)
	assert.Zero(t, n)
	assert.Equal(t, model.ActionSuccess, f.reload(t, a).Status)
}

func TestProcessPaymentIPN_BadOrderID(t *testing.T) {
	f := newFixture(t)
	a := f.action(t, model.ActionPaymentProviderIPN, ipnPayload("ipn-3", "paid", "not-a-uuid", ""), nil, nil)
	assert.Error(t, f.run(t, NewProcessPaymentIPNExecutor(f.deps), a))
	assert.Equal(t, model.ActionErrored, f.reload(t, a).Status)
}
