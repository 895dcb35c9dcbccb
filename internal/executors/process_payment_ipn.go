package executors

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/clock"
	"github.com/richardliu001/ticketing-actions/internal/model"
	"github.com/richardliu001/ticketing-actions/internal/repo"
)

const ipnProvider = "globee"

// IPNPayload is the provider notification stored as the action payload.
// CustomPaymentID carries the order id.
type IPNPayload struct {
	ID              string  `json:"id"`
	Status          *string `json:"status"`
	CustomPaymentID *string `json:"custom_payment_id"`
	PaymentDetails  struct {
		ReceivedAmount *decimal.Decimal `json:"received_amount"`
	} `json:"payment_details"`
}

// IPNStatus maps a provider status string to a payment status.
func IPNStatus(s *string) model.PaymentStatus {
	if s == nil {
		return model.PaymentUnknown
	}
	switch strings.ToLower(*s) {
	case "unpaid":
		return model.PaymentUnpaid
	case "paid", "overpaid", "underpaid", "paid_late":
		return model.PaymentPendingConfirmation
	case "confirmed", "completed":
		return model.PaymentCompleted
	case "refunded":
		return model.PaymentRefunded
	case "cancelled":
		return model.PaymentCancelled
	case "draft":
		return model.PaymentDraft
	default:
		return model.PaymentUnknown
	}
}

// ProcessPaymentIPNExecutor records a payment provider notification against
// the order's payment.
type ProcessPaymentIPNExecutor struct {
	repo  *repo.Repository
	book  *actions.Bookkeeper
	clock clock.Clock
	log   *zap.SugaredLogger
}

func NewProcessPaymentIPNExecutor(d Deps) *ProcessPaymentIPNExecutor {
	return &ProcessPaymentIPNExecutor{repo: d.Repo, book: d.Book, clock: d.Clock, log: d.Log}
}

func (e *ProcessPaymentIPNExecutor) Execute(ctx context.Context, action *model.DomainAction, conn *repo.Conn) *actions.Future {
	return e.book.Run(ctx, action, conn, func() error { return e.performJob(ctx, action, conn) })
}

func (e *ProcessPaymentIPNExecutor) performJob(ctx context.Context, action *model.DomainAction, conn *repo.Conn) error {
	var ipn IPNPayload
	if err := action.DecodePayload(&ipn); err != nil {
		return err
	}
	if ipn.CustomPaymentID == nil {
		e.log.Warnw("ipn without custom_payment_id ignored", "domain_action_id", action.ID, "ipn_id", ipn.ID)
		return nil
	}
	orderID, err := uuid.Parse(*ipn.CustomPaymentID)
	if err != nil {
		return fmt.Errorf("ipn %s custom_payment_id: %w", ipn.ID, err)
	}

	tx := conn.Tx()
	now := e.clock.Now()
	order, err := e.repo.GetOrder(ctx, tx, orderID)
	if err != nil {
		return fmt.Errorf("load order %s: %w", orderID, err)
	}

	status := IPNStatus(ipn.Status)
	received := decimal.Zero
	if ipn.PaymentDetails.ReceivedAmount != nil {
		received = *ipn.PaymentDetails.ReceivedAmount
	}
	reference := ipnProvider + "-" + ipn.ID
	log := e.log.With("domain_action_id", action.ID, "ipn_id", ipn.ID, "order_id", order.ID, "status", status)

	payment, err := e.repo.FindPaymentByReference(ctx, tx, order.ID, reference)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		log.Debugw("ipn: no payment found, creating")
		payment = &model.Payment{
			OrderID:           order.ID,
			ExternalReference: reference,
			Provider:          ipnProvider,
			Amount:            received,
			Status:            status,
			RawData:           action.Payload,
		}
		if err := e.repo.CreatePayment(ctx, tx, payment); err != nil {
			return err
		}
	case err != nil:
		return err
	}
	wasCompleted := payment.Status == model.PaymentCompleted

	if err := e.repo.UpdatePaymentFromProvider(ctx, tx, payment, status, received, action.Payload, now); err != nil {
		return fmt.Errorf("update payment %s: %w", payment.ID, err)
	}
	if status != model.PaymentCompleted || wasCompleted {
		log.Debugw("ipn: payment recorded")
		return nil
	}

	log.Infow("ipn: payment completed", "amount", received.String())
	if err := e.repo.MarkOrderPaid(ctx, tx, order.ID, now); err != nil {
		return err
	}
	evt, err := model.NewDomainEvent(model.EventPaymentCompleted, "Payment completed", model.TablePayments,
		&payment.ID, &order.UserID, map[string]string{"order_id": order.ID.String(), "amount": received.String()})
	if err != nil {
		return err
	}
	if err := e.repo.CreateDomainEvent(ctx, tx, evt); err != nil {
		return err
	}
	_, err = e.repo.ScheduleAction(ctx, tx, model.ActionSendPurchaseCompletedCommunication, nil,
		model.TableOrders.Ptr(), &order.ID, now)
	return err
}
