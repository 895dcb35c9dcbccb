package executors

import (
	"fmt"

	"github.com/richardliu001/ticketing-actions/internal/actions"
	"github.com/richardliu001/ticketing-actions/internal/config"
	"github.com/richardliu001/ticketing-actions/internal/model"
)

// BuildRouter registers an executor for every action type and freezes the
// router. A type without a case below fails start-up.
func BuildRouter(cfg *config.Config, d Deps) (*actions.Router, error) {
	r := actions.NewRouter()
	for _, t := range model.AllActionTypes() {
		e, err := newExecutor(t, cfg, d)
		if err != nil {
			return nil, err
		}
		if err := r.AddExecutor(t, e); err != nil {
			return nil, err
		}
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	r.Freeze()
	return r, nil
}

func newExecutor(t model.ActionType, cfg *config.Config, d Deps) (actions.Executor, error) {
	switch t {
	case model.ActionBroadcastPushNotification:
		return NewBroadcastPushNotificationExecutor(d, cfg.Comms.CustomBroadcastTemplateID), nil
	case model.ActionCommunication:
		return NewSendCommunicationExecutor(d, cfg.Comms.BlockExternalComms), nil
	case model.ActionFinalizeSettlements:
		return NewFinalizeSettlementsExecutor(d, cfg.Actions.FinalizeSettlementsInterval), nil
	case model.ActionMarketingContactsCreateEventList:
		return NewCreateEventListExecutor(d, cfg.Comms.BlockExternalComms), nil
	case model.ActionPaymentProviderIPN:
		return NewProcessPaymentIPNExecutor(d), nil
	case model.ActionReleaseHoldInventory:
		return NewReleaseHoldInventoryExecutor(d), nil
	case model.ActionRetargetAbandonedOrders:
		return NewRetargetAbandonedOrdersExecutor(d, cfg.Actions.RetargetInterval, cfg.Actions.RetargetWindow, cfg.Comms), nil
	case model.ActionSendPurchaseCompletedCommunication:
		return NewSendOrderCompleteExecutor(d, cfg.Comms), nil
	case model.ActionSubmitSitemapToSearchEngines:
		return NewSubmitSitemapExecutor(d, NewSitemapPinger(d.HTTPClient, cfg.Sitemap, d.Log), cfg.Sitemap.APIBaseURL, cfg.Comms.BlockExternalComms), nil
	case model.ActionUpdateGenres:
		return NewUpdateGenresExecutor(d), nil
	default:
		return nil, fmt.Errorf("%w for %s", actions.ErrNoExecutor, t)
	}
}
