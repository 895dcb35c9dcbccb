package model

// ActionType is the closed set of domain action kinds. Every value must be
// listed in AllActionTypes and routed to an executor.
type ActionType string

const (
	ActionBroadcastPushNotification          ActionType = "BroadcastPushNotification"
	ActionCommunication                      ActionType = "Communication"
	ActionFinalizeSettlements                ActionType = "FinalizeSettlements"
	ActionMarketingContactsCreateEventList   ActionType = "MarketingContactsCreateEventList"
	ActionPaymentProviderIPN                 ActionType = "PaymentProviderIPN"
	ActionReleaseHoldInventory               ActionType = "ReleaseHoldInventory"
	ActionRetargetAbandonedOrders            ActionType = "RetargetAbandonedOrders"
	ActionSendPurchaseCompletedCommunication ActionType = "SendPurchaseCompletedCommunication"
	ActionSubmitSitemapToSearchEngines       ActionType = "SubmitSitemapToSearchEngines"
	ActionUpdateGenres                       ActionType = "UpdateGenres"
)

// AllActionTypes lists every ActionType.
func AllActionTypes() []ActionType {
	return []ActionType{
		ActionBroadcastPushNotification,
		ActionCommunication,
		ActionFinalizeSettlements,
		ActionMarketingContactsCreateEventList,
		ActionPaymentProviderIPN,
		ActionReleaseHoldInventory,
		ActionRetargetAbandonedOrders,
		ActionSendPurchaseCompletedCommunication,
		ActionSubmitSitemapToSearchEngines,
		ActionUpdateGenres,
	}
}

// Valid reports whether t is a known action type.
func (t ActionType) Valid() bool {
	for _, known := range AllActionTypes() {
		if t == known {
			return true
		}
	}
	return false
}

type ActionStatus string

const (
	ActionPending         ActionStatus = "Pending"
	ActionErrored         ActionStatus = "Errored"
	ActionRetriesExceeded ActionStatus = "RetriesExceeded"
	ActionSuccess         ActionStatus = "Success"
	ActionCancelled       ActionStatus = "Cancelled"
)

// Terminal reports whether no further attempts may happen in this status.
func (s ActionStatus) Terminal() bool {
	switch s {
	case ActionSuccess, ActionRetriesExceeded, ActionCancelled:
		return true
	}
	return false
}

// RetryableStatuses are the statuses the dispatcher selects from.
var RetryableStatuses = []ActionStatus{ActionPending, ActionErrored}

type ChannelType string

const (
	ChannelEmail   ChannelType = "Email"
	ChannelSms     ChannelType = "Sms"
	ChannelPush    ChannelType = "Push"
	ChannelWebhook ChannelType = "Webhook"
)

// Table names a subject table a domain action or event points at.
type Table string

const (
	TableArtists               Table = "Artists"
	TableBroadcasts            Table = "Broadcasts"
	TableDomainEventPublishers Table = "DomainEventPublishers"
	TableEvents                Table = "Events"
	TableHolds                 Table = "Holds"
	TableOrders                Table = "Orders"
	TablePayments              Table = "Payments"
	TableSettlements           Table = "Settlements"
	TableUsers                 Table = "Users"
)

// Ptr returns a pointer to t, for the optional main_table column.
func (t Table) Ptr() *Table { return &t }

type DomainEventType string

const (
	EventHoldAutomaticallyReleased DomainEventType = "HoldAutomaticallyReleased"
	EventBroadcastCancelled        DomainEventType = "BroadcastCancelled"
	EventBroadcastStarted          DomainEventType = "BroadcastStarted"
	EventPaymentCompleted          DomainEventType = "PaymentCompleted"
	EventSettlementFinalized       DomainEventType = "SettlementFinalized"
	EventOrderRetargeted           DomainEventType = "OrderRetargeted"
)
