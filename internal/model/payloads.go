package model

import "github.com/google/uuid"

// BroadcastPushPayload is the payload of a BroadcastPushNotification action.
type BroadcastPushPayload struct {
	EventID uuid.UUID `json:"event_id"`
}

// CreateEventListPayload is the payload of a MarketingContactsCreateEventList action.
type CreateEventListPayload struct {
	EventID uuid.UUID `json:"event_id"`
}
