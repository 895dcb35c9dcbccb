// Package model holds the gorm models the domain action engine reads and
// writes. Only the columns the engine needs are mapped.
package model

// All returns every model for AutoMigrate.
func All() []any {
	return []any{
		&DomainAction{}, &DomainEvent{},
		&Event{}, &Artist{}, &EventArtist{}, &Genre{}, &ArtistGenre{}, &EventGenre{}, &UserGenre{},
		&TicketType{}, &TicketInstance{}, &Hold{},
		&Broadcast{}, &User{}, &PushNotificationToken{},
		&Order{}, &Payment{},
		&Settlement{}, &SettlementEntry{},
	}
}
