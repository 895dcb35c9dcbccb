package model

// CommunicationType is the transport a Communication is delivered over.
type CommunicationType string

const (
	CommEmail   CommunicationType = "Email"
	CommSms     CommunicationType = "Sms"
	CommPush    CommunicationType = "Push"
	CommWebhook CommunicationType = "Webhook"
)

// Channel maps the transport to the action's communication_channel_type.
func (t CommunicationType) Channel() ChannelType {
	switch t {
	case CommSms:
		return ChannelSms
	case CommPush:
		return ChannelPush
	case CommWebhook:
		return ChannelWebhook
	default:
		return ChannelEmail
	}
}

// Communication is the payload of a Communication action, handed as-is to
// the mail/SMS/push senders.
type Communication struct {
	CommType     CommunicationType `json:"comm_type"`
	Title        string            `json:"title"`
	Body         *string           `json:"body,omitempty"`
	Source       *string           `json:"source,omitempty"`
	Destinations []string          `json:"destinations"`
	TemplateID   *string           `json:"template_id,omitempty"`
	Categories   []string          `json:"categories,omitempty"`
	ExtraData    map[string]string `json:"extra_data,omitempty"`
}
