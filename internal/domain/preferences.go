package domain

// NotificationPreferences gate delivery of price alert notifications.
// Disabled suppresses every intent; otherwise only allowed channels get one.
type NotificationPreferences struct {
	PriceAlerts bool
	Channels    []Channel
}

// DefaultNotificationPreferences enables price alerts on every channel.
func DefaultNotificationPreferences() NotificationPreferences {
	return NotificationPreferences{PriceAlerts: true, Channels: AllChannels()}
}

func (p NotificationPreferences) Allows(channel Channel) bool {
	if !p.PriceAlerts {
		return false
	}
	for _, allowed := range p.Channels {
		if allowed == channel {
			return true
		}
	}
	return false
}
