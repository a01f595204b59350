package domain

import (
	"fmt"
	"strings"
)

type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
)

var channelOrder = []Channel{ChannelEmail, ChannelPush, ChannelSMS}

func ParseChannel(input string) (Channel, error) {
	switch ch := Channel(strings.ToLower(strings.TrimSpace(input))); ch {
	case ChannelEmail, ChannelPush, ChannelSMS:
		return ch, nil
	default:
		return "", fmt.Errorf("%w: unknown notification channel %q", ErrValidation, input)
	}
}

// ParseChannelList splits a comma separated list such as "email,push".
func ParseChannelList(input string) ([]Channel, error) {
	var raw []Channel
	for _, part := range strings.Split(input, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		raw = append(raw, Channel(part))
	}
	return NormalizeChannels(raw)
}

// NormalizeChannels validates, de-duplicates and orders channels as email, push, sms.
// An empty input yields an empty, non-nil slice.
func NormalizeChannels(channels []Channel) ([]Channel, error) {
	seen := make(map[Channel]bool, len(channels))
	for _, raw := range channels {
		ch, err := ParseChannel(string(raw))
		if err != nil {
			return nil, err
		}
		seen[ch] = true
	}
	out := make([]Channel, 0, len(seen))
	for _, ch := range channelOrder {
		if seen[ch] {
			out = append(out, ch)
		}
	}
	return out, nil
}

// AllChannels returns every channel in canonical order.
func AllChannels() []Channel {
	return append([]Channel(nil), channelOrder...)
}
