package entities

import (
	"encoding/json"
	"fmt"
)

const (
	DefaultMasterMaxClients         = 200
	DefaultMasterMaxResellers       = 10
	DefaultResellerMaxClients       = 50
	DefaultResellerMaxMessagesMonth = 500
)

// MasterLimits is the limits object stored on a panel admin's profile.
type MasterLimits struct {
	MaxClients   int `json:"max_clients"`
	MaxResellers int `json:"max_resellers"`
}

// WithDefaults fills missing or non-positive values.
func (l MasterLimits) WithDefaults() MasterLimits {
	if l.MaxClients <= 0 {
		l.MaxClients = DefaultMasterMaxClients
	}
	if l.MaxResellers <= 0 {
		l.MaxResellers = DefaultMasterMaxResellers
	}
	return l
}

// ResellerLimits is the limits object stored on a reseller row.
type ResellerLimits struct {
	MaxClients       int `json:"max_clients"`
	MaxMessagesMonth int `json:"max_messages_month"`
}

func (l ResellerLimits) WithDefaults() ResellerLimits {
	if l.MaxClients <= 0 {
		l.MaxClients = DefaultResellerMaxClients
	}
	if l.MaxMessagesMonth <= 0 {
		l.MaxMessagesMonth = DefaultResellerMaxMessagesMonth
	}
	return l
}

func DefaultResellerLimits() ResellerLimits {
	return ResellerLimits{}.WithDefaults()
}

// ParseMasterLimits decodes a stored limits payload. Empty or null payloads
// yield the defaults; malformed ones are an error.
func ParseMasterLimits(raw []byte) (MasterLimits, error) {
	var l MasterLimits
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &l); err != nil {
			return MasterLimits{}.WithDefaults(), fmt.Errorf("decode master limits: %w", err)
		}
	}
	return l.WithDefaults(), nil
}

func ParseResellerLimits(raw []byte) (ResellerLimits, error) {
	var l ResellerLimits
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &l); err != nil {
			return DefaultResellerLimits(), fmt.Errorf("decode reseller limits: %w", err)
		}
	}
	return l.WithDefaults(), nil
}
