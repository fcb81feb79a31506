package entities

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Client struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	ResellerID     *uuid.UUID      `json:"reseller_id,omitempty"`
	Name           string          `json:"name"`
	Phone          *string         `json:"phone,omitempty"`
	Plan           string          `json:"plan"`
	ExpirationDate time.Time       `json:"expiration_date"` // calendar date, time part ignored
	IsSuspended    bool            `json:"is_suspended"`
	Value          decimal.Decimal `json:"value"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PhoneNumber returns the stored phone or an empty string.
func (c *Client) PhoneNumber() string {
	if c.Phone == nil {
		return ""
	}
	return *c.Phone
}
