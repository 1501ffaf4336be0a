// AngelaMos | 2026
// entity.go

package subscription

import (
	"time"
)

// Subscription is one directed edge: Subscriber follows Channel.
type Subscription struct {
	ID         string
	Subscriber string
	Channel    string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Member is the public projection of a user on either end of an edge.
type Member struct {
	ID           string    `json:"_id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	Avatar       string    `json:"avatar"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

type ToggleResult struct {
	ChannelID  string `json:"channelId"`
	Subscribed bool   `json:"subscribed"`
}
