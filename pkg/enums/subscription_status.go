package enums

import (
	"fmt"

	"github.com/stripe/stripe-go/v84"
)

// SubscriptionStatus is the mirrored Stripe subscription state.
type SubscriptionStatus string

const (
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

type statusTraits struct {
	label string
	// recurring statuses count toward MRR and the active total.
	recurring bool
	// terminal statuses never transition again.
	terminal bool
}

var subscriptionStatusTraits = map[SubscriptionStatus]statusTraits{
	SubscriptionStatusTrialing:          {label: "Trialing"},
	SubscriptionStatusActive:            {label: "Active", recurring: true},
	SubscriptionStatusPastDue:           {label: "Past due"},
	SubscriptionStatusCanceled:          {label: "Canceled", terminal: true},
	SubscriptionStatusIncomplete:        {label: "Incomplete"},
	SubscriptionStatusIncompleteExpired: {label: "Expired", terminal: true},
	SubscriptionStatusUnpaid:            {label: "Unpaid"},
	SubscriptionStatusPaused:            {label: "Paused"},
}

// SubscriptionStatusFromStripe converts the SDK status, rejecting values
// this service does not know how to mirror.
func SubscriptionStatusFromStripe(status stripe.SubscriptionStatus) (SubscriptionStatus, error) {
	s := SubscriptionStatus(status)
	if !s.IsValid() {
		return "", fmt.Errorf("unknown subscription status %q", status)
	}
	return s, nil
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) IsValid() bool {
	_, ok := subscriptionStatusTraits[s]
	return ok
}

// Label is the human form shown in the admin table. Unknown values fall back
// to the raw string.
func (s SubscriptionStatus) Label() string {
	if traits, ok := subscriptionStatusTraits[s]; ok {
		return traits.label
	}
	return string(s)
}

// CountsTowardRecurring reports whether the subscription contributes to MRR.
func (s SubscriptionStatus) CountsTowardRecurring() bool {
	return subscriptionStatusTraits[s].recurring
}

func (s SubscriptionStatus) IsTerminal() bool {
	return subscriptionStatusTraits[s].terminal
}
