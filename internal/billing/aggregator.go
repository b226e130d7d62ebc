package billing

import (
	"slices"
	"time"

	"github.com/autoflexeasy/autoflex-backend/pkg/enums"
)

const (
	OrderDesc = "desc"
	OrderAsc  = "asc"

	DefaultTableLimit = 25

	// RenewalPlaceholder is rendered when a row has no renewal timestamp.
	RenewalPlaceholder = "-"
)

// SubscriptionRecord is one mirrored subscription as read from the store.
type SubscriptionRecord struct {
	ID               string
	UserID           string
	PriceID          string
	Status           string
	Quantity         *int64
	CurrentPeriodEnd *int64
}

// PriceRecord is one mirrored price. UnitAmount is in minor units.
type PriceRecord struct {
	ID         string
	UnitAmount *int64
	Nickname   *string
}

// PriceIndex resolves price ids to amounts and display labels.
type PriceIndex struct {
	amounts map[string]int64
	labels  map[string]string
}

func NewPriceIndex(prices []PriceRecord) PriceIndex {
	idx := PriceIndex{
		amounts: make(map[string]int64, len(prices)),
		labels:  make(map[string]string, len(prices)),
	}
	for _, p := range prices {
		if p.UnitAmount != nil {
			idx.amounts[p.ID] = *p.UnitAmount
		}
		if p.Nickname != nil && *p.Nickname != "" {
			idx.labels[p.ID] = *p.Nickname
		}
	}
	return idx
}

// UnitAmount returns the unit amount for id, or 0 when unknown.
func (i PriceIndex) UnitAmount(id string) int64 {
	return i.amounts[id]
}

// Label returns the price nickname, falling back to the id itself.
func (i PriceIndex) Label(id string) string {
	if label, ok := i.labels[id]; ok {
		return label
	}
	return id
}

// Metrics are the headline numbers of the admin dashboard.
type Metrics struct {
	UserCount             int64 `json:"userCount"`
	ActiveCount           int64 `json:"activeCount"`
	MonthlyRecurringMinor int64 `json:"monthlyRecurringMinor"`
	MonthlyRecurring      Money `json:"monthlyRecurring"`
}

// Row is one line of the subscription table.
type Row struct {
	SubscriptionID string     `json:"subscriptionId"`
	UserID         string     `json:"userId"`
	Email          string     `json:"email"`
	Plan           string     `json:"plan"`
	Status         string     `json:"status"`
	StatusLabel    string     `json:"statusLabel"`
	Ended          bool       `json:"ended"`
	RenewsAt       *time.Time `json:"renewsAt"`
	RenewsOn       string     `json:"renewsOn"`
	AmountMinor    int64      `json:"amountMinor"`
	Amount         Money      `json:"amount"`
}

// Snapshot is the raw input of an aggregation.
type Snapshot struct {
	Subscriptions []SubscriptionRecord
	Prices        []PriceRecord
}

// Summary is the aggregated view of a snapshot.
type Summary struct {
	Metrics Metrics `json:"metrics"`
	Rows    []Row   `json:"rows"`
}

// RowOptions controls table ordering and size.
type RowOptions struct {
	Order    string
	Limit    int
	Currency string
	Emails   map[string]string
}

func isActive(sub SubscriptionRecord) bool {
	return enums.SubscriptionStatus(sub.Status).CountsTowardRecurring()
}

func quantityOf(sub SubscriptionRecord) int64 {
	if sub.Quantity == nil {
		return 1
	}
	return *sub.Quantity
}

// ActiveCount counts subscriptions whose status is active.
func ActiveCount(subs []SubscriptionRecord) int64 {
	var n int64
	for _, sub := range subs {
		if isActive(sub) {
			n++
		}
	}
	return n
}

// RowAmount is unit amount times quantity regardless of status.
func RowAmount(sub SubscriptionRecord, idx PriceIndex) int64 {
	return idx.UnitAmount(sub.PriceID) * quantityOf(sub)
}

// MonthlyRecurring sums RowAmount over active subscriptions.
func MonthlyRecurring(subs []SubscriptionRecord, idx PriceIndex) int64 {
	var total int64
	for _, sub := range subs {
		if isActive(sub) {
			total += RowAmount(sub, idx)
		}
	}
	return total
}

// RenewalDate converts an epoch-seconds timestamp into a UTC calendar date.
func RenewalDate(epoch *int64) *time.Time {
	if epoch == nil {
		return nil
	}
	t := time.Unix(*epoch, 0).UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

// BuildRows orders subscriptions by renewal date, caps the table and resolves emails.
// Rows without a renewal date sort last in either order.
func BuildRows(subs []SubscriptionRecord, idx PriceIndex, opts RowOptions) []Row {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultTableLimit
	}

	sorted := slices.Clone(subs)
	slices.SortStableFunc(sorted, func(a, b SubscriptionRecord) int {
		switch {
		case a.CurrentPeriodEnd == nil && b.CurrentPeriodEnd == nil:
			return 0
		case a.CurrentPeriodEnd == nil:
			return 1
		case b.CurrentPeriodEnd == nil:
			return -1
		}
		x, y := *a.CurrentPeriodEnd, *b.CurrentPeriodEnd
		if opts.Order == OrderAsc {
			x, y = y, x
		}
		switch {
		case x > y:
			return -1
		case x < y:
			return 1
		}
		return 0
	})
	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	rows := make([]Row, 0, len(sorted))
	for _, sub := range sorted {
		amount := RowAmount(sub, idx)
		status := enums.SubscriptionStatus(sub.Status)
		row := Row{
			SubscriptionID: sub.ID,
			UserID:         sub.UserID,
			Email:          sub.UserID,
			Plan:           idx.Label(sub.PriceID),
			Status:         sub.Status,
			StatusLabel:    status.Label(),
			Ended:          status.IsTerminal(),
			RenewsAt:       RenewalDate(sub.CurrentPeriodEnd),
			RenewsOn:       RenewalPlaceholder,
			AmountMinor:    amount,
			Amount:         NewMoney(amount, opts.Currency),
		}
		if email := opts.Emails[sub.UserID]; email != "" {
			row.Email = email
		}
		if row.RenewsAt != nil {
			row.RenewsOn = row.RenewsAt.Format(time.DateOnly)
		}
		rows = append(rows, row)
	}
	return rows
}

// Aggregate is a pure function of the snapshot.
func Aggregate(snap Snapshot, opts RowOptions) Summary {
	idx := NewPriceIndex(snap.Prices)
	mrr := MonthlyRecurring(snap.Subscriptions, idx)
	return Summary{
		Metrics: Metrics{
			ActiveCount:           ActiveCount(snap.Subscriptions),
			MonthlyRecurringMinor: mrr,
			MonthlyRecurring:      NewMoney(mrr, opts.Currency),
		},
		Rows: BuildRows(snap.Subscriptions, idx, opts),
	}
}
