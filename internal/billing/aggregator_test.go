package billing

import (
	"testing"
	"time"
)

func i64(v int64) *int64 { return &v }
func str(v string) *string { return &v }

func TestAggregateNoActiveRows(t *testing.T) {
	snap := Snapshot{
		Subscriptions: []SubscriptionRecord{
			{ID: "sub_1", PriceID: "price_pro", Status: "canceled", Quantity: i64(3)},
			{ID: "sub_2", PriceID: "price_pro", Status: "past_due"},
			{ID: "sub_3", PriceID: "price_pro", Status: "trialing"},
		},
		Prices: []PriceRecord{{ID: "price_pro", UnitAmount: i64(9000)}},
	}

	summary := Aggregate(snap, RowOptions{})
	if summary.Metrics.ActiveCount != 0 {
		t.Fatalf("expected 0 active, got %d", summary.Metrics.ActiveCount)
	}
	if summary.Metrics.MonthlyRecurringMinor != 0 {
		t.Fatalf("expected 0 mrr, got %d", summary.Metrics.MonthlyRecurringMinor)
	}
	if len(summary.Rows) != 3 {
		t.Fatalf("inactive rows still listed, got %d", len(summary.Rows))
	}
}

func TestUnknownPriceDefaultsToZero(t *testing.T) {
	idx := NewPriceIndex([]PriceRecord{{ID: "price_known", UnitAmount: i64(2000)}})
	sub := SubscriptionRecord{ID: "sub_1", PriceID: "price_missing", Status: "active", Quantity: i64(4)}

	if got := idx.UnitAmount("price_missing"); got != 0 {
		t.Fatalf("expected 0 unit amount, got %d", got)
	}
	if got := RowAmount(sub, idx); got != 0 {
		t.Fatalf("expected 0 row amount, got %d", got)
	}
	if got := idx.Label("price_missing"); got != "price_missing" {
		t.Fatalf("expected label fallback to id, got %q", got)
	}
}

func TestPriceLabelUsesNickname(t *testing.T) {
	idx := NewPriceIndex([]PriceRecord{
		{ID: "price_a", UnitAmount: i64(2000), Nickname: str("Starter")},
		{ID: "price_b", UnitAmount: nil, Nickname: str("")},
	})
	if got := idx.Label("price_a"); got != "Starter" {
		t.Fatalf("unexpected label %q", got)
	}
	if got := idx.Label("price_b"); got != "price_b" {
		t.Fatalf("empty nickname should fall back to id, got %q", got)
	}
	if got := idx.UnitAmount("price_b"); got != 0 {
		t.Fatalf("null unit amount should be 0, got %d", got)
	}
}

func TestNilQuantityCountsAsOne(t *testing.T) {
	idx := NewPriceIndex([]PriceRecord{{ID: "price", UnitAmount: i64(1500)}})
	subs := []SubscriptionRecord{
		{ID: "a", PriceID: "price", Status: "active"},
		{ID: "b", PriceID: "price", Status: "active", Quantity: i64(2)},
	}
	if got := MonthlyRecurring(subs, idx); got != 4500 {
		t.Fatalf("expected 4500, got %d", got)
	}
	if got := RowAmount(subs[0], idx); got != 1500 {
		t.Fatalf("expected 1500 for nil quantity, got %d", got)
	}
}

func TestRenewalDate(t *testing.T) {
	if RenewalDate(nil) != nil {
		t.Fatal("nil epoch must yield nil date")
	}

	epoch := time.Date(2026, 3, 14, 18, 30, 0, 0, time.UTC).Unix()
	got := RenewalDate(&epoch)
	if got == nil {
		t.Fatal("expected a date")
	}
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	rows := BuildRows([]SubscriptionRecord{{ID: "sub", Status: "active"}}, NewPriceIndex(nil), RowOptions{})
	if rows[0].RenewsAt != nil || rows[0].RenewsOn != RenewalPlaceholder {
		t.Fatalf("expected placeholder, got %+v", rows[0])
	}
}

func TestAggregateEndToEnd(t *testing.T) {
	snap := Snapshot{
		Subscriptions: []SubscriptionRecord{
			{ID: "s1", UserID: "u1", PriceID: "starter", Status: "active", Quantity: i64(1)},
			{ID: "s2", UserID: "u2", PriceID: "starter", Status: "active", Quantity: i64(1)},
			{ID: "s3", UserID: "u3", PriceID: "starter", Status: "active", Quantity: i64(1)},
			{ID: "s4", UserID: "u4", PriceID: "pro", Status: "canceled", Quantity: i64(2)},
		},
		Prices: []PriceRecord{
			{ID: "starter", UnitAmount: i64(2000)},
			{ID: "pro", UnitAmount: i64(9000)},
		},
	}

	summary := Aggregate(snap, RowOptions{})
	if summary.Metrics.MonthlyRecurringMinor != 6000 {
		t.Fatalf("expected 6000, got %d", summary.Metrics.MonthlyRecurringMinor)
	}
	if got := summary.Metrics.MonthlyRecurring.String(); got != "$60.00" {
		t.Fatalf("expected $60.00, got %q", got)
	}
	if summary.Metrics.ActiveCount != 3 {
		t.Fatalf("expected 3 active, got %d", summary.Metrics.ActiveCount)
	}

	var canceled *Row
	for i := range summary.Rows {
		if summary.Rows[i].SubscriptionID == "s4" {
			canceled = &summary.Rows[i]
		}
	}
	if canceled == nil {
		t.Fatal("canceled row must still be listed")
	}
	if canceled.AmountMinor != 18000 {
		t.Fatalf("expected canceled row amount 18000, got %d", canceled.AmountMinor)
	}
}

func TestAggregateEmpty(t *testing.T) {
	summary := Aggregate(Snapshot{}, RowOptions{})
	if summary.Metrics != (Metrics{MonthlyRecurring: NewMoney(0, "")}) {
		t.Fatalf("expected zero metrics, got %+v", summary.Metrics)
	}
	if summary.Rows == nil || len(summary.Rows) != 0 {
		t.Fatalf("expected empty non-nil rows, got %#v", summary.Rows)
	}
}

func TestBuildRowsOrderingAndCap(t *testing.T) {
	subs := []SubscriptionRecord{
		{ID: "none", Status: "active"},
		{ID: "early", Status: "active", CurrentPeriodEnd: i64(100)},
		{ID: "late", Status: "active", CurrentPeriodEnd: i64(300)},
		{ID: "mid", Status: "active", CurrentPeriodEnd: i64(200)},
	}
	idx := NewPriceIndex(nil)

	desc := BuildRows(subs, idx, RowOptions{Order: OrderDesc})
	assertOrder(t, desc, "late", "mid", "early", "none")

	asc := BuildRows(subs, idx, RowOptions{Order: OrderAsc})
	assertOrder(t, asc, "early", "mid", "late", "none")

	capped := BuildRows(subs, idx, RowOptions{Limit: 2})
	assertOrder(t, capped, "late", "mid")

	if subs[0].ID != "none" {
		t.Fatal("input slice must not be reordered")
	}
}

func TestBuildRowsDefaultCap(t *testing.T) {
	subs := make([]SubscriptionRecord, 40)
	for i := range subs {
		subs[i] = SubscriptionRecord{ID: "s", Status: "active"}
	}
	if got := len(BuildRows(subs, NewPriceIndex(nil), RowOptions{})); got != DefaultTableLimit {
		t.Fatalf("expected cap %d, got %d", DefaultTableLimit, got)
	}
}

func TestBuildRowsResolvesEmails(t *testing.T) {
	subs := []SubscriptionRecord{
		{ID: "a", UserID: "u1", Status: "active"},
		{ID: "b", UserID: "u2", Status: "active"},
	}
	rows := BuildRows(subs, NewPriceIndex(nil), RowOptions{Emails: map[string]string{"u1": "one@example.com"}})
	if rows[0].Email != "one@example.com" {
		t.Fatalf("expected resolved email, got %q", rows[0].Email)
	}
	if rows[1].Email != "u2" {
		t.Fatalf("expected user id fallback, got %q", rows[1].Email)
	}
}

func assertOrder(t *testing.T, rows []Row, ids ...string) {
	t.Helper()
	if len(rows) != len(ids) {
		t.Fatalf("expected %d rows, got %d", len(ids), len(rows))
	}
	for i, id := range ids {
		if rows[i].SubscriptionID != id {
			t.Fatalf("row %d: expected %s, got %s", i, id, rows[i].SubscriptionID)
		}
	}
}

func TestBuildRowsStatusPresentation(t *testing.T) {
	rows := BuildRows([]SubscriptionRecord{
		{ID: "live", Status: "past_due"},
		{ID: "gone", Status: "canceled"},
		{ID: "odd", Status: "legacy_state"},
	}, NewPriceIndex(nil), RowOptions{})

	byID := map[string]Row{}
	for _, row := range rows {
		byID[row.SubscriptionID] = row
	}
	if got := byID["live"]; got.StatusLabel != "Past due" || got.Ended {
		t.Fatalf("unexpected past_due row %+v", got)
	}
	if got := byID["gone"]; got.StatusLabel != "Canceled" || !got.Ended {
		t.Fatalf("unexpected canceled row %+v", got)
	}
	if got := byID["odd"]; got.StatusLabel != "legacy_state" || got.Ended {
		t.Fatalf("unknown status should pass through, got %+v", got)
	}
}
