package enums

import "testing"

func TestNormalizeRole(t *testing.T) {
	cases := map[string]Role{
		"admin":    RoleAdmin,
		" Admin ":  RoleAdmin,
		"manager":  RoleManager,
		"user":     RoleUser,
		"":         RoleUser,
		"owner":    RoleUser,
		"ADMIN123": RoleUser,
	}
	for in, want := range cases {
		if got := NormalizeRole(in); got != want {
			t.Fatalf("NormalizeRole(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseRoleRejectsUnknown(t *testing.T) {
	if _, err := ParseRole("owner"); err == nil {
		t.Fatal("expected error for unknown role")
	}
	if !RoleManager.IsValid() {
		t.Fatal("manager should be valid")
	}
}

func TestOnlyActiveCountsTowardRecurring(t *testing.T) {
	statuses := []SubscriptionStatus{
		SubscriptionStatusTrialing,
		SubscriptionStatusActive,
		SubscriptionStatusPastDue,
		SubscriptionStatusCanceled,
		SubscriptionStatusIncomplete,
		SubscriptionStatusIncompleteExpired,
		SubscriptionStatusUnpaid,
		SubscriptionStatusPaused,
	}
	for _, status := range statuses {
		if !status.IsValid() {
			t.Fatalf("%s should be valid", status)
		}
		want := status == SubscriptionStatusActive
		if got := status.CountsTowardRecurring(); got != want {
			t.Fatalf("%s: got %v want %v", status, got, want)
		}
	}
}
