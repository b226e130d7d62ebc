package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/stripe/stripe-go/v84"

	"github.com/autoflexeasy/autoflex-backend/pkg/supabase"
)

// Diagnostics flattens an error chain into log fields. Provider specific
// details are filled from whichever driver or SDK error is found first.
type Diagnostics struct {
	Message string
	Code    Code
	Chain   []string

	// Postgres (pgx for gorm, lib/pq for goose and raw sql).
	PGCode       string
	PGConstraint string
	PGTable      string
	PGDetail     string

	// Stripe SDK.
	StripeType      string
	StripeCode      string
	StripeRequestID string

	// Auth provider REST calls.
	ProviderStatus int
}

func Diagnose(err error) Diagnostics {
	if err == nil {
		return Diagnostics{}
	}

	d := Diagnostics{Message: err.Error()}
	if te := As(err); te != nil {
		d.Code = te.Code()
	}
	for e := err; e != nil; e = errors.Unwrap(e) {
		d.Chain = append(d.Chain, fmt.Sprintf("%T: %v", e, e))
	}

	var pgxErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgxErr):
		d.PGCode = pgxErr.Code
		d.PGConstraint = pgxErr.ConstraintName
		d.PGTable = pgxErr.TableName
		d.PGDetail = pgxErr.Detail
	case errors.As(err, &pqErr):
		d.PGCode = string(pqErr.Code)
		d.PGConstraint = pqErr.Constraint
		d.PGTable = pqErr.Table
		d.PGDetail = pqErr.Detail
	}

	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		d.StripeType = string(stripeErr.Type)
		d.StripeCode = string(stripeErr.Code)
		d.StripeRequestID = stripeErr.RequestID
	}

	if apiErr, ok := supabase.AsAPIError(err); ok {
		d.ProviderStatus = apiErr.Status
	}
	return d
}

// Fields returns the non-empty diagnostics as a logger field map.
func (d Diagnostics) Fields() map[string]any {
	fields := map[string]any{
		"error":       d.Message,
		"error_chain": d.Chain,
	}
	if d.Code != "" {
		fields["error_code"] = d.Code
	}
	add := func(key, value string) {
		if value != "" {
			fields[key] = value
		}
	}
	add("pg_code", d.PGCode)
	add("pg_constraint", d.PGConstraint)
	add("pg_table", d.PGTable)
	add("pg_detail", d.PGDetail)
	add("stripe_type", d.StripeType)
	add("stripe_code", d.StripeCode)
	add("stripe_request_id", d.StripeRequestID)
	if d.ProviderStatus != 0 {
		fields["provider_status"] = d.ProviderStatus
	}
	return fields
}
