package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/neomorfeo/leaseiq/internal/app"
	"github.com/neomorfeo/leaseiq/internal/domain"
)

const dateFormat = "2006-01-02"

// LeaseResponse is the API representation of a lease.
type LeaseResponse struct {
	ID        string   `json:"id" doc:"Unique identifier"`
	UnitID    string   `json:"unit_id" doc:"Unit under lease"`
	TenantIDs []string `json:"tenant_ids" doc:"Tenants on the lease, primary first"`

	StartDate  string `json:"start_date" doc:"Lease start (YYYY-MM-DD)"`
	EndDate    string `json:"end_date,omitempty" doc:"Lease end, absent for open-ended leases"`
	SignedDate string `json:"signed_date,omitempty" doc:"Signature date, absent until activation"`
	MoveInDate string `json:"move_in_date,omitempty" doc:"Move-in date"`

	MonthlyRent     float64 `json:"monthly_rent" doc:"Monthly rent"`
	SecurityDeposit float64 `json:"security_deposit" doc:"Security deposit held"`
	PetDeposit      float64 `json:"pet_deposit" doc:"Pet deposit held"`
	LateFee         float64 `json:"late_fee" doc:"Late fee amount"`
	GracePeriodDays int     `json:"grace_period_days" doc:"Days past the due day before the late fee applies"`
	RentDueDay      int     `json:"rent_due_day" doc:"Day of month rent is due"`

	LeaseType string `json:"lease_type" doc:"Term structure"`
	Status    string `json:"status" doc:"Lifecycle state"`

	LeaseTerms        string `json:"lease_terms,omitempty" doc:"Free-form lease terms"`
	SpecialConditions string `json:"special_conditions,omitempty" doc:"Append-only audit trail of lifecycle notes"`

	TerminationDate     string  `json:"termination_date,omitempty" doc:"Effective termination date"`
	TerminationReason   string  `json:"termination_reason,omitempty" doc:"Termination reason"`
	RefundAmount        float64 `json:"refund_amount,omitempty" doc:"Deposit refunded at termination"`
	DeductionReason     string  `json:"deduction_reason,omitempty" doc:"Reason for any deposit deduction"`
	EarlyTerminationFee float64 `json:"early_termination_fee,omitempty" doc:"Early termination fee charged"`

	CreatedAt string `json:"created_at" doc:"Creation timestamp (ISO 8601)"`
	UpdatedAt string `json:"updated_at" doc:"Last update timestamp (ISO 8601)"`
}

// SettlementResponse reports the financial reconciliation of a cancellation.
type SettlementResponse struct {
	Refund              float64 `json:"refund" doc:"Deposit amount returned to the tenant"`
	Deduction           float64 `json:"deduction" doc:"Deposit amount withheld"`
	EarlyTerminationFee float64 `json:"early_termination_fee" doc:"Fee charged for early termination"`
	Total               float64 `json:"total" doc:"Deduction plus fee, informational"`
}

func toLeaseResponse(l domain.Lease) LeaseResponse {
	return LeaseResponse{
		ID:                  l.ID,
		UnitID:              l.UnitID,
		TenantIDs:           l.TenantIDs,
		StartDate:           l.StartDate.Format(dateFormat),
		EndDate:             formatDate(l.EndDate),
		SignedDate:          formatDate(l.SignedDate),
		MoveInDate:          formatDate(l.MoveInDate),
		MonthlyRent:         l.MonthlyRent,
		SecurityDeposit:     l.SecurityDeposit,
		PetDeposit:          l.PetDeposit,
		LateFee:             l.LateFee,
		GracePeriodDays:     l.GracePeriodDays,
		RentDueDay:          l.RentDueDay,
		LeaseType:           string(l.LeaseType),
		Status:              string(l.Status),
		LeaseTerms:          l.LeaseTerms,
		SpecialConditions:   l.SpecialConditions,
		TerminationDate:     formatDate(l.TerminationDate),
		TerminationReason:   l.TerminationReason,
		RefundAmount:        l.RefundAmount,
		DeductionReason:     l.DeductionReason,
		EarlyTerminationFee: l.EarlyTerminationFee,
		CreatedAt:           l.CreatedAt.Format("2006-01-02T15:04:05Z"),
		UpdatedAt:           l.UpdatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

// --- Create Lease ---

type CreateLeaseInput struct {
	Body struct {
		UnitID    string   `json:"unit_id" minLength:"1" doc:"Unit to lease"`
		TenantIDs []string `json:"tenant_ids" minItems:"1" doc:"Tenants on the lease, primary first"`

		StartDate  string `json:"start_date" format:"date" doc:"Lease start (YYYY-MM-DD)"`
		EndDate    string `json:"end_date,omitempty" format:"date" doc:"Lease end, omit for open-ended leases"`
		SignedDate string `json:"signed_date,omitempty" format:"date" doc:"Signature date"`
		MoveInDate string `json:"move_in_date,omitempty" format:"date" doc:"Move-in date"`

		MonthlyRent     float64 `json:"monthly_rent" doc:"Monthly rent, must be positive"`
		SecurityDeposit float64 `json:"security_deposit,omitempty" doc:"Security deposit"`
		PetDeposit      float64 `json:"pet_deposit,omitempty" doc:"Pet deposit"`
		LateFee         float64 `json:"late_fee,omitempty" doc:"Late fee amount"`
		GracePeriodDays int     `json:"grace_period_days,omitempty" doc:"Days past the due day before the late fee applies"`
		RentDueDay      int     `json:"rent_due_day,omitempty" default:"1" doc:"Day of month rent is due"`

		LeaseType string `json:"lease_type,omitempty" default:"fixed_term" enum:"fixed_term,month_to_month,week_to_week" doc:"Term structure"`
		Status    string `json:"status,omitempty" default:"draft" enum:"draft,active" doc:"Initial lifecycle state"`

		LeaseTerms        string `json:"lease_terms,omitempty" doc:"Free-form lease terms"`
		SpecialConditions string `json:"special_conditions,omitempty" doc:"Initial special conditions"`
	}
}

type CreateLeaseOutput struct {
	Body struct {
		Lease    LeaseResponse `json:"lease"`
		Warnings []string      `json:"warnings,omitempty" doc:"Non-fatal advisories, e.g. a missing signed date"`
	}
}

// --- Get Lease ---

type GetLeaseInput struct {
	ID string `path:"id" doc:"Lease ID"`
}

type GetLeaseOutput struct {
	Body LeaseResponse
}

// --- List Leases ---

type ListLeasesInput struct {
	Status   string `query:"status" required:"false" doc:"Filter by lifecycle state"`
	UnitID   string `query:"unit_id" required:"false" doc:"Filter by unit"`
	TenantID string `query:"tenant_id" required:"false" doc:"Filter by tenant"`
	Limit    int    `query:"limit" required:"false" default:"50" doc:"Max results"`
	Offset   int    `query:"offset" required:"false" default:"0" doc:"Pagination offset"`
}

type ListLeasesOutput struct {
	Body []LeaseResponse
}

// --- Activate ---

type ActivateLeaseInput struct {
	ID   string `path:"id" doc:"Lease ID"`
	Body struct {
		SignedDate      string `json:"signed_date" format:"date" doc:"Signature date, must not be after the start date"`
		MoveInDate      string `json:"move_in_date,omitempty" format:"date" doc:"Move-in date"`
		ActivationNotes string `json:"activation_notes,omitempty" doc:"Note appended to the lease audit trail"`
	}
}

type ActivateLeaseOutput struct {
	Body LeaseResponse
}

// --- Renew ---

type RenewLeaseInput struct {
	ID   string `path:"id" doc:"Lease ID"`
	Body struct {
		EffectiveDate    string  `json:"effective_date" format:"date" doc:"Date the renewal takes effect"`
		NewEndDate       string  `json:"new_end_date" format:"date" doc:"New lease end, must be after the effective date"`
		RentIncrease     float64 `json:"rent_increase,omitempty" doc:"Amount added to the monthly rent, zero for a date-only renewal"`
		NoticePeriodDays int     `json:"notice_period_days,omitempty" doc:"Notice period metadata, conventionally 30, 60 or 90 days"`
		RenewalNotes     string  `json:"renewal_notes,omitempty" doc:"Note appended to the lease audit trail"`
	}
}

type RenewLeaseOutput struct {
	Body LeaseResponse
}

// --- Cancel ---

type CancelLeaseInput struct {
	ID   string `path:"id" doc:"Lease ID"`
	Body struct {
		TerminationDate     string  `json:"termination_date" format:"date" doc:"Effective termination date, not in the past"`
		TerminationReason   string  `json:"termination_reason" minLength:"1" doc:"Reason from the termination taxonomy"`
		NoticeGiven         bool    `json:"notice_given,omitempty" doc:"Whether the tenant gave notice"`
		NoticeDate          string  `json:"notice_date,omitempty" format:"date" doc:"Date notice was given, required when notice_given"`
		RefundAmount        float64 `json:"refund_amount,omitempty" doc:"Deposit refund, between 0 and the security deposit"`
		DeductionReason     string  `json:"deduction_reason,omitempty" doc:"Required when a deduction is taken"`
		EarlyTerminationFee float64 `json:"early_termination_fee,omitempty" doc:"Early termination fee"`
		CancellationNotes   string  `json:"cancellation_notes,omitempty" doc:"Note appended to the lease audit trail"`
	}
}

type CancelLeaseOutput struct {
	Body struct {
		Lease      LeaseResponse      `json:"lease"`
		Settlement SettlementResponse `json:"settlement"`
	}
}

// Register adds all lease API routes to the Huma API.
func Register(api huma.API, svc *app.LeaseService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-lease",
		Method:      http.MethodPost,
		Path:        "/api/v1/leases",
		Summary:     "Create a new lease",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *CreateLeaseInput) (*CreateLeaseOutput, error) {
		payload, err := toCreatePayload(input)
		if err != nil {
			return nil, err
		}

		lease, warnings, err := svc.Create(ctx, payload)
		if err != nil {
			return nil, toHumaError(err)
		}

		out := &CreateLeaseOutput{}
		out.Body.Lease = toLeaseResponse(lease)
		out.Body.Warnings = warnings
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-lease",
		Method:      http.MethodGet,
		Path:        "/api/v1/leases/{id}",
		Summary:     "Get a lease by ID",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *GetLeaseInput) (*GetLeaseOutput, error) {
		lease, err := svc.GetByID(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &GetLeaseOutput{Body: toLeaseResponse(lease)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-leases",
		Method:      http.MethodGet,
		Path:        "/api/v1/leases",
		Summary:     "List leases",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *ListLeasesInput) (*ListLeasesOutput, error) {
		filter := domain.ListFilter{
			UnitID:   input.UnitID,
			TenantID: input.TenantID,
			Limit:    input.Limit,
			Offset:   input.Offset,
		}
		if input.Status != "" {
			s := domain.Status(input.Status)
			filter.Status = &s
		}

		leases, err := svc.List(ctx, filter)
		if err != nil {
			return nil, toHumaError(err)
		}

		resp := make([]LeaseResponse, len(leases))
		for i, l := range leases {
			resp[i] = toLeaseResponse(l)
		}
		return &ListLeasesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "activate-lease",
		Method:      http.MethodPost,
		Path:        "/api/v1/leases/{id}/activate",
		Summary:     "Activate a draft lease",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *ActivateLeaseInput) (*ActivateLeaseOutput, error) {
		signed, err := parseDate(input.Body.SignedDate, "signed_date")
		if err != nil {
			return nil, err
		}
		moveIn, err := parseOptionalDate(input.Body.MoveInDate, "move_in_date")
		if err != nil {
			return nil, err
		}

		lease, err := svc.Activate(ctx, input.ID, domain.ActivatePayload{
			SignedDate:      signed,
			MoveInDate:      moveIn,
			ActivationNotes: input.Body.ActivationNotes,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ActivateLeaseOutput{Body: toLeaseResponse(lease)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "renew-lease",
		Method:      http.MethodPost,
		Path:        "/api/v1/leases/{id}/renew",
		Summary:     "Renew a lease",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *RenewLeaseInput) (*RenewLeaseOutput, error) {
		effective, err := parseDate(input.Body.EffectiveDate, "effective_date")
		if err != nil {
			return nil, err
		}
		newEnd, err := parseDate(input.Body.NewEndDate, "new_end_date")
		if err != nil {
			return nil, err
		}

		lease, err := svc.Renew(ctx, input.ID, domain.RenewPayload{
			EffectiveDate:    effective,
			NewEndDate:       newEnd,
			RentIncrease:     input.Body.RentIncrease,
			NoticePeriodDays: input.Body.NoticePeriodDays,
			RenewalNotes:     input.Body.RenewalNotes,
		})
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RenewLeaseOutput{Body: toLeaseResponse(lease)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "cancel-lease",
		Method:      http.MethodPost,
		Path:        "/api/v1/leases/{id}/cancel",
		Summary:     "Terminate a lease and settle the deposit",
		Tags:        []string{"Leases"},
	}, func(ctx context.Context, input *CancelLeaseInput) (*CancelLeaseOutput, error) {
		termination, err := parseDate(input.Body.TerminationDate, "termination_date")
		if err != nil {
			return nil, err
		}
		notice, err := parseOptionalDate(input.Body.NoticeDate, "notice_date")
		if err != nil {
			return nil, err
		}

		payload := domain.CancelPayload{
			TerminationDate:     termination,
			TerminationReason:   input.Body.TerminationReason,
			NoticeGiven:         input.Body.NoticeGiven,
			NoticeDate:          notice,
			RefundAmount:        input.Body.RefundAmount,
			DeductionReason:     input.Body.DeductionReason,
			EarlyTerminationFee: input.Body.EarlyTerminationFee,
			CancellationNotes:   input.Body.CancellationNotes,
		}

		lease, err := svc.Cancel(ctx, input.ID, payload)
		if err != nil {
			return nil, toHumaError(err)
		}

		settlement := domain.SettlementFor(lease, payload)

		out := &CancelLeaseOutput{}
		out.Body.Lease = toLeaseResponse(lease)
		out.Body.Settlement = SettlementResponse{
			Refund:              settlement.Refund,
			Deduction:           settlement.Deduction,
			EarlyTerminationFee: settlement.EarlyTerminationFee,
			Total:               settlement.Total,
		}
		return out, nil
	})
}

// toCreatePayload translates the transport body into domain intent.
func toCreatePayload(input *CreateLeaseInput) (domain.CreatePayload, error) {
	start, err := parseDate(input.Body.StartDate, "start_date")
	if err != nil {
		return domain.CreatePayload{}, err
	}
	end, err := parseOptionalDate(input.Body.EndDate, "end_date")
	if err != nil {
		return domain.CreatePayload{}, err
	}
	signed, err := parseOptionalDate(input.Body.SignedDate, "signed_date")
	if err != nil {
		return domain.CreatePayload{}, err
	}
	moveIn, err := parseOptionalDate(input.Body.MoveInDate, "move_in_date")
	if err != nil {
		return domain.CreatePayload{}, err
	}

	return domain.CreatePayload{
		UnitID:            input.Body.UnitID,
		TenantIDs:         input.Body.TenantIDs,
		StartDate:         start,
		EndDate:           end,
		SignedDate:        signed,
		MoveInDate:        moveIn,
		MonthlyRent:       input.Body.MonthlyRent,
		SecurityDeposit:   input.Body.SecurityDeposit,
		PetDeposit:        input.Body.PetDeposit,
		LateFee:           input.Body.LateFee,
		GracePeriodDays:   input.Body.GracePeriodDays,
		RentDueDay:        input.Body.RentDueDay,
		LeaseType:         domain.LeaseType(input.Body.LeaseType),
		Status:            domain.Status(input.Body.Status),
		LeaseTerms:        input.Body.LeaseTerms,
		SpecialConditions: input.Body.SpecialConditions,
	}, nil
}

func parseDate(s, field string) (time.Time, error) {
	t, err := time.Parse(dateFormat, s)
	if err != nil {
		return time.Time{}, huma.Error422UnprocessableEntity(field + " must be a date in YYYY-MM-DD format")
	}
	return t, nil
}

func parseOptionalDate(s, field string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := parseDate(s, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateFormat)
}

// toHumaError translates domain errors to Huma HTTP errors. Every reason in
// a rejection is carried as its own error detail so clients can display all
// problems at once.
func toHumaError(err error) error {
	if errors.Is(err, domain.ErrLeaseNotFound) {
		return huma.Error404NotFound("lease not found")
	}

	var rej *domain.Rejection
	if errors.As(err, &rej) {
		details := make([]error, len(rej.Reasons))
		for i, reason := range rej.Reasons {
			details[i] = &huma.ErrorDetail{Message: reason}
		}
		return huma.Error422UnprocessableEntity(rej.Error(), details...)
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
