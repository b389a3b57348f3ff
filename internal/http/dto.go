package http

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"supcal/internal/core"
	"supcal/internal/records"
	"supcal/internal/services"
)

const maxBodyBytes = 64 << 10

type recordResponse struct {
	ID             string          `json:"id"`
	Type           core.RecordType `json:"type"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Period         core.PeriodKind `json:"period"`
	Time           *time.Time      `json:"time,omitempty"`
	StartTime      *time.Time      `json:"start_time,omitempty"`
	EndTime        *time.Time      `json:"end_time,omitempty"`
	NextOccurrence *time.Time      `json:"next_occurrence"`
	Direction      core.Direction  `json:"direction,omitempty"`
	Category       string          `json:"category,omitempty"`
	Amount         *core.Money     `json:"amount,omitempty"`
	PaymentMethod  string          `json:"payment_method,omitempty"`
	CycleStart     *time.Time      `json:"cycle_start,omitempty"`
	Notes          string          `json:"notes,omitempty"`
	Currency       core.Currency   `json:"currency,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func toRecord(r core.Record) recordResponse {
	out := recordResponse{
		ID:             r.ID,
		Type:           r.Type,
		Name:           r.Name(),
		Period:         r.Period(),
		EndTime:        r.EndTime(),
		NextOccurrence: r.NextOccurrence(),
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
	switch {
	case r.Simple != nil:
		t := r.Simple.Time
		out.Time = &t
		out.Description = r.Simple.Description
	case r.Payment != nil:
		p := r.Payment
		start, amount := p.StartTime, p.Amount
		out.StartTime = &start
		out.Amount = &amount
		out.Description = p.Description
		out.Direction = p.Direction
		out.Category = p.Category
		out.PaymentMethod = p.PaymentMethod
		out.CycleStart = p.CycleStart
		out.Notes = p.Notes
		out.Currency = p.Currency
	}
	return out
}

func toRecords(recs []core.Record) []recordResponse {
	out := make([]recordResponse, 0, len(recs))
	for _, r := range recs {
		out = append(out, toRecord(r))
	}
	return out
}

type upcomingResponse struct {
	Record    recordResponse   `json:"record"`
	DaysUntil int              `json:"days_until"`
	Urgency   core.UrgencyTier `json:"urgency"`
}

func toUpcoming(entries []core.UpcomingEntry) []upcomingResponse {
	out := make([]upcomingResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, upcomingResponse{Record: toRecord(e.Record), DaysUntil: e.DaysUntil, Urgency: e.Urgency})
	}
	return out
}

type summaryResponse struct {
	Income        core.Money      `json:"income"`
	Expense       core.Money      `json:"expense"`
	Balance       core.Money      `json:"balance"`
	Currencies    []core.Currency `json:"currencies"`
	MixedCurrency bool            `json:"mixed_currency"`
	Payments      int             `json:"payments"`
}

func toSummary(s core.Summary) summaryResponse {
	currencies := s.Currencies
	if currencies == nil {
		currencies = []core.Currency{}
	}
	return summaryResponse{
		Income:        s.Income,
		Expense:       s.Expense,
		Balance:       s.Balance,
		Currencies:    currencies,
		MixedCurrency: s.MixedCurrency,
		Payments:      s.Payments,
	}
}

type dashboardResponse struct {
	GeneratedAt     time.Time          `json:"generated_at"`
	TopPayments     []recordResponse   `json:"top_payments"`
	UpcomingSimples []upcomingResponse `json:"upcoming_simples"`
	Summary         summaryResponse    `json:"summary"`
}

type categoryResponse struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Direction core.Direction `json:"direction"`
	Color     string         `json:"color,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

func toCategory(c records.Category) categoryResponse {
	return categoryResponse{ID: c.ID, Name: c.Name, Direction: c.Direction, Color: c.Color, CreatedAt: c.CreatedAt}
}

type paymentMethodResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func toPaymentMethod(m records.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{ID: m.ID, Name: m.Name, CreatedAt: m.CreatedAt}
}

type simpleRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Time        time.Time  `json:"time"`
	Period      string     `json:"period"`
	EndTime     *time.Time `json:"end_time"`
}

func (req simpleRequest) input() (services.SimpleInput, error) {
	period, err := core.ParsePeriodKind(req.Period)
	if err != nil {
		return services.SimpleInput{}, err
	}
	return services.SimpleInput{
		Name:        req.Name,
		Description: req.Description,
		Time:        req.Time,
		Period:      period,
		EndTime:     req.EndTime,
	}, nil
}

type paymentRequest struct {
	Name          string     `json:"name"`
	Description   string     `json:"description"`
	Direction     string     `json:"direction"`
	Category      string     `json:"category"`
	Amount        core.Money `json:"amount"`
	PaymentMethod string     `json:"payment_method"`
	Period        string     `json:"period"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time"`
	CycleStart    *time.Time `json:"cycle_start"`
	Notes         string     `json:"notes"`
	Currency      string     `json:"currency"`
}

func (req paymentRequest) input() (services.PaymentInput, error) {
	period, err := core.ParsePeriodKind(req.Period)
	if err != nil {
		return services.PaymentInput{}, err
	}
	direction, err := core.ParseDirection(req.Direction)
	if err != nil {
		return services.PaymentInput{}, err
	}
	return services.PaymentInput{
		Name:          req.Name,
		Description:   req.Description,
		Direction:     direction,
		Category:      req.Category,
		Amount:        req.Amount,
		PaymentMethod: req.PaymentMethod,
		Period:        period,
		StartTime:     req.StartTime,
		EndTime:       req.EndTime,
		CycleStart:    req.CycleStart,
		Notes:         req.Notes,
		Currency:      core.Currency(req.Currency),
	}, nil
}

type categoryRequest struct {
	Name      string `json:"name"`
	Direction string `json:"direction"`
	Color     string `json:"color"`
}

type paymentMethodRequest struct {
	Name string `json:"name"`
}

// decodeJSON reads one JSON object from the body, rejecting unknown fields
// and trailing data.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if core.IsValidationError(err) {
			return err
		}
		return fmt.Errorf("%w: invalid JSON body: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: unexpected data after JSON body", errBadRequest)
	}
	return nil
}
