package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository"
	"github.com/jwalitptl/hairline-crm/internal/service/report"
	apperrors "github.com/jwalitptl/hairline-crm/pkg/errors"
)

// Card keys, in the order cards are returned.
const (
	CardAppointments    = "appointments"
	CardVisited         = "visited"
	CardSurgeryReady    = "surgery_ready"
	CardTodaysSurgeries = "todays_surgeries"
	CardAmountReceived  = "amount_received"
)

type Service struct {
	patients repository.PatientRepository
	loc      *time.Location
}

func NewService(patients repository.PatientRepository, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{patients: patients, loc: loc}
}

// Get builds the dashboard for a branch and date range. The underlying
// queries run concurrently and any failure fails the whole dashboard.
func (s *Service) Get(ctx context.Context, req *model.DashboardRequest) (*model.Dashboard, error) {
	if req.From.IsZero() || req.To.IsZero() {
		return nil, apperrors.BadRequest("from and to are required", nil)
	}
	if req.To.Before(req.From) {
		return nil, apperrors.BadRequest("to is before from", nil)
	}
	if req.Branch != "" && !validBranch(req.Branch) {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown branch %q", req.Branch), nil)
	}

	rng := model.Window{From: req.From, To: req.To}
	last7 := report.LastDays(req.To, 7, s.loc)
	last30 := report.LastDays(req.To, 30, s.loc)

	var (
		appointments, surgeries []*model.Patient
		received, week, month   model.RevenueBreakdown
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		appointments, err = s.patients.Find(ctx, model.PatientQuery{Branch: req.Branch, VisitFrom: rng.From, VisitTo: rng.To})
		return wrap("appointments", err)
	})
	g.Go(func() error {
		var err error
		surgeries, err = s.patients.Find(ctx, model.PatientQuery{Branch: req.Branch, SurgeryFrom: rng.From, SurgeryTo: rng.To})
		return wrap("surgeries", err)
	})
	g.Go(func() error {
		var err error
		received, err = s.revenue(ctx, req.Branch, rng)
		return wrap("amount received", err)
	})
	g.Go(func() error {
		var err error
		week, err = s.revenue(ctx, req.Branch, last7)
		return wrap("last 7 days", err)
	})
	g.Go(func() error {
		var err error
		month, err = s.revenue(ctx, req.Branch, last30)
		return wrap("last 30 days", err)
	})
	if err := g.Wait(); err != nil {
		return nil, apperrors.Internal(err)
	}

	counts := report.Summary(appointments, surgeries)
	return &model.Dashboard{
		Branch:         req.Branch,
		From:           req.From,
		To:             req.To,
		Counts:         counts,
		AmountReceived: received.Total,
		Last7Days:      week,
		Last30Days:     month,
		Cards:          Cards(counts, received.Total, req),
	}, nil
}

func (s *Service) revenue(ctx context.Context, branch model.Branch, w model.Window) (model.RevenueBreakdown, error) {
	patients, err := s.patients.Find(ctx, model.PatientQuery{Branch: branch, TransactionsIn: &w})
	if err != nil {
		return model.RevenueBreakdown{}, err
	}
	return report.Revenue(patients, w, s.loc), nil
}

// Cards derives the metric cards and the patient list filter each one opens.
// Surgery Ready and Today's Surgeries filter on status alone.
func Cards(counts model.DashboardCounts, amountReceived float64, req *model.DashboardRequest) []model.MetricCard {
	from, to := req.From, req.To
	ranged := func(status model.Status) model.CardFilter {
		return model.CardFilter{Status: status, Branch: req.Branch, From: &from, To: &to}
	}

	return []model.MetricCard{
		{Key: CardAppointments, Title: "Appointments", Value: float64(counts.Appointments), Filter: ranged("")},
		{Key: CardVisited, Title: "Visited", Value: float64(counts.Visited), Filter: ranged(model.StatusCounselling)},
		{Key: CardSurgeryReady, Title: "Surgery Ready", Value: float64(counts.SurgeryConfirmations), Filter: model.CardFilter{Status: model.StatusReady}},
		{Key: CardTodaysSurgeries, Title: "Today's Surgeries", Value: float64(counts.Surgeries), Filter: model.CardFilter{Status: model.StatusPostOp}},
		{Key: CardAmountReceived, Title: "Amount Received", Value: amountReceived, Filter: ranged("")},
	}
}

func validBranch(b model.Branch) bool {
	switch b {
	case model.BranchDelhi, model.BranchMumbai, model.BranchHyderabad:
		return true
	}
	return false
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", what, err)
	}
	return nil
}
