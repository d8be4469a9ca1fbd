package report

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository"
	apperrors "github.com/jwalitptl/hairline-crm/pkg/errors"
	"github.com/jwalitptl/hairline-crm/pkg/metrics"
)

type Service struct {
	patients repository.PatientRepository
	users    repository.UserRepository
	metrics  *metrics.Metrics
	loc      *time.Location
	now      func() time.Time
}

func NewService(patients repository.PatientRepository, users repository.UserRepository, m *metrics.Metrics, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{
		patients: patients,
		users:    users,
		metrics:  m,
		loc:      loc,
		now:      time.Now,
	}
}

// Location is the time zone reports bucket days in.
func (s *Service) Location() *time.Location {
	return s.loc
}

// load fetches the patients matching q together with the staff directory.
func (s *Service) load(ctx context.Context, q model.PatientQuery) ([]*model.Patient, Directory, error) {
	var (
		patients []*model.Patient
		users    []*model.User
	)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		patients, err = s.patients.Find(ctx, q)
		if err != nil {
			return fmt.Errorf("failed to load patients: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		users, err = s.users.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to load users: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, apperrors.Internal(err)
	}
	return patients, NewDirectory(users), nil
}

// Agents returns agent performance for patients created in the rolling window
// named by filter.
func (s *Service) Agents(ctx context.Context, filter string) ([]model.AgentStat, error) {
	w, err := AgentWindow(filter, s.now())
	if err != nil {
		return nil, err
	}
	patients, dir, err := s.load(ctx, model.PatientQuery{CreatedFrom: w.From, CreatedTo: w.To})
	if err != nil {
		return nil, err
	}
	return AgentPerformance(patients, dir), nil
}

// Employees returns all-time counsellor, implanter and technician performance.
func (s *Service) Employees(ctx context.Context) (*model.EmployeeOverview, error) {
	patients, dir, err := s.load(ctx, model.PatientQuery{})
	if err != nil {
		return nil, err
	}

	overview := &model.EmployeeOverview{
		Counsellors: CounsellorPerformance(patients, dir),
		Implanters:  ImplanterPerformance(patients, dir),
		Technicians: TechnicianPerformance(patients, dir),
	}
	totals := &overview.Totals
	totals.TotalPatients = len(patients)
	totals.Counsellors = len(overview.Counsellors)
	totals.Implanters = len(overview.Implanters)
	totals.Technicians = len(overview.Technicians)
	for _, p := range patients {
		if p.Counselling.ReadyForSurgery {
			totals.ConvertedPatients++
		}
		if p.Surgery.SurgeryDate != nil {
			totals.Surgeries++
		}
		totals.TotalRevenue += p.Payments.AmountReceived
		totals.TotalGrafts += p.Surgery.GraftsImplanted
	}
	return overview, nil
}

// Revenue breaks down payments received in w for one branch, or all branches
// when branch is empty.
func (s *Service) Revenue(ctx context.Context, w model.Window, branch model.Branch) (model.RevenueBreakdown, error) {
	patients, err := s.patients.Find(ctx, model.PatientQuery{Branch: branch, TransactionsIn: &w})
	if err != nil {
		return model.RevenueBreakdown{}, apperrors.Internal(fmt.Errorf("failed to load transactions: %w", err))
	}
	return Revenue(patients, w, s.loc), nil
}

// Report builds the table for req. Patient reports cover patients created in
// the period; the transactions report covers payments dated in it.
func (s *Service) Report(ctx context.Context, req *model.ReportRequest) (*model.Table, error) {
	build, ok := builders[req.Type]
	if !ok {
		return nil, apperrors.BadRequest(fmt.Sprintf("unknown report type %q", req.Type), nil)
	}

	scope, err := s.scope(req)
	if err != nil {
		return nil, err
	}

	q := scope.Query()
	if req.Type == model.ReportTransactions {
		q.CreatedFrom, q.CreatedTo = time.Time{}, time.Time{}
		if !scope.Window.From.IsZero() || !scope.Window.To.IsZero() {
			w := scope.Window
			q.TransactionsIn = &w
		}
	}

	patients, dir, err := s.load(ctx, q)
	if err != nil {
		return nil, err
	}
	table := build(scope.Filter(patients, dir), dir, scope.Window, s.loc)

	if s.metrics != nil {
		format := req.Format
		if format == "" {
			format = "json"
		}
		s.metrics.ReportsGenerated.WithLabelValues(req.Type, format).Inc()
	}
	return table, nil
}

func (s *Service) scope(req *model.ReportRequest) (Scope, error) {
	w, err := ParsePeriod(req.Period, req.StartDate, req.EndDate, s.now(), s.loc)
	if err != nil {
		return Scope{}, err
	}
	scope := Scope{
		Window: w,
		Branch: req.Branch,
		Staff:  req.StaffFilter,
	}
	if req.TechniqueFilter != "" {
		scope.Technique = model.Technique(req.TechniqueFilter)
	}
	if req.StatusFilter != "" {
		st, err := model.ParseStatus(req.StatusFilter)
		if err != nil {
			return Scope{}, apperrors.BadRequest(err.Error(), err)
		}
		scope.Status = st
	}
	return scope, nil
}
