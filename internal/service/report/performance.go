package report

import (
	"sort"
	"time"

	"github.com/jwalitptl/hairline-crm/internal/model"
)

// AgentPerformance groups patients by referring agent, highest revenue first.
// Techniques count both the suggested and the performed technique.
func AgentPerformance(patients []*model.Patient, dir Directory) []model.AgentStat {
	groups := groupBy(patients, func(p *model.Patient) string { return p.Personal.Reference })

	stats := make([]model.AgentStat, 0, len(groups))
	for _, g := range groups {
		techniques := make(map[string]int)
		for _, p := range g.patients {
			if t := p.Counselling.TechniqueSuggested; t != "" {
				techniques[string(t)]++
			}
			if t := p.Surgery.Technique; t != "" {
				techniques[string(t)]++
			}
		}
		total := revenue(g.patients)
		stats = append(stats, model.AgentStat{
			Agent:          g.key,
			Name:           dir.Name(g.key),
			TotalPatients:  len(g.patients),
			TotalRevenue:   total,
			AverageRevenue: average(total, len(g.patients)),
			Techniques:     techniques,
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalRevenue != stats[j].TotalRevenue {
			return stats[i].TotalRevenue > stats[j].TotalRevenue
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// CounsellorPerformance groups patients by counsellor. A patient counts as
// converted once they are ready for surgery.
func CounsellorPerformance(patients []*model.Patient, dir Directory) []model.CounsellorStat {
	groups := groupBy(patients, func(p *model.Patient) string { return p.Counselling.Counsellor })

	stats := make([]model.CounsellorStat, 0, len(groups))
	for _, g := range groups {
		converted := 0
		for _, p := range g.patients {
			if p.Counselling.ReadyForSurgery {
				converted++
			}
		}
		stats = append(stats, model.CounsellorStat{
			Counsellor:        g.key,
			Name:              dir.Name(g.key),
			TotalPatients:     len(g.patients),
			ConvertedPatients: converted,
			ConversionRate:    percent(converted, len(g.patients)),
			TotalRevenue:      revenue(g.patients),
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalPatients != stats[j].TotalPatients {
			return stats[i].TotalPatients > stats[j].TotalPatients
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// ImplanterPerformance credits each surgery to the right-side implanter, or the
// left-side one when no right-side implanter is recorded.
func ImplanterPerformance(patients []*model.Patient, dir Directory) []model.SurgeonStat {
	return surgeonPerformance(patients, dir, (*model.Patient).Implanter)
}

func TechnicianPerformance(patients []*model.Patient, dir Directory) []model.SurgeonStat {
	return surgeonPerformance(patients, dir, func(p *model.Patient) string { return p.Surgery.SeniorTech })
}

func surgeonPerformance(patients []*model.Patient, dir Directory, key func(*model.Patient) string) []model.SurgeonStat {
	groups := groupBy(patients, key)

	stats := make([]model.SurgeonStat, 0, len(groups))
	for _, g := range groups {
		total := grafts(g.patients)
		stats = append(stats, model.SurgeonStat{
			Staff:         g.key,
			Name:          dir.Name(g.key),
			TotalPatients: len(g.patients),
			TotalRevenue:  revenue(g.patients),
			TotalGrafts:   total,
			AverageGrafts: averageInt(total, len(g.patients)),
		})
	}

	sort.SliceStable(stats, func(i, j int) bool {
		if stats[i].TotalGrafts != stats[j].TotalGrafts {
			return stats[i].TotalGrafts > stats[j].TotalGrafts
		}
		return stats[i].Name < stats[j].Name
	})
	return stats
}

// TechniquePerformance groups patients by the technique they had, or were
// offered when surgery has not recorded one.
func TechniquePerformance(patients []*model.Patient) []model.TechniqueStat {
	groups := groupBy(patients, func(p *model.Patient) string { return string(p.Technique()) })

	stats := make([]model.TechniqueStat, 0, len(groups))
	for _, g := range groups {
		stats = append(stats, model.TechniqueStat{
			Technique:     g.key,
			TotalPatients: len(g.patients),
			TotalRevenue:  revenue(g.patients),
			TotalGrafts:   grafts(g.patients),
		})
	}
	sort.SliceStable(stats, func(i, j int) bool { return stats[i].TotalRevenue > stats[j].TotalRevenue })
	return stats
}

// StatusCounts returns one entry per status in pipeline order, including
// statuses nobody is in.
func StatusCounts(patients []*model.Patient) []model.StatusStat {
	counts := make(map[model.Status]int, len(model.Statuses))
	for _, p := range patients {
		st := p.Ops.Status
		if st == "" {
			st = model.StatusNew
		}
		counts[st]++
	}
	stats := make([]model.StatusStat, 0, len(model.Statuses))
	for _, st := range model.Statuses {
		stats = append(stats, model.StatusStat{Status: st, Count: counts[st]})
	}
	return stats
}

// Revenue sums the transactions dated inside w by payment method, technique and
// day. Days are calendar days in loc. When w is bounded on both sides every day
// of it is present in ByDay, with zero for days without payments.
func Revenue(patients []*model.Patient, w model.Window, loc *time.Location) model.RevenueBreakdown {
	if loc == nil {
		loc = time.UTC
	}
	byMethod := newBuckets()
	byTechnique := newBuckets()
	byDay := newBuckets()

	var total float64
	for _, p := range patients {
		technique := string(p.Technique())
		for _, tx := range p.Payments.Transactions {
			if !w.Contains(tx.Date) {
				continue
			}
			total += tx.Amount
			byMethod.add(string(tx.Method), tx.Amount)
			byTechnique.add(technique, tx.Amount)
			byDay.add(DayKey(tx.Date, loc), tx.Amount)
		}
	}

	if !w.From.IsZero() && !w.To.IsZero() {
		for _, day := range Days(w.From, w.To, loc) {
			byDay.ensure(day)
		}
	}

	days := byDay.list()
	sort.Slice(days, func(i, j int) bool { return days[i].Key < days[j].Key })
	methods := byMethod.list()
	sortBuckets(methods)
	techniques := byTechnique.list()
	sortBuckets(techniques)

	return model.RevenueBreakdown{
		Total:       round2(total),
		ByMethod:    methods,
		ByTechnique: techniques,
		ByDay:       days,
	}
}

// Summary computes the dashboard counters. appointments are the patients whose
// visit date falls in the range, surgeries those whose surgery date does.
func Summary(appointments, surgeries []*model.Patient) model.DashboardCounts {
	counts := model.DashboardCounts{
		Appointments: len(appointments),
		Surgeries:    len(surgeries),
	}
	for _, p := range appointments {
		if p.Counselling.Counsellor != "" {
			counts.Visited++
		}
		if p.Counselling.ReadyForSurgery {
			counts.SurgeryConfirmations++
		}
	}
	return counts
}

// DayKey formats t as the calendar day it falls on in loc.
func DayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// Days lists every calendar day from from to to inclusive.
func Days(from, to time.Time, loc *time.Location) []string {
	start := startOfDay(from.In(loc))
	end := startOfDay(to.In(loc))
	var days []string
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d.Format("2006-01-02"))
	}
	return days
}

type buckets struct {
	index map[string]int
	items []model.RevenueBucket
}

func newBuckets() *buckets {
	return &buckets{index: make(map[string]int)}
}

func (b *buckets) ensure(key string) int {
	i, ok := b.index[key]
	if !ok {
		i = len(b.items)
		b.index[key] = i
		b.items = append(b.items, model.RevenueBucket{Key: key})
	}
	return i
}

func (b *buckets) add(key string, amount float64) {
	if key == "" {
		return
	}
	i := b.ensure(key)
	b.items[i].Amount += amount
	b.items[i].Transactions++
}

func (b *buckets) list() []model.RevenueBucket {
	out := make([]model.RevenueBucket, len(b.items))
	for i, item := range b.items {
		item.Amount = round2(item.Amount)
		out[i] = item
	}
	return out
}
