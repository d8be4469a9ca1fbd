// Package report computes grouped statistics over patient records. Every
// endpoint that summarises patients (agents, employees, reports, dashboard)
// goes through the primitives in this package.
package report

import (
	"math"
	"sort"
	"strings"

	"github.com/jwalitptl/hairline-crm/internal/model"
)

// Scope selects the patients a report covers. Zero fields do not constrain.
type Scope struct {
	Window    model.Window
	Branch    model.Branch
	Staff     string
	Technique model.Technique
	Status    model.Status
}

// Query is the store-side part of the scope: branch and creation window.
func (s Scope) Query() model.PatientQuery {
	return model.PatientQuery{
		Branch:      s.Branch,
		CreatedFrom: s.Window.From,
		CreatedTo:   s.Window.To,
	}
}

// Filter applies the staff, technique and status parts of the scope, which the
// store query does not express.
func (s Scope) Filter(patients []*model.Patient, dir Directory) []*model.Patient {
	if s.Staff == "" && s.Technique == "" && s.Status == "" {
		return patients
	}
	out := make([]*model.Patient, 0, len(patients))
	for _, p := range patients {
		if s.Status != "" && p.Ops.Status != s.Status {
			continue
		}
		if s.Technique != "" && p.Technique() != s.Technique && p.Counselling.TechniqueSuggested != s.Technique {
			continue
		}
		if s.Staff != "" && !dir.References(p, s.Staff) {
			continue
		}
		out = append(out, p)
	}
	return out
}

// group is one bucket produced by groupBy.
type group struct {
	key      string
	patients []*model.Patient
}

// groupBy buckets patients by key. Patients with an empty key are dropped;
// buckets come back in first-seen order.
func groupBy(patients []*model.Patient, key func(*model.Patient) string) []group {
	index := make(map[string]int)
	var groups []group
	for _, p := range patients {
		k := strings.TrimSpace(key(p))
		if k == "" {
			continue
		}
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, group{key: k})
		}
		groups[i].patients = append(groups[i].patients, p)
	}
	return groups
}

func revenue(patients []*model.Patient) float64 {
	var sum float64
	for _, p := range patients {
		sum += p.Payments.AmountReceived
	}
	return sum
}

func grafts(patients []*model.Patient) int {
	var sum int
	for _, p := range patients {
		sum += p.Surgery.GraftsImplanted
	}
	return sum
}

// percent returns n/d as a percentage rounded to two decimals, 0 when d is 0.
func percent(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return round2(float64(n) / float64(d) * 100)
}

// average returns sum/n rounded to two decimals, 0 when n is 0.
func average(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func averageInt(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.Round(float64(sum) / float64(n)))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func sortBuckets(b []model.RevenueBucket) {
	sort.SliceStable(b, func(i, j int) bool {
		if b[i].Amount != b[j].Amount {
			return b[i].Amount > b[j].Amount
		}
		return b[i].Key < b[j].Key
	})
}
