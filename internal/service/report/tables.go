package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jwalitptl/hairline-crm/internal/model"
)

// tableBuilder renders one report type. Patients are already scoped; w is the
// reporting window, used by reports that look at individual transactions.
type tableBuilder func(patients []*model.Patient, dir Directory, w model.Window, loc *time.Location) *model.Table

var builders = map[string]tableBuilder{
	model.ReportPatients:     patientsTable,
	model.ReportCounsellors:  counsellorsTable,
	model.ReportAgents:       agentsTable,
	model.ReportImplanters:   implantersTable,
	model.ReportTechnicians:  techniciansTable,
	model.ReportTechniques:   techniquesTable,
	model.ReportTransactions: transactionsTable,
	model.ReportStatus:       statusTable,
}

func patientsTable(patients []*model.Patient, dir Directory, _ model.Window, loc *time.Location) *model.Table {
	sorted := append([]*model.Patient(nil), patients...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Ops.CreatedAt.After(sorted[j].Ops.CreatedAt)
	})

	t := &model.Table{
		Title: "Patients",
		Columns: []string{
			"Name", "Phone", "Branch", "Visit Date", "Status", "Agent", "Counsellor",
			"Technique", "Grafts Implanted", "Total Quoted", "Amount Received", "Pending Amount", "Created At",
		},
		Rows: make([][]interface{}, 0, len(sorted)),
	}
	for _, p := range sorted {
		t.Rows = append(t.Rows, []interface{}{
			p.Personal.Name,
			p.Personal.Phone,
			string(p.Personal.Location),
			formatDate(p.Personal.VisitDate, loc),
			string(p.Ops.Status),
			dir.Name(p.Personal.Reference),
			dir.Name(p.Counselling.Counsellor),
			string(p.Technique()),
			p.Surgery.GraftsImplanted,
			p.Payments.TotalQuoted,
			p.Payments.AmountReceived,
			p.Payments.PendingAmount,
			formatDate(&p.Ops.CreatedAt, loc),
		})
	}
	return t
}

func counsellorsTable(patients []*model.Patient, dir Directory, _ model.Window, _ *time.Location) *model.Table {
	stats := CounsellorPerformance(patients, dir)
	t := &model.Table{
		Title:   "Counsellor Performance",
		Columns: []string{"Counsellor", "Total Patients", "Converted Patients", "Conversion Rate (%)", "Total Revenue"},
		Rows:    make([][]interface{}, 0, len(stats)),
	}
	for _, s := range stats {
		t.Rows = append(t.Rows, []interface{}{s.Name, s.TotalPatients, s.ConvertedPatients, s.ConversionRate, s.TotalRevenue})
	}
	return t
}

func agentsTable(patients []*model.Patient, dir Directory, _ model.Window, _ *time.Location) *model.Table {
	stats := AgentPerformance(patients, dir)
	t := &model.Table{
		Title:   "Agent Performance",
		Columns: []string{"Agent", "Total Patients", "Total Revenue", "Average Revenue", "Techniques"},
		Rows:    make([][]interface{}, 0, len(stats)),
	}
	for _, s := range stats {
		t.Rows = append(t.Rows, []interface{}{s.Name, s.TotalPatients, s.TotalRevenue, s.AverageRevenue, formatTally(s.Techniques)})
	}
	return t
}

func implantersTable(patients []*model.Patient, dir Directory, _ model.Window, _ *time.Location) *model.Table {
	return surgeonTable("Implanter Performance", "Implanter", ImplanterPerformance(patients, dir))
}

func techniciansTable(patients []*model.Patient, dir Directory, _ model.Window, _ *time.Location) *model.Table {
	return surgeonTable("Technician Performance", "Senior Technician", TechnicianPerformance(patients, dir))
}

func surgeonTable(title, role string, stats []model.SurgeonStat) *model.Table {
	t := &model.Table{
		Title:   title,
		Columns: []string{role, "Total Patients", "Total Revenue", "Total Grafts", "Average Grafts"},
		Rows:    make([][]interface{}, 0, len(stats)),
	}
	for _, s := range stats {
		t.Rows = append(t.Rows, []interface{}{s.Name, s.TotalPatients, s.TotalRevenue, s.TotalGrafts, s.AverageGrafts})
	}
	return t
}

func techniquesTable(patients []*model.Patient, _ Directory, _ model.Window, _ *time.Location) *model.Table {
	stats := TechniquePerformance(patients)
	t := &model.Table{
		Title:   "Technique Summary",
		Columns: []string{"Technique", "Total Patients", "Total Revenue", "Total Grafts"},
		Rows:    make([][]interface{}, 0, len(stats)),
	}
	for _, s := range stats {
		t.Rows = append(t.Rows, []interface{}{s.Technique, s.TotalPatients, s.TotalRevenue, s.TotalGrafts})
	}
	return t
}

type txRow struct {
	patient *model.Patient
	tx      model.Transaction
}

func transactionsTable(patients []*model.Patient, _ Directory, w model.Window, loc *time.Location) *model.Table {
	var rows []txRow
	for _, p := range patients {
		for _, tx := range p.Payments.Transactions {
			if w.Contains(tx.Date) {
				rows = append(rows, txRow{patient: p, tx: tx})
			}
		}
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].tx.Date.Before(rows[j].tx.Date) })

	t := &model.Table{
		Title:   "Transactions",
		Columns: []string{"Date", "Patient", "Phone", "Branch", "Method", "Technique", "Amount"},
		Rows:    make([][]interface{}, 0, len(rows)),
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []interface{}{
			formatDate(&r.tx.Date, loc),
			r.patient.Personal.Name,
			r.patient.Personal.Phone,
			string(r.patient.Personal.Location),
			string(r.tx.Method),
			string(r.patient.Technique()),
			r.tx.Amount,
		})
	}
	return t
}

func statusTable(patients []*model.Patient, _ Directory, _ model.Window, _ *time.Location) *model.Table {
	stats := StatusCounts(patients)
	t := &model.Table{
		Title:   "Patient Status",
		Columns: []string{"Status", "Patients"},
		Rows:    make([][]interface{}, 0, len(stats)),
	}
	for _, s := range stats {
		t.Rows = append(t.Rows, []interface{}{string(s.Status), s.Count})
	}
	return t
}

func formatDate(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.In(loc).Format(dateLayout)
}

// formatTally renders {"FUE": 2, "DHI": 1} as "DHI: 1, FUE: 2".
func formatTally(tally map[string]int) string {
	keys := make([]string, 0, len(tally))
	for k := range tally {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s: %d", k, tally[k])
	}
	return strings.Join(parts, ", ")
}
