// Package intake implements the multi-step patient form: a draft of the six
// patient sections edited through a fixed set of actions and submitted to the
// patient service in one request.
package intake

import (
	"github.com/jwalitptl/hairline-crm/internal/model"
)

type Step int

const (
	StepPersonal Step = iota
	StepCounselling
	StepPayments
	StepMedical
	StepSurgery
	StepDocuments
)

// Steps is the order the form walks through.
var Steps = []Step{StepPersonal, StepCounselling, StepPayments, StepMedical, StepSurgery, StepDocuments}

var stepNames = map[Step]string{
	StepPersonal:    "personal",
	StepCounselling: "counselling",
	StepPayments:    "payments",
	StepMedical:     "medical",
	StepSurgery:     "surgery",
	StepDocuments:   "documents",
}

func (s Step) String() string {
	if name, ok := stepNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Step) Valid() bool {
	return s >= StepPersonal && s <= StepDocuments
}

// ParseStep maps a section name onto its step.
func ParseStep(name string) (Step, bool) {
	for s, n := range stepNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// Draft is the in-progress patient. Each step edits one section; moving between
// steps never touches the others.
type Draft struct {
	Personal    model.Personal    `json:"personal"`
	Medical     model.Medical     `json:"medical"`
	Counselling model.Counselling `json:"counselling"`
	Surgery     model.Surgery     `json:"surgery"`
	Payments    model.Payments    `json:"payments"`
	Documents   model.Documents   `json:"documents"`
}

func NewDraft() Draft {
	d := Draft{}
	d.normalize()
	return d
}

// DraftFromPatient loads a stored patient for editing.
func DraftFromPatient(p *model.Patient) Draft {
	d := Draft{
		Personal:    p.Personal,
		Medical:     p.Medical,
		Counselling: p.Counselling,
		Surgery:     p.Surgery,
		Payments:    p.Payments,
		Documents:   p.Documents,
	}
	d = d.Clone()
	d.normalize()
	return d
}

// Patient converts the draft into the document sent to the patient service.
func (d Draft) Patient() *model.Patient {
	c := d.Clone()
	p := &model.Patient{
		Personal:    c.Personal,
		Medical:     c.Medical,
		Counselling: c.Counselling,
		Surgery:     c.Surgery,
		Payments:    c.Payments,
		Documents:   c.Documents,
	}
	p.Payments.RecomputePending()
	return p
}

// Clone deep-copies the draft so list edits never alias.
func (d Draft) Clone() Draft {
	c := d
	c.Personal.VisitDate = cloneTime(d.Personal.VisitDate)
	c.Surgery.SurgeryDate = cloneTime(d.Surgery.SurgeryDate)
	c.Counselling.Medicines = append([]string{}, d.Counselling.Medicines...)
	c.Payments.Transactions = append([]model.Transaction{}, d.Payments.Transactions...)
	c.Documents.Images = append([]string{}, d.Documents.Images...)
	c.Documents.SurgeryForm = append([]string{}, d.Documents.SurgeryForm...)
	c.Documents.ConsultForm = append([]string{}, d.Documents.ConsultForm...)
	return c
}

func (d *Draft) normalize() {
	if d.Counselling.Medicines == nil {
		d.Counselling.Medicines = []string{}
	}
	if d.Payments.Transactions == nil {
		d.Payments.Transactions = []model.Transaction{}
	}
	if d.Documents.Images == nil {
		d.Documents.Images = []string{}
	}
	if d.Documents.SurgeryForm == nil {
		d.Documents.SurgeryForm = []string{}
	}
	if d.Documents.ConsultForm == nil {
		d.Documents.ConsultForm = []string{}
	}
	d.Payments.RecomputePending()
}
