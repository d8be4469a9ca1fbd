package intake

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jwalitptl/hairline-crm/internal/model"
)

// field is one editable scalar of the draft. Values arrive as form input
// strings; an empty string clears optional values.
type field struct {
	step    Step
	options []string
	set     func(d *Draft, v string) error
}

var (
	genderOptions     = []string{"MALE", "FEMALE", "OTHERS"}
	branchOptions     = []string{"Delhi", "Mumbai", "Hyderabad"}
	techniqueOptions  = []string{"FUE", "INDIAN DHI", "DHI", "HYBRID"}
	historyOptions    = []string{"NONE", "DIABETES", "HYPERTENSION", "THYROID", "CARDIAC", "OTHER"}
	bloodGroupOptions = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	methodOptions     = []string{"Cash", "UPI", "Card", "Bank Transfer", "Cheque", "EMI"}
)

var fields = map[string]field{
	"personal.name":      text(StepPersonal, func(d *Draft) *string { return &d.Personal.Name }),
	"personal.phone":     text(StepPersonal, func(d *Draft) *string { return &d.Personal.Phone }),
	"personal.email":     text(StepPersonal, func(d *Draft) *string { return &d.Personal.Email }),
	"personal.age":       integer(StepPersonal, func(d *Draft) *int { return &d.Personal.Age }),
	"personal.gender":    choice(StepPersonal, genderOptions, func(d *Draft, v string) { d.Personal.Gender = model.Gender(v) }),
	"personal.location":  choice(StepPersonal, branchOptions, func(d *Draft, v string) { d.Personal.Location = model.Branch(v) }),
	"personal.address":   text(StepPersonal, func(d *Draft) *string { return &d.Personal.Address }),
	"personal.visitDate": date(StepPersonal, func(d *Draft) **time.Time { return &d.Personal.VisitDate }),
	"personal.reference": text(StepPersonal, func(d *Draft) *string { return &d.Personal.Reference }),
	"personal.package":   text(StepPersonal, func(d *Draft) *string { return &d.Personal.Package }),

	"medical.allergies":      text(StepMedical, func(d *Draft) *string { return &d.Medical.Allergies }),
	"medical.medicalHistory": choice(StepMedical, historyOptions, func(d *Draft, v string) { d.Medical.MedicalHistory = model.MedicalHistory(v) }),
	"medical.bloodGroup":     choice(StepMedical, bloodGroupOptions, func(d *Draft, v string) { d.Medical.BloodGroup = model.BloodGroup(v) }),
	"medical.sugar":          text(StepMedical, func(d *Draft) *string { return &d.Medical.Sugar }),
	"medical.bp":             text(StepMedical, func(d *Draft) *string { return &d.Medical.BP }),
	"medical.pulse":          text(StepMedical, func(d *Draft) *string { return &d.Medical.Pulse }),
	"medical.weight":         text(StepMedical, func(d *Draft) *string { return &d.Medical.Weight }),

	"counselling.counsellor":         text(StepCounselling, func(d *Draft) *string { return &d.Counselling.Counsellor }),
	"counselling.techniqueSuggested": choice(StepCounselling, techniqueOptions, func(d *Draft, v string) { d.Counselling.TechniqueSuggested = model.Technique(v) }),
	"counselling.graftsSuggested":    integer(StepCounselling, func(d *Draft) *int { return &d.Counselling.GraftsSuggested }),
	"counselling.packageQuoted":      amount(StepCounselling, func(d *Draft) *float64 { return &d.Counselling.PackageQuoted }),
	"counselling.readyForSurgery":    boolean(StepCounselling, func(d *Draft) *bool { return &d.Counselling.ReadyForSurgery }),
	"counselling.notes":              text(StepCounselling, func(d *Draft) *string { return &d.Counselling.Notes }),

	"surgery.surgeryDate":     date(StepSurgery, func(d *Draft) **time.Time { return &d.Surgery.SurgeryDate }),
	"surgery.technique":       choice(StepSurgery, techniqueOptions, func(d *Draft, v string) { d.Surgery.Technique = model.Technique(v) }),
	"surgery.graftsPlanned":   integer(StepSurgery, func(d *Draft) *int { return &d.Surgery.GraftsPlanned }),
	"surgery.graftsImplanted": integer(StepSurgery, func(d *Draft) *int { return &d.Surgery.GraftsImplanted }),
	"surgery.donorCondition":  text(StepSurgery, func(d *Draft) *string { return &d.Surgery.DonorCondition }),
	"surgery.doctor":          text(StepSurgery, func(d *Draft) *string { return &d.Surgery.Doctor }),
	"surgery.seniorTech":      text(StepSurgery, func(d *Draft) *string { return &d.Surgery.SeniorTech }),
	"surgery.implanterRight":  text(StepSurgery, func(d *Draft) *string { return &d.Surgery.ImplanterRight }),
	"surgery.implanterLeft":   text(StepSurgery, func(d *Draft) *string { return &d.Surgery.ImplanterLeft }),
	"surgery.graftingPerson":  text(StepSurgery, func(d *Draft) *string { return &d.Surgery.GraftingPerson }),
	"surgery.helper":          text(StepSurgery, func(d *Draft) *string { return &d.Surgery.Helper }),

	"payments.totalQuoted":    amount(StepPayments, func(d *Draft) *float64 { return &d.Payments.TotalQuoted }),
	"payments.amountReceived": amount(StepPayments, func(d *Draft) *float64 { return &d.Payments.AmountReceived }),
	"payments.medicineAmount": amount(StepPayments, func(d *Draft) *float64 { return &d.Payments.MedicineAmount }),
}

// Fields lists the editable field paths of a step, sorted.
func Fields(step Step) []string {
	var out []string
	for path, f := range fields {
		if f.step == step {
			out = append(out, path)
		}
	}
	sort.Strings(out)
	return out
}

// Options returns the allowed values of a select field, or nil for free input.
func Options(path string) []string {
	if path == "payments.transactions.method" {
		return methodOptions
	}
	return fields[path].options
}

func text(step Step, ref func(d *Draft) *string) field {
	return field{step: step, set: func(d *Draft, v string) error {
		*ref(d) = strings.TrimSpace(v)
		return nil
	}}
}

func integer(step Step, ref func(d *Draft) *int) field {
	return field{step: step, set: func(d *Draft, v string) error {
		if v == "" {
			*ref(d) = 0
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return fmt.Errorf("%q is not a whole number", v)
		}
		*ref(d) = n
		return nil
	}}
}

func amount(step Step, ref func(d *Draft) *float64) field {
	return field{step: step, set: func(d *Draft, v string) error {
		if v == "" {
			*ref(d) = 0
			return nil
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || n < 0 {
			return fmt.Errorf("%q is not a valid amount", v)
		}
		*ref(d) = n
		return nil
	}}
}

func boolean(step Step, ref func(d *Draft) *bool) field {
	return field{step: step, set: func(d *Draft, v string) error {
		if v == "" {
			*ref(d) = false
			return nil
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%q is not true or false", v)
		}
		*ref(d) = b
		return nil
	}}
}

func date(step Step, ref func(d *Draft) **time.Time) field {
	return field{step: step, set: func(d *Draft, v string) error {
		if v == "" {
			*ref(d) = nil
			return nil
		}
		t, err := ParseDate(v)
		if err != nil {
			return err
		}
		*ref(d) = &t
		return nil
	}}
}

func choice(step Step, options []string, set func(d *Draft, v string)) field {
	return field{step: step, options: options, set: func(d *Draft, v string) error {
		if v != "" && !contains(options, v) {
			return fmt.Errorf("%q must be one of [%s]", v, strings.Join(options, ", "))
		}
		set(d, v)
		return nil
	}}
}

// ParseDate accepts a form date (YYYY-MM-DD) or a full RFC 3339 timestamp.
func ParseDate(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a date (YYYY-MM-DD)", v)
	}
	return t, nil
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
