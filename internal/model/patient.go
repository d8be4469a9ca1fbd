package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Gender string

const (
	GenderMale   Gender = "MALE"
	GenderFemale Gender = "FEMALE"
	GenderOthers Gender = "OTHERS"
)

// Branch is the clinic location a patient is registered at.
type Branch string

const (
	BranchDelhi     Branch = "Delhi"
	BranchMumbai    Branch = "Mumbai"
	BranchHyderabad Branch = "Hyderabad"
)

type Technique string

const (
	TechniqueFUE       Technique = "FUE"
	TechniqueIndianDHI Technique = "INDIAN DHI"
	TechniqueDHI       Technique = "DHI"
	TechniqueHybrid    Technique = "HYBRID"
)

type MedicalHistory string

const (
	MedicalHistoryNone         MedicalHistory = "NONE"
	MedicalHistoryDiabetes     MedicalHistory = "DIABETES"
	MedicalHistoryHypertension MedicalHistory = "HYPERTENSION"
	MedicalHistoryThyroid      MedicalHistory = "THYROID"
	MedicalHistoryCardiac      MedicalHistory = "CARDIAC"
	MedicalHistoryOther        MedicalHistory = "OTHER"
)

type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "Cash"
	PaymentUPI          PaymentMethod = "UPI"
	PaymentCard         PaymentMethod = "Card"
	PaymentBankTransfer PaymentMethod = "Bank Transfer"
	PaymentCheque       PaymentMethod = "Cheque"
	PaymentEMI          PaymentMethod = "EMI"
)

// Patient is the single document a clinic keeps per person, mutated in place
// as they move from intake through counselling, payment and surgery.
type Patient struct {
	ID          primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	Personal    Personal           `json:"personal" bson:"personal"`
	Medical     Medical            `json:"medical" bson:"medical"`
	Counselling Counselling        `json:"counselling" bson:"counselling"`
	Surgery     Surgery            `json:"surgery" bson:"surgery"`
	Payments    Payments           `json:"payments" bson:"payments"`
	Documents   Documents          `json:"documents" bson:"documents"`
	Ops         Ops                `json:"ops" bson:"ops"`
}

type Personal struct {
	Name      string     `json:"name" bson:"name" validate:"required"`
	Phone     string     `json:"phone" bson:"phone" validate:"required"`
	Email     string     `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Age       int        `json:"age,omitempty" bson:"age,omitempty" validate:"gte=0,lte=130"`
	Gender    Gender     `json:"gender,omitempty" bson:"gender,omitempty" validate:"omitempty,oneof=MALE FEMALE OTHERS"`
	Location  Branch     `json:"location,omitempty" bson:"location,omitempty" validate:"omitempty,oneof=Delhi Mumbai Hyderabad"`
	Address   string     `json:"address,omitempty" bson:"address,omitempty"`
	VisitDate *time.Time `json:"visitDate,omitempty" bson:"visitDate,omitempty"`
	Reference string     `json:"reference,omitempty" bson:"reference,omitempty"`
	Package   string     `json:"package,omitempty" bson:"package,omitempty"`
}

type Medical struct {
	Allergies      string         `json:"allergies,omitempty" bson:"allergies,omitempty"`
	MedicalHistory MedicalHistory `json:"medicalHistory,omitempty" bson:"medicalHistory,omitempty" validate:"omitempty,oneof=NONE DIABETES HYPERTENSION THYROID CARDIAC OTHER"`
	BloodGroup     BloodGroup     `json:"bloodGroup,omitempty" bson:"bloodGroup,omitempty" validate:"omitempty,oneof=A+ A- B+ B- AB+ AB- O+ O-"`
	Sugar          string         `json:"sugar,omitempty" bson:"sugar,omitempty"`
	BP             string         `json:"bp,omitempty" bson:"bp,omitempty"`
	Pulse          string         `json:"pulse,omitempty" bson:"pulse,omitempty"`
	Weight         string         `json:"weight,omitempty" bson:"weight,omitempty"`
}

type Counselling struct {
	Counsellor         string    `json:"counsellor,omitempty" bson:"counsellor,omitempty"`
	TechniqueSuggested Technique `json:"techniqueSuggested,omitempty" bson:"techniqueSuggested,omitempty" validate:"omitempty,technique"`
	GraftsSuggested    int       `json:"graftsSuggested,omitempty" bson:"graftsSuggested,omitempty" validate:"gte=0"`
	PackageQuoted      float64   `json:"packageQuoted,omitempty" bson:"packageQuoted,omitempty" validate:"gte=0"`
	ReadyForSurgery    bool      `json:"readyForSurgery" bson:"readyForSurgery"`
	Notes              string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Medicines          []string  `json:"medicines" bson:"medicines"`
}

type Surgery struct {
	SurgeryDate     *time.Time `json:"surgeryDate,omitempty" bson:"surgeryDate,omitempty"`
	Technique       Technique  `json:"technique,omitempty" bson:"technique,omitempty" validate:"omitempty,technique"`
	GraftsPlanned   int        `json:"graftsPlanned,omitempty" bson:"graftsPlanned,omitempty" validate:"gte=0"`
	GraftsImplanted int        `json:"graftsImplanted,omitempty" bson:"graftsImplanted,omitempty" validate:"gte=0"`
	DonorCondition  string     `json:"donorCondition,omitempty" bson:"donorCondition,omitempty"`
	Doctor          string     `json:"doctor,omitempty" bson:"doctor,omitempty"`
	SeniorTech      string     `json:"seniorTech,omitempty" bson:"seniorTech,omitempty"`
	ImplanterRight  string     `json:"implanterRight,omitempty" bson:"implanterRight,omitempty"`
	ImplanterLeft   string     `json:"implanterLeft,omitempty" bson:"implanterLeft,omitempty"`
	GraftingPerson  string     `json:"graftingPerson,omitempty" bson:"graftingPerson,omitempty"`
	Helper          string     `json:"helper,omitempty" bson:"helper,omitempty"`
}

type Payments struct {
	TotalQuoted    float64       `json:"totalQuoted" bson:"totalQuoted" validate:"gte=0"`
	AmountReceived float64       `json:"amountReceived" bson:"amountReceived" validate:"gte=0"`
	PendingAmount  float64       `json:"pendingAmount" bson:"pendingAmount"`
	MedicineAmount float64       `json:"medicineAmount" bson:"medicineAmount" validate:"gte=0"`
	Transactions   []Transaction `json:"transactions" bson:"transactions" validate:"dive"`
}

type Transaction struct {
	Date   time.Time     `json:"date" bson:"date" validate:"required"`
	Method PaymentMethod `json:"method" bson:"method" validate:"required,oneof=Cash UPI Card 'Bank Transfer' Cheque EMI"`
	Amount float64       `json:"amount" bson:"amount" validate:"gt=0"`
}

type Documents struct {
	Images      []string `json:"images" bson:"images"`
	SurgeryForm []string `json:"surgeryForm" bson:"surgeryForm"`
	ConsultForm []string `json:"consultForm" bson:"consultForm"`
}

type Ops struct {
	CreatedBy string    `json:"createdBy,omitempty" bson:"createdBy,omitempty"`
	Status    Status    `json:"status" bson:"status"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Technique returns the performed technique, falling back to the one suggested
// at counselling when surgery has not recorded one yet.
func (p *Patient) Technique() Technique {
	if p.Surgery.Technique != "" {
		return p.Surgery.Technique
	}
	return p.Counselling.TechniqueSuggested
}

// Implanter returns the implanter credited for the surgery.
func (p *Patient) Implanter() string {
	if p.Surgery.ImplanterRight != "" {
		return p.Surgery.ImplanterRight
	}
	return p.Surgery.ImplanterLeft
}

// RecomputePending derives the pending amount from the quote and receipts.
func (p *Payments) RecomputePending() {
	p.PendingAmount = p.TotalQuoted - p.AmountReceived
}

// StoredPrecision is the resolution the store keeps times at.
const StoredPrecision = time.Millisecond

// TruncateTimes rounds every date on the document down to StoredPrecision, so a
// write returns the same values a later read does.
func (p *Patient) TruncateTimes() {
	if p.Personal.VisitDate != nil {
		t := p.Personal.VisitDate.Truncate(StoredPrecision)
		p.Personal.VisitDate = &t
	}
	if p.Surgery.SurgeryDate != nil {
		t := p.Surgery.SurgeryDate.Truncate(StoredPrecision)
		p.Surgery.SurgeryDate = &t
	}
	for i := range p.Payments.Transactions {
		p.Payments.Transactions[i].Date = p.Payments.Transactions[i].Date.Truncate(StoredPrecision)
	}
	p.Ops.CreatedAt = p.Ops.CreatedAt.Truncate(StoredPrecision)
	p.Ops.UpdatedAt = p.Ops.UpdatedAt.Truncate(StoredPrecision)
}

// Normalize replaces nil slices with empty ones so stored documents and API
// responses always carry arrays.
func (p *Patient) Normalize() {
	if p.Counselling.Medicines == nil {
		p.Counselling.Medicines = []string{}
	}
	if p.Payments.Transactions == nil {
		p.Payments.Transactions = []Transaction{}
	}
	if p.Documents.Images == nil {
		p.Documents.Images = []string{}
	}
	if p.Documents.SurgeryForm == nil {
		p.Documents.SurgeryForm = []string{}
	}
	if p.Documents.ConsultForm == nil {
		p.Documents.ConsultForm = []string{}
	}
	if p.Ops.Status == "" {
		p.Ops.Status = StatusNew
	}
}

// PatientFilters narrows the patient list endpoint.
type PatientFilters struct {
	Location Branch `form:"location"`
	Status   Status `form:"status"`
	Limit    int64  `form:"-"`
}

// PatientQuery selects documents for the reporting engine. Zero values do not
// constrain the result.
type PatientQuery struct {
	Branch         Branch
	CreatedFrom    time.Time
	CreatedTo      time.Time
	VisitFrom      time.Time
	VisitTo        time.Time
	SurgeryFrom    time.Time
	SurgeryTo      time.Time
	TransactionsIn *Window
}

// Window is a closed [From, To] time range. A zero bound is open.
type Window struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && t.After(w.To) {
		return false
	}
	return true
}

// ContainsPtr is Contains for optional dates; nil is never contained unless the
// window is fully open.
func (w Window) ContainsPtr(t *time.Time) bool {
	if t == nil {
		return w.From.IsZero() && w.To.IsZero()
	}
	return w.Contains(*t)
}

type StatusUpdateRequest struct {
	Status Status `json:"status" binding:"required"`
}

type TransactionRequest struct {
	Date   *time.Time    `json:"date"`
	Method PaymentMethod `json:"method" binding:"required"`
	Amount float64       `json:"amount" binding:"required,gt=0"`
}
