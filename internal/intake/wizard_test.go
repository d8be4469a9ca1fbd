package intake

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/internal/repository/memory"
	"github.com/jwalitptl/hairline-crm/internal/service/patient"
)

type failingSubmitter struct {
	err   error
	calls int
}

func (f *failingSubmitter) Create(ctx context.Context, p *model.Patient, actor string) (*model.Patient, error) {
	f.calls++
	return nil, f.err
}

func (f *failingSubmitter) Update(ctx context.Context, id string, p *model.Patient, actor string) (*model.Patient, error) {
	f.calls++
	return nil, f.err
}

func dispatchAll(t *testing.T, w *Wizard, actions ...Action) {
	t.Helper()
	for _, a := range actions {
		require.NoError(t, w.Dispatch(context.Background(), a), "%#v", a)
	}
}

func fillRequired(t *testing.T, w *Wizard) {
	dispatchAll(t, w,
		SetField{Path: "personal.name", Value: "Sanjay Verma"},
		SetField{Path: "personal.phone", Value: "9811122233"},
	)
}

func TestNavigationKeepsData(t *testing.T) {
	w := NewIntake(&failingSubmitter{}, "")
	fillRequired(t, w)

	dispatchAll(t, w, Next{}, SetField{Path: "counselling.counsellor", Value: "Dr. A"})
	assert.Equal(t, StepCounselling, w.Step())

	dispatchAll(t, w, Back{}, Back{})
	assert.Equal(t, StepPersonal, w.Step())

	dispatchAll(t, w, GoTo{Step: StepDocuments}, Next{})
	assert.Equal(t, StepDocuments, w.Step())

	d := w.Draft()
	assert.Equal(t, "Sanjay Verma", d.Personal.Name)
	assert.Equal(t, "Dr. A", d.Counselling.Counsellor)

	err := w.Dispatch(context.Background(), GoTo{Step: Step(42)})
	assert.Error(t, err)
	assert.Equal(t, StepDocuments, w.Step())
}

func TestStepOrder(t *testing.T) {
	w := NewIntake(&failingSubmitter{}, "")
	var seen []string
	for range Steps {
		seen = append(seen, w.Step().String())
		dispatchAll(t, w, Next{})
	}
	assert.Equal(t, []string{"personal", "counselling", "payments", "medical", "surgery", "documents"}, seen)

	s, ok := ParseStep("surgery")
	assert.True(t, ok)
	assert.Equal(t, StepSurgery, s)
}

func TestSetFieldRejectsBadInput(t *testing.T) {
	tests := []struct {
		path, value string
	}{
		{"personal.gender", "M"},
		{"personal.location", "Pune"},
		{"personal.age", "twenty"},
		{"personal.visitDate", "12/03/2024"},
		{"counselling.techniqueSuggested", "FUT"},
		{"counselling.readyForSurgery", "maybe"},
		{"medical.bloodGroup", "C+"},
		{"payments.totalQuoted", "-5"},
		{"payments.pendingAmount", "100"},
		{"personal.nickname", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := NewIntake(&failingSubmitter{}, "")
			before := w.Draft()

			err := w.Dispatch(context.Background(), SetField{Path: tt.path, Value: tt.value})
			assert.Error(t, err)
			assert.NotEmpty(t, w.Message())
			assert.Equal(t, before, w.Draft())
		})
	}
}

func TestPendingAmountFollowsOperands(t *testing.T) {
	w := NewIntake(&failingSubmitter{}, "")
	dispatchAll(t, w, SetField{Path: "payments.totalQuoted", Value: "120000"})
	assert.Equal(t, 120000.0, w.Draft().Payments.PendingAmount)

	dispatchAll(t, w, SetField{Path: "payments.amountReceived", Value: "20000"})
	assert.Equal(t, 100000.0, w.Draft().Payments.PendingAmount)

	dispatchAll(t, w, SetField{Path: "payments.amountReceived", Value: ""})
	assert.Equal(t, 120000.0, w.Draft().Payments.PendingAmount)
}

func TestAddThenRemoveRestoresList(t *testing.T) {
	tx := model.Transaction{Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Method: model.PaymentUPI, Amount: 500}

	tests := []struct {
		list  string
		seed  interface{}
		value interface{}
	}{
		{ListMedicines, "Finasteride", "Minoxidil"},
		{ListImages, "front.jpg", "crown.jpg"},
		{ListSurgeryForm, "consent.pdf", "plan.pdf"},
		{ListConsultForm, "consult-1.pdf", "consult-2.pdf"},
		{ListTransactions, tx, model.Transaction{Date: tx.Date, Method: model.PaymentCash, Amount: 100}},
	}

	for _, tt := range tests {
		t.Run(tt.list, func(t *testing.T) {
			w := NewIntake(&failingSubmitter{}, "")
			dispatchAll(t, w, AddItem{List: tt.list, Value: tt.seed}, AddItem{List: tt.list, Value: tt.seed})
			before := w.Draft()

			dispatchAll(t, w, AddItem{List: tt.list, Value: tt.value}, RemoveItem{List: tt.list, Index: 2})
			assert.Equal(t, before, w.Draft())
		})
	}
}

func TestUpdateAndRemoveItem(t *testing.T) {
	w := NewIntake(&failingSubmitter{}, "")
	dispatchAll(t, w,
		AddItem{List: ListMedicines, Value: "A"},
		AddItem{List: ListMedicines, Value: "B"},
		AddItem{List: ListMedicines, Value: "C"},
		UpdateItem{List: ListMedicines, Index: 1, Value: "B2"},
		RemoveItem{List: ListMedicines, Index: 0},
	)
	assert.Equal(t, []string{"B2", "C"}, w.Draft().Counselling.Medicines)

	assert.Error(t, w.Dispatch(context.Background(), RemoveItem{List: ListMedicines, Index: 5}))
	assert.Error(t, w.Dispatch(context.Background(), UpdateItem{List: ListMedicines, Index: -1, Value: "x"}))
	assert.Error(t, w.Dispatch(context.Background(), AddItem{List: ListMedicines, Value: 42}))
	assert.Error(t, w.Dispatch(context.Background(), AddItem{List: "documents.xrays", Value: "x"}))
	assert.Error(t, w.Dispatch(context.Background(), AddItem{List: ListTransactions, Value: model.Transaction{Method: "Gold", Amount: 1, Date: time.Now()}}))
	assert.Equal(t, []string{"B2", "C"}, w.Draft().Counselling.Medicines)
}

func TestSubmitRequiresNameAndPhone(t *testing.T) {
	sub := &failingSubmitter{}
	w := NewIntake(sub, "")
	dispatchAll(t, w, SetField{Path: "personal.name", Value: "Only Name"}, Next{})

	err := w.Dispatch(context.Background(), Submit{})
	assert.Error(t, err)
	assert.Contains(t, w.Message(), "personal.phone is required")
	assert.Equal(t, 0, sub.calls)
	assert.Equal(t, StepCounselling, w.Step())
}

func TestFailedSubmitKeepsDraft(t *testing.T) {
	sub := &failingSubmitter{err: errors.New("database unavailable")}
	w := NewIntake(sub, "")
	fillRequired(t, w)
	dispatchAll(t, w, GoTo{Step: StepPayments}, SetField{Path: "payments.totalQuoted", Value: "90000"})
	before := w.Draft()

	err := w.Dispatch(context.Background(), Submit{})
	assert.Error(t, err)
	assert.Equal(t, 1, sub.calls)
	assert.Equal(t, before, w.Draft())
	assert.Equal(t, StepPayments, w.Step())
	assert.Equal(t, "database unavailable", w.Message())
	assert.Nil(t, w.Submitted())
}

func newPatientService() *patient.Service {
	return patient.NewService(memory.NewPatientRepository(), model.Workflow{Strict: true}, nil)
}

func TestIntakeRoundTrip(t *testing.T) {
	svc := newPatientService()
	w := NewIntake(svc, "agent-7")

	dispatchAll(t, w,
		SetField{Path: "personal.name", Value: "Sanjay Verma"},
		SetField{Path: "personal.phone", Value: "9811122233"},
		SetField{Path: "personal.email", Value: "sanjay@example.com"},
		SetField{Path: "personal.age", Value: "34"},
		SetField{Path: "personal.gender", Value: "MALE"},
		SetField{Path: "personal.location", Value: "Hyderabad"},
		SetField{Path: "personal.visitDate", Value: "2024-03-10"},
		SetField{Path: "personal.reference", Value: "Agent X"},
		Next{},
		SetField{Path: "counselling.counsellor", Value: "Dr. A"},
		SetField{Path: "counselling.techniqueSuggested", Value: "INDIAN DHI"},
		SetField{Path: "counselling.graftsSuggested", Value: "3200"},
		SetField{Path: "counselling.packageQuoted", Value: "150000"},
		SetField{Path: "counselling.readyForSurgery", Value: "true"},
		AddItem{List: ListMedicines, Value: "Biotin"},
		Next{},
		SetField{Path: "payments.totalQuoted", Value: "150000"},
		SetField{Path: "payments.amountReceived", Value: "25000"},
		AddItem{List: ListTransactions, Value: model.Transaction{
			Date: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC), Method: model.PaymentUPI, Amount: 25000,
		}},
		Next{},
		SetField{Path: "medical.bloodGroup", Value: "O+"},
		SetField{Path: "medical.medicalHistory", Value: "THYROID"},
		Next{},
		SetField{Path: "surgery.surgeryDate", Value: "2024-03-20"},
		SetField{Path: "surgery.implanterRight", Value: "Imran"},
		Next{},
		AddItem{List: ListImages, Value: "front.jpg"},
	)
	submitted := w.Draft()

	dispatchAll(t, w, Submit{})
	require.NotNil(t, w.Submitted())
	assert.Equal(t, "Patient registered successfully", w.Message())
	assert.Equal(t, StepPersonal, w.Step())
	assert.Equal(t, NewDraft(), w.Draft())

	stored, err := svc.Get(context.Background(), w.Submitted().ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, submitted, DraftFromPatient(stored))
	assert.Equal(t, 125000.0, stored.Payments.PendingAmount)
	assert.Equal(t, "agent-7", stored.Ops.CreatedBy)
	assert.Equal(t, model.StatusNew, stored.Ops.Status)
}

func TestEditRetainsDraft(t *testing.T) {
	svc := newPatientService()
	created, err := svc.Create(context.Background(), &model.Patient{
		Personal: model.Personal{Name: "Priya", Phone: "9000000000"},
	}, "")
	require.NoError(t, err)

	w := NewEdit(svc, created, "admin")
	assert.Equal(t, created.ID.Hex(), w.PatientID())
	dispatchAll(t, w,
		GoTo{Step: StepSurgery},
		SetField{Path: "surgery.graftsImplanted", Value: "2800"},
		Submit{},
	)

	assert.Equal(t, "Patient updated successfully", w.Message())
	assert.Equal(t, StepSurgery, w.Step())
	assert.Equal(t, 2800, w.Draft().Surgery.GraftsImplanted)
	assert.Equal(t, "Priya", w.Draft().Personal.Name)

	stored, err := svc.Get(context.Background(), created.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, 2800, stored.Surgery.GraftsImplanted)
}

func TestFieldsAndOptions(t *testing.T) {
	assert.Contains(t, Fields(StepPersonal), "personal.name")
	assert.NotContains(t, Fields(StepPersonal), "medical.bp")
	assert.Equal(t, []string{"FUE", "INDIAN DHI", "DHI", "HYBRID"}, Options("surgery.technique"))
	assert.Contains(t, Options("payments.transactions.method"), "Bank Transfer")
	assert.Nil(t, Options("personal.name"))
}
