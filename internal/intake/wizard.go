package intake

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/hairline-crm/internal/model"
	"github.com/jwalitptl/hairline-crm/pkg/validator"
)

type Mode int

const (
	// ModeIntake creates a new patient and starts over after a successful submit.
	ModeIntake Mode = iota
	// ModeEdit replaces an existing patient and keeps the draft after submit.
	ModeEdit
)

// Submitter persists a finished draft. The patient service implements it.
type Submitter interface {
	Create(ctx context.Context, patient *model.Patient, actor string) (*model.Patient, error)
	Update(ctx context.Context, id string, patient *model.Patient, actor string) (*model.Patient, error)
}

// Actions accepted by Dispatch.
type (
	Action interface{ action() }

	SetField struct {
		Path  string
		Value string
	}
	AddItem struct {
		List  string
		Value interface{}
	}
	UpdateItem struct {
		List  string
		Index int
		Value interface{}
	}
	RemoveItem struct {
		List  string
		Index int
	}
	Next   struct{}
	Back   struct{}
	GoTo   struct{ Step Step }
	Submit struct{}
)

func (SetField) action()   {}
func (AddItem) action()    {}
func (UpdateItem) action() {}
func (RemoveItem) action() {}
func (Next) action()       {}
func (Back) action()       {}
func (GoTo) action()       {}
func (Submit) action()     {}

// Wizard holds a draft and the step being edited. It is not safe for
// concurrent use; each form session owns one.
type Wizard struct {
	mode      Mode
	patientID string
	actor     string
	step      Step
	draft     Draft
	message   string
	submitted *model.Patient
	submitter Submitter
	validator validator.Validator
}

// NewIntake starts an empty registration form.
func NewIntake(submitter Submitter, actor string) *Wizard {
	return &Wizard{
		mode:      ModeIntake,
		actor:     actor,
		draft:     NewDraft(),
		submitter: submitter,
		validator: validator.New(),
	}
}

// NewEdit opens the form on an existing patient.
func NewEdit(submitter Submitter, patient *model.Patient, actor string) *Wizard {
	return &Wizard{
		mode:      ModeEdit,
		patientID: patient.ID.Hex(),
		actor:     actor,
		draft:     DraftFromPatient(patient),
		submitter: submitter,
		validator: validator.New(),
	}
}

func (w *Wizard) Mode() Mode        { return w.mode }
func (w *Wizard) Step() Step        { return w.step }
func (w *Wizard) Message() string   { return w.message }
func (w *Wizard) PatientID() string { return w.patientID }

// Draft returns a copy of the current draft.
func (w *Wizard) Draft() Draft { return w.draft.Clone() }

// Submitted is the patient returned by the last successful submit.
func (w *Wizard) Submitted() *model.Patient { return w.submitted }

// Dispatch applies a to the wizard. A rejected action leaves the draft and step
// unchanged and sets the status message to the reason.
func (w *Wizard) Dispatch(ctx context.Context, a Action) error {
	var err error
	switch a := a.(type) {
	case SetField:
		err = w.edit(func(d *Draft) error { return setField(d, a.Path, a.Value) })
	case AddItem:
		err = w.edit(func(d *Draft) error { return addItem(d, a.List, a.Value) })
	case UpdateItem:
		err = w.edit(func(d *Draft) error { return updateItem(d, a.List, a.Index, a.Value) })
	case RemoveItem:
		err = w.edit(func(d *Draft) error { return removeItem(d, a.List, a.Index) })
	case Next:
		if int(w.step) < len(Steps)-1 {
			w.step++
		}
	case Back:
		if w.step > StepPersonal {
			w.step--
		}
	case GoTo:
		if !a.Step.Valid() {
			err = fmt.Errorf("unknown step %d", a.Step)
		} else {
			w.step = a.Step
		}
	case Submit:
		return w.submit(ctx)
	default:
		err = fmt.Errorf("unsupported action %T", a)
	}

	if err != nil {
		w.message = err.Error()
		return err
	}
	w.message = ""
	return nil
}

// edit applies fn to a copy of the draft and keeps the copy only on success.
func (w *Wizard) edit(fn func(d *Draft) error) error {
	d := w.draft.Clone()
	if err := fn(&d); err != nil {
		return err
	}
	d.Payments.RecomputePending()
	w.draft = d
	return nil
}

func (w *Wizard) submit(ctx context.Context) error {
	patient := w.draft.Patient()
	if err := w.validator.Validate(patient); err != nil {
		w.message = err.Error()
		return err
	}

	var (
		saved *model.Patient
		err   error
	)
	if w.mode == ModeEdit {
		saved, err = w.submitter.Update(ctx, w.patientID, patient, w.actor)
	} else {
		saved, err = w.submitter.Create(ctx, patient, w.actor)
	}
	if err != nil {
		log.Warn().Err(err).Str("step", w.step.String()).Msg("patient form submission failed")
		w.message = err.Error()
		return err
	}

	w.submitted = saved
	if w.mode == ModeEdit {
		w.draft = DraftFromPatient(saved)
		w.message = "Patient updated successfully"
		return nil
	}
	w.draft = NewDraft()
	w.step = StepPersonal
	w.message = "Patient registered successfully"
	return nil
}

func setField(d *Draft, path, value string) error {
	f, ok := fields[path]
	if !ok {
		if path == "payments.pendingAmount" {
			return fmt.Errorf("payments.pendingAmount is derived from the quote and amount received")
		}
		return fmt.Errorf("unknown field %q", path)
	}
	if err := f.set(d, value); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
