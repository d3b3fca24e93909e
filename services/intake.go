package services

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/gofiber/fiber/v3/log"
	"github.com/google/uuid"

	"github.com/lborres/medassist/core"
)

// IntakeState tells whether a prediction request is in flight.
type IntakeState int

const (
	IntakeIdle IntakeState = iota
	IntakeSubmitting
)

func (s IntakeState) String() string {
	if s == IntakeSubmitting {
		return "submitting"
	}
	return "idle"
}

// SubmitStatus is the variant of a SubmitOutcome.
type SubmitStatus int

const (
	// SubmitSkipped means no request was issued (or its result was discarded).
	SubmitSkipped SubmitStatus = iota
	SubmitSucceeded
	SubmitFailed
)

func (s SubmitStatus) String() string {
	switch s {
	case SubmitSucceeded:
		return "succeeded"
	case SubmitFailed:
		return "failed"
	default:
		return "skipped"
	}
}

// SubmitOutcome reports what Submit did. Err explains a skip or a failure.
type SubmitOutcome struct {
	Status SubmitStatus
	Result *core.DiagnosisResult
	Err    error
}

// Intake manages one diagnosis form session: an ordered list of symptom
// entries, the draft input, and the last prediction result.
type Intake struct {
	gateway     core.Gateway
	credentials core.CredentialSource
	newID       func() string

	mu       sync.Mutex
	symptoms []core.Symptom
	draft    string
	severity core.Severity
	result   *core.DiagnosisResult
	state    IntakeState
	closed   bool
}

func NewIntake(gateway core.Gateway, credentials core.CredentialSource) *Intake {
	return &Intake{
		gateway:     gateway,
		credentials: credentials,
		newID:       newSymptomID,
		severity:    core.DefaultSeverity,
	}
}

// newSymptomID returns a time-ordered id so entries created in one session
// never collide.
func newSymptomID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// SetDraft updates the pending symptom name.
func (in *Intake) SetDraft(name string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.draft = name
}

func (in *Intake) Draft() string {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.draft
}

// SetSeverity selects the severity used by AddDraft.
func (in *Intake) SetSeverity(severity core.Severity) error {
	if !severity.Valid() {
		return core.ErrInvalidSeverity
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.severity = severity
	return nil
}

func (in *Intake) Severity() core.Severity {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.severity
}

// AddDraft adds the draft name with the selected severity.
func (in *Intake) AddDraft() (core.Symptom, bool) {
	in.mu.Lock()
	name, severity := in.draft, in.severity
	in.mu.Unlock()
	return in.AddSymptom(name, severity)
}

// AddSymptom appends an entry and clears the draft. It is a no-op when the
// name trims to empty, the severity is unknown or the intake is closed.
// Names are not deduplicated.
func (in *Intake) AddSymptom(name string, severity core.Severity) (core.Symptom, bool) {
	name = strings.TrimSpace(name)
	if name == "" || !severity.Valid() {
		return core.Symptom{}, false
	}

	in.mu.Lock()
	defer in.mu.Unlock()

	if in.closed {
		return core.Symptom{}, false
	}

	symptom := core.Symptom{
		ID:       in.newID(),
		Name:     name,
		Severity: severity,
	}
	in.symptoms = append(in.symptoms, symptom)
	in.draft = ""

	return symptom, true
}

// RemoveSymptom removes the entry with the given id. It reports whether
// anything was removed.
func (in *Intake) RemoveSymptom(id string) bool {
	in.mu.Lock()
	defer in.mu.Unlock()

	i := slices.IndexFunc(in.symptoms, func(s core.Symptom) bool { return s.ID == id })
	if i < 0 {
		return false
	}
	in.symptoms = slices.Delete(in.symptoms, i, i+1)
	return true
}

// Symptoms returns the entries in display order.
func (in *Intake) Symptoms() []core.Symptom {
	in.mu.Lock()
	defer in.mu.Unlock()
	return slices.Clone(in.symptoms)
}

// Result returns the last successful prediction, or nil.
func (in *Intake) Result() *core.DiagnosisResult {
	in.mu.Lock()
	defer in.mu.Unlock()
	return cloneResult(in.result)
}

func (in *Intake) State() IntakeState {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.state
}

// Submit sends the entries for prediction. It is skipped when the list is
// empty, a submission is already in flight or the intake is closed. A
// failure is logged and leaves the previous result in place; there is no
// retry. The state is back to idle when Submit returns.
func (in *Intake) Submit(ctx context.Context) SubmitOutcome {
	in.mu.Lock()
	switch {
	case in.closed:
		in.mu.Unlock()
		return SubmitOutcome{Status: SubmitSkipped, Err: core.ErrIntakeClosed}
	case in.state == IntakeSubmitting:
		in.mu.Unlock()
		return SubmitOutcome{Status: SubmitSkipped, Err: core.ErrSubmissionInFlight}
	case len(in.symptoms) == 0:
		in.mu.Unlock()
		return SubmitOutcome{Status: SubmitSkipped, Err: core.ErrNoSymptoms}
	}

	payload := make([]core.SymptomInput, len(in.symptoms))
	for i, s := range in.symptoms {
		payload[i] = s.Input()
	}
	in.state = IntakeSubmitting
	in.mu.Unlock()

	defer func() {
		in.mu.Lock()
		in.state = IntakeIdle
		in.mu.Unlock()
	}()

	result, err := in.gateway.PredictDiagnosis(ctx, in.credentials.Token(), payload)
	if err == nil && result == nil {
		err = core.NormalizeError(core.PredictEndpoint.Op, 0, nil, core.ErrMalformedResponse, core.FallbackPredict)
	}
	if err != nil {
		err = core.AsRequestError(err, core.PredictEndpoint.Op, core.FallbackPredict)
		log.Errorw("error getting diagnosis", "error", err, "symptoms", len(payload))
		return SubmitOutcome{Status: SubmitFailed, Err: err}
	}

	return in.storeResult(result)
}

func (in *Intake) storeResult(result *core.DiagnosisResult) SubmitOutcome {
	in.mu.Lock()
	defer in.mu.Unlock()

	// late response after teardown
	if in.closed {
		return SubmitOutcome{Status: SubmitSkipped, Err: core.ErrIntakeClosed}
	}

	in.result = cloneResult(result)
	return SubmitOutcome{Status: SubmitSucceeded, Result: cloneResult(result)}
}

// Close tears the form session down: entries are dropped and a response
// still in flight will not be stored.
func (in *Intake) Close() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.closed = true
	in.symptoms = nil
	in.draft = ""
}

func cloneResult(r *core.DiagnosisResult) *core.DiagnosisResult {
	if r == nil {
		return nil
	}
	c := *r
	c.Symptoms = slices.Clone(r.Symptoms)
	c.Recommendations = slices.Clone(r.Recommendations)
	return &c
}
