// Package capture models the waitlist capture dialog: field entry, a single
// guarded submit, user notifications and the delayed reset after closing.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/akeren/klyr-waitlist/internal/validation"
	"github.com/akeren/klyr-waitlist/pkg/constants"
)

type State int

const (
	StateIdle State = iota
	StateSubmitting
	StateSubmitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateSubmitting:
		return "submitting"
	case StateSubmitted:
		return "submitted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

var (
	ErrFormClosed       = errors.New("capture: form is not open")
	ErrFormLocked       = errors.New("capture: form cannot be edited in its current state")
	ErrSubmitInProgress = errors.New("capture: a submission is already in progress")
	ErrAlreadySubmitted = errors.New("capture: form was already submitted")
	ErrSubmissionFailed = errors.New("capture: submission failed")
)

// Submitter performs the remote insert for one accepted submission.
type Submitter interface {
	Submit(ctx context.Context, submission validation.Submission) error
}

type Variant string

const (
	VariantDefault     Variant = "default"
	VariantDestructive Variant = "destructive"
)

// Notification is a transient message for the person filling in the form.
type Notification struct {
	Title       string
	Description string
	Variant     Variant
}

type Notifier interface {
	Notify(n Notification)
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(Notification)

func (f NotifierFunc) Notify(n Notification) { f(n) }

var (
	invalidInput = func(msg string) Notification {
		return Notification{Title: "Invalid input", Description: msg, Variant: VariantDestructive}
	}
	submissionFailed = Notification{
		Title:       "Submission failed",
		Description: "Please try again later.",
		Variant:     VariantDestructive,
	}
	submissionAccepted = Notification{
		Title:       "You're on the list! 🎉",
		Description: "We'll update you when we launch.",
		Variant:     VariantDefault,
	}
)

// Fields are the editable values of the form.
type Fields struct {
	Email       string
	Role        string
	Meetings    string
	Suggestions string
}

type Options struct {
	// ResetDelay is how long after Close the fields are cleared. Defaults to 200ms.
	ResetDelay    time.Duration
	OnStateChange func(from, to State)
}

type Form struct {
	submitter Submitter
	notifier  Notifier
	opts      Options
	afterFunc func(time.Duration, func()) *time.Timer

	mu         sync.Mutex
	open       bool
	source     string
	fields     Fields
	state      State
	generation uint64
	resetTimer *time.Timer
}

func NewForm(submitter Submitter, notifier Notifier, opts Options) *Form {
	if opts.ResetDelay <= 0 {
		opts.ResetDelay = constants.DefaultFormResetDelay
	}
	if notifier == nil {
		notifier = NotifierFunc(func(Notification) {})
	}
	return &Form{
		submitter: submitter,
		notifier:  notifier,
		opts:      opts,
		afterFunc: time.AfterFunc,
		source:    constants.DefaultSource,
	}
}

// Open shows the form for the call-to-action identified by source. A reset
// still pending from a previous Close is applied first.
func (f *Form) Open(source string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.resetTimer != nil {
		f.resetTimer.Stop()
		f.resetLocked()
	}
	if source == "" {
		source = constants.DefaultSource
	}
	f.source = source
	f.open = true
}

// Close hides the form and clears it once ResetDelay has passed.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return
	}
	f.open = false

	if f.resetTimer != nil {
		f.resetTimer.Stop()
	}
	gen := f.generation
	f.resetTimer = f.afterFunc(f.opts.ResetDelay, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.generation == gen && !f.open {
			f.resetLocked()
		}
	})
}

func (f *Form) resetLocked() {
	f.generation++
	f.fields = Fields{}
	f.resetTimer = nil
	f.setStateLocked(StateIdle)
}

func (f *Form) setStateLocked(to State) {
	from := f.state
	f.state = to
	if from != to && f.opts.OnStateChange != nil {
		f.opts.OnStateChange(from, to)
	}
}

func (f *Form) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *Form) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

func (f *Form) Source() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.source
}

// CanSubmit reports whether the submit control should be enabled.
func (f *Form) CanSubmit() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open && f.state == StateIdle
}

func (f *Form) edit(apply func(*Fields)) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.open {
		return ErrFormClosed
	}
	if f.state != StateIdle {
		return ErrFormLocked
	}
	apply(&f.fields)
	return nil
}

func (f *Form) SetEmail(v string) error {
	return f.edit(func(fl *Fields) { fl.Email = v })
}

func (f *Form) SetRole(v string) error {
	return f.edit(func(fl *Fields) { fl.Role = v })
}

func (f *Form) SetMeetings(v string) error {
	return f.edit(func(fl *Fields) { fl.Meetings = v })
}

func (f *Form) SetSuggestions(v string) error {
	return f.edit(func(fl *Fields) { fl.Suggestions = v })
}

// Submit validates the current fields and, if they pass, issues exactly one
// remote insert. Validation failures never reach the Submitter. On failure the
// form returns to idle with its fields intact.
func (f *Form) Submit(ctx context.Context) error {
	f.mu.Lock()
	switch {
	case !f.open:
		f.mu.Unlock()
		return ErrFormClosed
	case f.state == StateSubmitting:
		f.mu.Unlock()
		return ErrSubmitInProgress
	case f.state == StateSubmitted:
		f.mu.Unlock()
		return ErrAlreadySubmitted
	}

	submission, err := validation.NewSubmission(validation.Input{
		Email:       f.fields.Email,
		Role:        f.fields.Role,
		Meetings:    f.fields.Meetings,
		Suggestions: f.fields.Suggestions,
		Source:      f.source,
	})
	if err != nil {
		f.mu.Unlock()
		var verr *validation.ValidationError
		msg := err.Error()
		if errors.As(err, &verr) {
			msg = verr.Message
		}
		f.notifier.Notify(invalidInput(msg))
		return err
	}

	f.setStateLocked(StateSubmitting)
	gen := f.generation
	f.mu.Unlock()

	submitErr := f.submitter.Submit(ctx, submission)

	f.mu.Lock()
	current := f.generation == gen
	if current {
		if submitErr != nil {
			f.setStateLocked(StateFailed)
			f.setStateLocked(StateIdle)
		} else {
			f.setStateLocked(StateSubmitted)
		}
	}
	f.mu.Unlock()

	if submitErr != nil {
		f.notifier.Notify(submissionFailed)
		return fmt.Errorf("%w: %w", ErrSubmissionFailed, submitErr)
	}
	f.notifier.Notify(submissionAccepted)
	return nil
}
