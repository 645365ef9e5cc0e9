package usecase

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/alexdev/devbot/internal/domain/entity"
	"github.com/alexdev/devbot/internal/logger"
)

var (
	ErrFormNotFound = errors.New("contact form not found")
	// ErrFormBusy a submission is already running or just finished
	ErrFormBusy    = errors.New("contact form is busy")
	ErrInvalidForm = errors.New("invalid contact form")
)

// ContactOptions stub timings
type ContactOptions struct {
	SubmitDelay time.Duration
	ResetDelay  time.Duration

	// Retention idle forms older than this are forgotten
	Retention time.Duration
}

// ContactUseCase contact form stub. Nothing is delivered anywhere.
type ContactUseCase interface {
	// Submit validates fields and starts the idle -> submitting -> success -> idle
	// cycle. An empty id creates a new form.
	Submit(ctx context.Context, id string, fields entity.ContactFields) (*entity.ContactForm, error)

	Status(ctx context.Context, id string) (*entity.ContactForm, error)
}

type contactUseCase struct {
	opts ContactOptions

	mu    sync.Mutex
	forms map[string]*entity.ContactForm

	now       func() time.Time
	afterFunc func(d time.Duration, f func())
}

// NewContactUseCase creates the ContactUseCase
func NewContactUseCase(opts ContactOptions) ContactUseCase {
	if opts.Retention <= 0 {
		opts.Retention = time.Hour
	}

	return &contactUseCase{
		opts:  opts,
		forms: make(map[string]*entity.ContactForm),
		now:   time.Now,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
	}
}

func (u *contactUseCase) Submit(ctx context.Context, id string, fields entity.ContactFields) (*entity.ContactForm, error) {
	fields = entity.ContactFields{
		Name:    strings.TrimSpace(fields.Name),
		Email:   strings.TrimSpace(fields.Email),
		Message: strings.TrimSpace(fields.Message),
	}
	if err := validateContact(fields); err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.prune()

	if id == "" {
		id = uuid.New().String()
		u.forms[id] = &entity.ContactForm{ID: id, Status: entity.ContactIdle}
	}

	form, ok := u.forms[id]
	if !ok {
		u.mu.Unlock()
		return nil, ErrFormNotFound
	}
	if form.Status != entity.ContactIdle {
		u.mu.Unlock()
		return nil, ErrFormBusy
	}

	form.Fields = fields
	form.Status = entity.ContactSubmitting
	form.UpdatedAt = u.now()
	snapshot := *form
	u.mu.Unlock()

	logger.Ctx(ctx).Info().Str(logger.FieldFormID, id).Msg("contact form submitted")

	log := logger.Ctx(ctx)
	u.afterFunc(u.opts.SubmitDelay, func() {
		u.advance(id, entity.ContactSubmitting, entity.ContactSuccess)
		log.Debug().Str(logger.FieldFormID, id).Msg("contact form sent")

		u.afterFunc(u.opts.ResetDelay, func() {
			u.advance(id, entity.ContactSuccess, entity.ContactIdle)
		})
	})

	return &snapshot, nil
}

// advance moves the form from -> to. Fields are cleared on entering success.
func (u *contactUseCase) advance(id string, from, to entity.ContactStatus) {
	u.mu.Lock()
	defer u.mu.Unlock()

	form, ok := u.forms[id]
	if !ok || form.Status != from {
		return
	}

	form.Status = to
	form.UpdatedAt = u.now()
	if to == entity.ContactSuccess {
		form.Fields = entity.ContactFields{}
	}
}

func (u *contactUseCase) Status(ctx context.Context, id string) (*entity.ContactForm, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	form, ok := u.forms[id]
	if !ok {
		return nil, ErrFormNotFound
	}

	snapshot := *form
	return &snapshot, nil
}

// prune drops idle forms past retention; caller holds u.mu
func (u *contactUseCase) prune() {
	cutoff := u.now().Add(-u.opts.Retention)
	for id, form := range u.forms {
		if form.Status == entity.ContactIdle && form.UpdatedAt.Before(cutoff) {
			delete(u.forms, id)
		}
	}
}

func validateContact(fields entity.ContactFields) error {
	var missing []string
	if fields.Name == "" {
		missing = append(missing, "name")
	}
	if fields.Email == "" {
		missing = append(missing, "email")
	}
	if fields.Message == "" {
		missing = append(missing, "message")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s required", ErrInvalidForm, strings.Join(missing, ", "))
	}

	addr, err := mail.ParseAddress(fields.Email)
	if err != nil || addr.Address != fields.Email {
		return fmt.Errorf("%w: email is not a valid address", ErrInvalidForm)
	}
	return nil
}
