package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/yashjainme/friend-finder-frontend/client"
	"github.com/yashjainme/friend-finder-frontend/contract"
	"github.com/yashjainme/friend-finder-frontend/logger"
	"github.com/yashjainme/friend-finder-frontend/model"
)

type Kind int

const (
	Login Kind = iota
	Signup
)

func (k Kind) String() string {
	if k == Signup {
		return "signup"
	}
	return "login"
}

const fallbackMessage = "Authentication failed"

// ValidationError is returned before any network call when the form is
// incomplete. Messages keep the form's field order.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, "; ")
}

// Error is a rejected signup or login. Message is what the user sees.
type Error struct {
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

type Flow struct {
	api        contract.AuthAPI
	validator  *validator.Validate
	translator ut.Translator
}

func NewFlow(api contract.AuthAPI) (*Flow, error) {
	f := &Flow{api: api, validator: validator.New()}

	eng := en.New()
	uni := ut.New(eng, eng)
	var found bool
	f.translator, found = uni.GetTranslator("en")
	if !found {
		return nil, errors.New("translator not found")
	}
	if err := en_translations.RegisterDefaultTranslations(f.validator, f.translator); err != nil {
		return nil, err
	}
	return f, nil
}

// Submit signs the user up or logs them in. On success the token lands in
// session and onSuccess runs exactly once; on any failure it never runs.
func (f *Flow) Submit(ctx context.Context, session contract.Session, kind Kind, creds model.Credentials, onSuccess func()) error {
	username := strings.TrimSpace(creds.Username)
	email := strings.TrimSpace(creds.Email)

	var (
		token string
		err   error
	)
	switch kind {
	case Signup:
		user := &model.UserSignup{Username: username, Email: email, Password: creds.Password}
		if err := f.validate(user); err != nil {
			return err
		}
		token, err = f.api.Signup(ctx, user)
	default:
		user := &model.UserLogin{Email: email, Password: creds.Password}
		if err := f.validate(user); err != nil {
			return err
		}
		token, err = f.api.Login(ctx, user)
	}

	if err != nil {
		logger.Get().Warnf("%s for %s failed: %v", kind, email, err)
		return &Error{Message: client.MessageOr(err, fallbackMessage), Err: err}
	}
	if token == "" {
		return &Error{Message: fallbackMessage, Err: errors.New("backend returned no token")}
	}

	if err := session.SetToken(token); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	if onSuccess != nil {
		onSuccess()
	}
	return nil
}

// Logout drops the stored token and then runs onDone.
func (f *Flow) Logout(session contract.Session, onDone func()) error {
	if err := session.ClearToken(); err != nil {
		return fmt.Errorf("clear token: %w", err)
	}
	if onDone != nil {
		onDone()
	}
	return nil
}

func (f *Flow) validate(form interface{}) error {
	err := f.validator.Struct(form)
	if err == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if !errors.As(err, &errs) {
		return err
	}
	messages := make([]string, 0, len(errs))
	for _, fe := range errs {
		messages = append(messages, fe.Translate(f.translator))
	}
	return &ValidationError{Messages: messages}
}
