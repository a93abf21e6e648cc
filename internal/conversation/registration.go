package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/sst-resolve/resolve-bot/internal/catalog"
	"github.com/sst-resolve/resolve-bot/internal/service"
	"github.com/sst-resolve/resolve-bot/internal/session"
)

// RegistrationResult lists the prompts to send, in order. Completed is set when the
// last field was captured and the caller should open the main menu.
type RegistrationResult struct {
	Prompts   []string
	Completed bool
}

// Registration collects the student profile before the main menu is reachable:
// full name, room number, mobile number, hostel. Every answer is written to the
// profile immediately, so a half-finished sign-up is not lost.
type Registration struct {
	students service.StudentServicer
	progress session.Store[session.RegistrationField]
}

func NewRegistration(students service.StudentServicer, progress session.Store[session.RegistrationField]) *Registration {
	return &Registration{students: students, progress: progress}
}

// Handle consumes one message from a user whose profile is incomplete.
func (r *Registration) Handle(ctx context.Context, userID, text string) (RegistrationResult, error) {
	field, ok, err := r.progress.Get(ctx, userID)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("registration progress: %w", err)
	}
	if !ok {
		// First contact: ask for the name, the message itself is not an answer.
		return r.ask(ctx, userID, session.FieldName, catalog.PromptRegisterName)
	}

	answer := strings.TrimSpace(text)
	switch field {
	case session.FieldName:
		if err := r.save(ctx, userID, service.ProfileUpdate{FullName: &answer}); err != nil {
			return RegistrationResult{}, err
		}
		return r.ask(ctx, userID, session.FieldRoom, catalog.PromptRegisterRoom)
	case session.FieldRoom:
		if err := r.save(ctx, userID, service.ProfileUpdate{RoomNumber: &answer}); err != nil {
			return RegistrationResult{}, err
		}
		return r.ask(ctx, userID, session.FieldMobile, catalog.PromptRegisterMobile)
	case session.FieldMobile:
		if err := r.save(ctx, userID, service.ProfileUpdate{Mobile: &answer}); err != nil {
			return RegistrationResult{}, err
		}
		return r.ask(ctx, userID, session.FieldHostel, catalog.PromptRegisterHostel)
	case session.FieldHostel:
		hostel := catalog.ParseRegistrationHostel(answer)
		if err := r.save(ctx, userID, service.ProfileUpdate{Hostel: &hostel}); err != nil {
			return RegistrationResult{}, err
		}
		if err := r.progress.Delete(ctx, userID); err != nil {
			return RegistrationResult{}, fmt.Errorf("registration progress: %w", err)
		}
		return RegistrationResult{Prompts: []string{catalog.PromptRegisterCompleted}, Completed: true}, nil
	}
	// Marker from an older build or a corrupted value: start over.
	return r.ask(ctx, userID, session.FieldName, catalog.PromptRegisterName)
}

func (r *Registration) ask(ctx context.Context, userID string, next session.RegistrationField, prompt string) (RegistrationResult, error) {
	if err := r.progress.Set(ctx, userID, next); err != nil {
		return RegistrationResult{}, fmt.Errorf("registration progress: %w", err)
	}
	return RegistrationResult{Prompts: []string{prompt}}, nil
}

func (r *Registration) save(ctx context.Context, userID string, upd service.ProfileUpdate) error {
	if err := r.students.Upsert(ctx, userID, upd); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}
