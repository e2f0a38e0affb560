package responses

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/emiliorvera/brandvault-backend/pkg/errors"
	"github.com/emiliorvera/brandvault-backend/pkg/logger"
	"github.com/emiliorvera/brandvault-backend/pkg/types"
)

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]any{"field": "demo"})
	WriteError(context.Background(), quietLogger(), w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), quietLogger(), w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}

func TestWriteErrorStateConflictExposesCurrentStatus(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeStateConflict, "only pending assets can be approved").
		WithDetails(map[string]any{"current_status": "approved"})
	WriteError(context.Background(), quietLogger(), w, err)

	if got := w.Code; got != http.StatusConflict {
		t.Fatalf("expected status 409 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	details, ok := body.Error.Details.(map[string]any)
	if !ok || details["current_status"] != "approved" {
		t.Fatalf("expected current_status detail, got %v", body.Error.Details)
	}
}

type countingObserver struct {
	count int
}

func (c *countingObserver) IncImmutabilityViolation() {
	c.count++
}

func TestWriteErrorCountsImmutabilityViolations(t *testing.T) {
	observer := &countingObserver{}
	SetImmutabilityObserver(observer)
	t.Cleanup(func() { SetImmutabilityObserver(nil) })

	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeImmutable, "audit records are append-only")
	WriteError(context.Background(), quietLogger(), w, err)

	if observer.count != 1 {
		t.Fatalf("expected 1 violation counted, got %d", observer.count)
	}
	// The violation is masked as an internal error: callers learn nothing
	// about the ledger internals.
	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	// A non-immutability error must not move the counter.
	WriteError(context.Background(), quietLogger(), httptest.NewRecorder(), pkgerrors.New(pkgerrors.CodeNotFound, "missing"))
	if observer.count != 1 {
		t.Fatalf("counter moved on unrelated error: %d", observer.count)
	}
}
