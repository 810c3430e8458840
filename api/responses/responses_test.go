package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/ihza6661/dua-insan-story-sub002/pkg/errors"
	"github.com/ihza6661/dua-insan-story-sub002/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}

	var envelope types.SuccessEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	data, ok := envelope.Data.(map[string]any)
	if !ok || data["hello"] != "world" {
		t.Fatalf("unexpected payload: %+v", envelope.Data)
	}
}

func TestWriteErrorTypedCode(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeStateConflict, "order is not cancellable").
		WithDetails(map[string]any{"from": "Shipped"})

	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422 but got %d", got)
	}

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeStateConflict) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "order is not cancellable" {
		t.Fatalf("unexpected message %q", envelope.Error.Message)
	}
	if envelope.Error.Details == nil {
		t.Fatalf("expected details to pass through")
	}
}

func TestWriteErrorMasksInternal(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("pq: connection refused"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if envelope.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %q", envelope.Error.Code)
	}
	if envelope.Error.Message != "internal server error" {
		t.Fatalf("internal detail leaked: %q", envelope.Error.Message)
	}
}
