package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWire_DomainError(t *testing.T) {
	status, typ, msg := Wire(UserNotFound())
	if status != 400 {
		t.Errorf("status = %d, want 400", status)
	}
	if typ != TypeUserNotFound {
		t.Errorf("type = %q, want %q", typ, TypeUserNotFound)
	}
	if msg != "User does not exist." {
		t.Errorf("msg = %q", msg)
	}
}

func TestWire_InternalError(t *testing.T) {
	status, typ, _ := Wire(Internal(errors.New("boom")))
	if status != 500 {
		t.Errorf("status = %d, want 500", status)
	}
	if typ != TypeInternalError {
		t.Errorf("type = %q, want %q", typ, TypeInternalError)
	}
}

func TestWire_UnknownError(t *testing.T) {
	status, typ, msg := Wire(errors.New("surprise"))
	if status != 500 {
		t.Errorf("status = %d, want 500", status)
	}
	if typ != TypeInternalError {
		t.Errorf("type = %q, want %q", typ, TypeInternalError)
	}
	if msg != "surprise" {
		t.Errorf("msg = %q", msg)
	}
}

func TestWire_WrappedDomainError(t *testing.T) {
	err := fmt.Errorf("outer: %w", CodeMismatch())
	status, typ, _ := Wire(err)
	if status != 400 || typ != TypeCodeMismatch {
		t.Errorf("got %d %q, want 400 %q", status, typ, TypeCodeMismatch)
	}
}

func TestSentinelMatching(t *testing.T) {
	if !errors.Is(NotAuthorized("nope"), ErrNotAuthorized) {
		t.Error("NotAuthorized should match ErrNotAuthorized")
	}
	// InvalidPassword maps to NotAuthorized on the wire.
	if !errors.Is(InvalidPassword(), ErrNotAuthorized) {
		t.Error("InvalidPassword should match ErrNotAuthorized")
	}
	if errors.Is(UserNotFound(), ErrNotAuthorized) {
		t.Error("UserNotFound should not match ErrNotAuthorized")
	}
	if !errors.Is(ResourceNotFound("User pool x"), ErrResourceNotFound) {
		t.Error("ResourceNotFound should match ErrResourceNotFound")
	}
}

func TestInvalidParameterFormatting(t *testing.T) {
	err := InvalidParameter("bad value %q", "x")
	if err.Message != `bad value "x"` {
		t.Errorf("message = %q", err.Message)
	}
}
