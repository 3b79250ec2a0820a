package errors

import (
	"errors"
	"io/fs"
	"testing"
)

func TestPathError(t *testing.T) {
	err := &PathError{
		Op:   "open",
		Path: "/test/file.txt",
		Err:  ErrNotFound,
	}

	errStr := err.Error()
	if errStr != "open /test/file.txt: not found" {
		t.Errorf("Error() = %q, want 'open /test/file.txt: not found'", errStr)
	}

	if err.Unwrap() != ErrNotFound {
		t.Error("Unwrap() should return underlying error")
	}
}

func TestNewPathError(t *testing.T) {
	err := NewPathError("read", "/test.txt", fs.ErrPermission)
	if err.Op != "read" {
		t.Errorf("Op = %q, want 'read'", err.Op)
	}
	if err.Path != "/test.txt" {
		t.Errorf("Path = %q, want '/test.txt'", err.Path)
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Error("PathError should unwrap to fs.ErrPermission")
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("pattern", "must not be empty")

	want := "invalid search request: pattern: must not be empty"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
	if !IsValidation(err) {
		t.Error("IsValidation should be true for ValidationError")
	}
	if IsIntegrity(err) {
		t.Error("IsIntegrity should be false for ValidationError")
	}
}

func TestIntegrityError(t *testing.T) {
	cause := errors.New("short write")

	tests := []struct {
		name string
		err  *IntegrityError
		want string
	}{
		{
			name: "with cause",
			err:  &IntegrityError{Path: "/a.txt", Reason: "size mismatch", Err: cause},
			want: "replace /a.txt: size mismatch: short write",
		},
		{
			name: "without cause",
			err:  &IntegrityError{Path: "/a.txt", Reason: "count mismatch"},
			want: "replace /a.txt: count mismatch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", tt.err.Error(), tt.want)
			}
			if !IsIntegrity(tt.err) {
				t.Error("IsIntegrity should be true")
			}
		})
	}

	withCause := &IntegrityError{Path: "/a.txt", Reason: "write", Err: cause}
	if !errors.Is(withCause, cause) {
		t.Error("IntegrityError should also unwrap to its cause")
	}
}

func TestIsCanceled(t *testing.T) {
	wrapped := NewPathError("walk", "/root", ErrSearchCanceled)
	if !IsCanceled(wrapped) {
		t.Error("IsCanceled should work with wrapped errors")
	}
	if IsCanceled(ErrNotFound) {
		t.Error("IsCanceled(ErrNotFound) should be false")
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(ErrNotFound) {
		t.Error("IsNotFound(ErrNotFound) should be true")
	}

	wrapped := NewPathError("open", "/test", ErrNotFound)
	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should work with wrapped errors")
	}

	if IsNotFound(ErrBinaryFile) {
		t.Error("IsNotFound(ErrBinaryFile) should be false")
	}
}

func TestErrorsAreDistinct(t *testing.T) {
	allErrors := []error{
		ErrNotFound,
		ErrNotDirectory,
		ErrBinaryFile,
		ErrFileTooLarge,
		ErrInvalidRequest,
		ErrAlreadyRunning,
		ErrResourceExhausted,
		ErrSearchCanceled,
		ErrIntegrity,
		ErrCrossDevice,
	}

	for i, err1 := range allErrors {
		for j, err2 := range allErrors {
			if i != j && errors.Is(err1, err2) {
				t.Errorf("Error %d and %d should be distinct", i, j)
			}
		}
	}
}
