package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestRecover_WithPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		panic("test panic message")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error from recovered panic, got nil")
	}

	var panicErr *PanicError
	if !As(err, &panicErr) {
		t.Fatalf("Expected PanicError, got %T", err)
	}
	if panicErr.Operation != "TestOperation" {
		t.Errorf("Expected operation 'TestOperation', got '%s'", panicErr.Operation)
	}
	if panicErr.StackTrace == "" {
		t.Error("Expected non-empty stack trace")
	}
	if got, want := panicErr.Error(), "panic in TestOperation: test panic message"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestRecover_WithoutPanic(t *testing.T) {
	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		return nil
	}

	if err := testFunc(); err != nil {
		t.Fatalf("Expected no error when no panic occurs, got: %v", err)
	}
}

func TestRecover_WithExistingError(t *testing.T) {
	originalErr := NewValueError("Fit", "original error")

	testFunc := func() (err error) {
		defer Recover(&err, "TestOperation")
		err = originalErr
		panic("panic after error")
	}

	err := testFunc()
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "panic in TestOperation") {
		t.Errorf("Error message should contain panic info: %s", err.Error())
	}

	var valueErr *ValueError
	if !As(err, &valueErr) {
		t.Error("Original ValueError should still be reachable through the chain")
	}
}

func TestSafeExecute(t *testing.T) {
	tests := []struct {
		name       string
		panicValue interface{}
		want       string
	}{
		{name: "string", panicValue: "unexpected nil pointer", want: "panic in Train: unexpected nil pointer"},
		{name: "error", panicValue: fmt.Errorf("index out of range"), want: "panic in Train: index out of range"},
		{name: "int", panicValue: 42, want: "panic in Train: 42"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := SafeExecute("Train", func() error {
				panic(tt.panicValue)
			})
			if err == nil {
				t.Fatal("Expected error from panic recovery, got nil")
			}
			if err.Error() != tt.want {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.want)
			}
		})
	}

	if err := SafeExecute("Train", func() error { return nil }); err != nil {
		t.Errorf("SafeExecute() without panic = %v, want nil", err)
	}
}

func TestPanicError_UnwrapsErrorValue(t *testing.T) {
	cause := NewDimensionError("Predict", 3, 4, 1)
	err := SafeExecute("Predict", func() error { panic(cause) })

	var dimErr *DimensionError
	if !As(err, &dimErr) {
		t.Fatalf("Expected DimensionError through PanicError, got %T", err)
	}
	if dimErr.Expected != 3 || dimErr.Got != 4 {
		t.Errorf("DimensionError = %+v, want Expected=3 Got=4", dimErr)
	}
}
