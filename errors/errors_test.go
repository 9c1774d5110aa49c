package errors

import (
	"fmt"
	"testing"
)

func TestBarError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeDecodeFailed, "bad line")
	if err.Code != ErrCodeDecodeFailed {
		t.Errorf("expected code %s, got %s", ErrCodeDecodeFailed, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeConnectFailed, "connect failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	if !Is(wrapped, ErrCodeConnectFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeDecodeFailed) {
		t.Error("Is should return false for non-matching code")
	}

	detailed := err.WithDetail("line", "{").WithDetail("offset", 1)
	if detailed.Details["line"] != "{" {
		t.Error("WithDetail should add details")
	}
}

func TestGetCodeThroughFmtWrap(t *testing.T) {
	inner := ConnectFailed("/run/niri.sock", fmt.Errorf("no such file"))
	outer := fmt.Errorf("starting stream: %w", inner)

	if got := GetCode(outer); got != ErrCodeConnectFailed {
		t.Errorf("GetCode() = %s, want %s", got, ErrCodeConnectFailed)
	}
	if GetCode(nil) != "" {
		t.Error("GetCode(nil) should be empty")
	}
	if Is(fmt.Errorf("plain"), ErrCodeInternal) {
		t.Error("Is should be false for plain errors")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := SocketNotConfigured("NIRI_SOCKET")
	if err.Code != ErrCodeSocketNotConfigured {
		t.Errorf("expected code %s, got %s", ErrCodeSocketNotConfigured, err.Code)
	}
	if err.Details["env"] != "NIRI_SOCKET" {
		t.Error("SocketNotConfigured should include env detail")
	}

	err = CommandFailed("FocusWorkspace", fmt.Errorf("broken pipe"))
	if err.Code != ErrCodeCommandFailed {
		t.Errorf("expected code %s, got %s", ErrCodeCommandFailed, err.Code)
	}
	if err.Details["action"] != "FocusWorkspace" {
		t.Error("CommandFailed should include action detail")
	}

	if DecodeFailed("empty line", nil).Cause != nil {
		t.Error("DecodeFailed without cause should not wrap")
	}
}
