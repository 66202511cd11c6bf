package notification

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestNormalizePhilippineMobile(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"09171234567", "09171234567", false},
		{"+639171234567", "09171234567", false},
		{"639171234567", "09171234567", false},
		{" 09171234567 ", "09171234567", false},
		{"0917123456", "", true},   // too short
		{"091712345678", "", true}, // too long
		{"+14155550100", "", true}, // not a PH number
		{"hello", "", true},
	}

	for _, tt := range tests {
		got, err := NormalizePhilippineMobile(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("NormalizePhilippineMobile(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("NormalizePhilippineMobile(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizePhilippineMobile(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestItexmoSender_Success(t *testing.T) {
	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		gotForm = map[string]string{
			"1":      r.PostFormValue("1"),
			"2":      r.PostFormValue("2"),
			"3":      r.PostFormValue("3"),
			"passwd": r.PostFormValue("passwd"),
		}
		w.Write([]byte("0"))
	}))
	defer srv.Close()

	sender := NewItexmoSender("PR-TEST123456_SECRET", "CLICARE")
	sender.apiURL = srv.URL

	err := sender.SendSMS(context.Background(), "+639171234567", "test message")
	if err != nil {
		t.Fatalf("SendSMS() error: %v", err)
	}

	if gotForm["1"] != "09171234567" {
		t.Errorf("expected normalized number, got %q", gotForm["1"])
	}
	if gotForm["2"] != "test message" {
		t.Errorf("expected message body, got %q", gotForm["2"])
	}
	if gotForm["3"] != "PR-TEST123456_SECRET" {
		t.Errorf("expected api key, got %q", gotForm["3"])
	}
	if gotForm["passwd"] != "SECRET" {
		t.Errorf("expected passwd derived from key suffix, got %q", gotForm["passwd"])
	}
}

func TestItexmoSender_KnownErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("3"))
	}))
	defer srv.Close()

	sender := NewItexmoSender("PR-TEST123456_SECRET", "CLICARE")
	sender.apiURL = srv.URL

	err := sender.SendSMS(context.Background(), "09171234567", "test")
	if err == nil {
		t.Fatal("expected error for result code 3")
	}
	if got := err.Error(); got != "sms sending failed: Invalid API key" {
		t.Errorf("unexpected error message: %q", got)
	}
}

func TestItexmoSender_UnknownErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("42"))
	}))
	defer srv.Close()

	sender := NewItexmoSender("PR-TEST123456_SECRET", "CLICARE")
	sender.apiURL = srv.URL

	err := sender.SendSMS(context.Background(), "09171234567", "test")
	if err == nil {
		t.Fatal("expected error for unknown result code")
	}
	if got := err.Error(); got != "sms sending failed: unknown error (42)" {
		t.Errorf("unexpected error message: %q", got)
	}
}

func TestItexmoSender_InvalidNumber(t *testing.T) {
	sender := NewItexmoSender("PR-TEST123456_SECRET", "CLICARE")

	err := sender.SendSMS(context.Background(), "12345", "test")
	if err == nil {
		t.Fatal("expected error for invalid number before any request")
	}
}

func TestTwilioSender_Success(t *testing.T) {
	var gotTo, gotFrom, gotBody string
	var gotAuthOK bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		gotAuthOK = ok && user == "AC123" && pass == "token"
		r.ParseForm()
		gotTo = r.PostFormValue("To")
		gotFrom = r.PostFormValue("From")
		gotBody = r.PostFormValue("Body")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"sid":"SM1"}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender("AC123", "token", "+15005550006")
	sender.baseURL = srv.URL

	if err := sender.SendSMS(context.Background(), "+639171234567", "hello"); err != nil {
		t.Fatalf("SendSMS() error: %v", err)
	}
	if !gotAuthOK {
		t.Error("expected basic auth with account SID and token")
	}
	if gotTo != "+639171234567" || gotFrom != "+15005550006" || gotBody != "hello" {
		t.Errorf("unexpected form values: to=%q from=%q body=%q", gotTo, gotFrom, gotBody)
	}
}

func TestTwilioSender_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Authentication Error"}`))
	}))
	defer srv.Close()

	sender := NewTwilioSender("AC123", "bad-token", "+15005550006")
	sender.baseURL = srv.URL

	if err := sender.SendSMS(context.Background(), "+639171234567", "hello"); err == nil {
		t.Fatal("expected error for 401 response")
	}
}
