package notification

import (
	"context"
	"strings"
	"testing"
)

func TestTemplateEngine_RenderOTPEmail(t *testing.T) {
	engine := NewTemplateEngine()

	subject, body, err := engine.Render("otp-email", map[string]string{
		"patient_name": "Juan Dela Cruz",
		"code":         "482913",
	})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}

	if subject != "CLICARE - Your Verification Code" {
		t.Errorf("unexpected subject: %q", subject)
	}
	if !strings.Contains(body, "Juan Dela Cruz") {
		t.Errorf("expected patient name in body: %q", body)
	}
	if !strings.Contains(body, "482913") {
		t.Errorf("expected code in body: %q", body)
	}
	if strings.Contains(body, "{{") {
		t.Errorf("expected all placeholders replaced: %q", body)
	}
}

func TestTemplateEngine_RenderOTPSMS(t *testing.T) {
	engine := NewTemplateEngine()

	_, body, err := engine.Render("otp-sms", map[string]string{"code": "123456"})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if body != "CLICARE: Your verification code is 123456. Valid for 5 minutes. Do not share this code." {
		t.Errorf("unexpected sms body: %q", body)
	}
}

func TestTemplateEngine_MissingTemplate(t *testing.T) {
	engine := NewTemplateEngine()
	if _, _, err := engine.Render("no-such-template", nil); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestTemplateEngine_MissingDataLeftAsIs(t *testing.T) {
	engine := NewTemplateEngine()

	_, body, err := engine.Render("otp-email", map[string]string{"code": "123456"})
	if err != nil {
		t.Fatalf("Render() error: %v", err)
	}
	if !strings.Contains(body, "{{patient_name}}") {
		t.Errorf("expected unmatched placeholder left as-is: %q", body)
	}
}

func TestNotifier_SendEmail(t *testing.T) {
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	notifier := NewNotifier(email, sms, NewTemplateEngine())

	msg, err := notifier.SendFromTemplate(context.Background(), "otp-email", map[string]string{
		"patient_name": "Juan",
		"code":         "654321",
	}, "juan@example.com")
	if err != nil {
		t.Fatalf("SendFromTemplate() error: %v", err)
	}

	if msg.Status != "sent" {
		t.Errorf("expected status sent, got %q", msg.Status)
	}
	if msg.SentAt == nil {
		t.Error("expected SentAt to be set")
	}

	calls := email.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 email call, got %d", len(calls))
	}
	if calls[0].To != "juan@example.com" {
		t.Errorf("expected recipient juan@example.com, got %q", calls[0].To)
	}
	if len(sms.Calls()) != 0 {
		t.Error("expected no sms calls")
	}
}

func TestNotifier_SendSMSTemplate(t *testing.T) {
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	notifier := NewNotifier(email, sms, NewTemplateEngine())

	msg, err := notifier.SendFromTemplate(context.Background(), "otp-sms", map[string]string{
		"code": "111222",
	}, "09171234567")
	if err != nil {
		t.Fatalf("SendFromTemplate() error: %v", err)
	}
	if msg.Type != TypeSMS {
		t.Errorf("expected sms type, got %q", msg.Type)
	}
	if len(sms.Calls()) != 1 {
		t.Fatalf("expected 1 sms call, got %d", len(sms.Calls()))
	}
}

func TestNotifier_SendFailureRecorded(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true, FailError: "smtp down"}
	notifier := NewNotifier(email, &MockSMSSender{}, NewTemplateEngine())

	msg, err := notifier.SendFromTemplate(context.Background(), "otp-email", map[string]string{
		"patient_name": "Juan",
		"code":         "999999",
	}, "juan@example.com")
	if err == nil {
		t.Fatal("expected send error")
	}
	if msg.Status != "failed" {
		t.Errorf("expected status failed, got %q", msg.Status)
	}
	if msg.Error != "smtp down" {
		t.Errorf("expected error message recorded, got %q", msg.Error)
	}

	stored, err := notifier.Get(msg.ID)
	if err != nil {
		t.Fatalf("Get() error: %v", err)
	}
	if stored.Status != "failed" {
		t.Errorf("expected stored status failed, got %q", stored.Status)
	}
}

func TestNotifier_Stats(t *testing.T) {
	email := &MockEmailSender{}
	notifier := NewNotifier(email, &MockSMSSender{}, NewTemplateEngine())

	data := map[string]string{"patient_name": "A", "code": "000000"}
	notifier.SendFromTemplate(context.Background(), "otp-email", data, "a@example.com")
	notifier.SendFromTemplate(context.Background(), "otp-email", data, "b@example.com")

	stats := notifier.Stats()
	if stats["sent"] != 2 {
		t.Errorf("expected 2 sent, got %d", stats["sent"])
	}
}
