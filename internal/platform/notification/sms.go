package notification

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
)

// DefaultItexmoURL is the iTexMo broadcast endpoint.
const DefaultItexmoURL = "https://www.itexmo.com/php_api/api.php"

var phMobileRe = regexp.MustCompile(`^09\d{9}$`)

// NormalizePhilippineMobile converts +639XXXXXXXXX and 639XXXXXXXXX numbers to
// the 09XXXXXXXXX form the SMS gateway expects, and validates the result.
func NormalizePhilippineMobile(raw string) (string, error) {
	phone := strings.TrimSpace(raw)
	if strings.HasPrefix(phone, "+639") {
		phone = "0" + phone[3:]
	} else if strings.HasPrefix(phone, "639") {
		phone = "0" + phone[2:]
	}
	if !phMobileRe.MatchString(phone) {
		return "", fmt.Errorf("invalid Philippine mobile number format: %s", raw)
	}
	return phone, nil
}

// itexmoErrors maps gateway result codes to messages. A body of "0" means the
// message was accepted.
var itexmoErrors = map[string]string{
	"1":  "Incomplete parameters",
	"2":  "Invalid number",
	"3":  "Invalid API key",
	"4":  "Maximum SMS per day reached",
	"5":  "Maximum SMS per hour reached",
	"10": "Duplicate message",
	"15": "Invalid message",
	"16": "SMS contains spam words",
}

// ItexmoSender delivers SMS through the iTexMo HTTP gateway.
type ItexmoSender struct {
	apiKey   string
	senderID string
	apiURL   string
	client   *http.Client
}

func NewItexmoSender(apiKey, senderID string) *ItexmoSender {
	return &ItexmoSender{
		apiKey:   apiKey,
		senderID: senderID,
		apiURL:   DefaultItexmoURL,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// SendSMS normalizes the recipient number and posts the message to the
// gateway. The gateway replies with a bare result code in the response body.
func (s *ItexmoSender) SendSMS(ctx context.Context, to, body string) error {
	phone, err := NormalizePhilippineMobile(to)
	if err != nil {
		return err
	}

	// The gateway password is the suffix of the API key
	passwd := "default"
	if parts := strings.SplitN(s.apiKey, "_", 2); len(parts) == 2 {
		passwd = parts[1]
	}

	form := url.Values{}
	form.Set("1", phone)
	form.Set("2", body)
	form.Set("3", s.apiKey)
	form.Set("passwd", passwd)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read sms gateway response: %w", err)
	}

	code := strings.TrimSpace(string(raw))
	if code == "0" {
		return nil
	}

	if msg, ok := itexmoErrors[code]; ok {
		return fmt.Errorf("sms sending failed: %s", msg)
	}
	return fmt.Errorf("sms sending failed: unknown error (%s)", code)
}

// TwilioSender delivers SMS through the Twilio Messages API. Used when the
// configured SMS provider is "twilio".
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

func NewTwilioSender(accountSID, authToken, from string) *TwilioSender {
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		from:       from,
		baseURL:    "https://api.twilio.com",
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

func (s *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build sms request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.accountSID, s.authToken)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("sms sending failed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return nil
}
