package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type TwilioClient struct {
	AccountSID string
	AuthToken  string
	HTTP       *http.Client

	MessagingServiceSID string
	FromNumber          string
	BaseURL             string
}

type twilioResponse struct {
	Sid     string `json:"sid"`
	Status  string `json:"status"`
	Code    *int   `json:"code"`
	Message string `json:"message"`
}

func NewTwilioClient(accountSID, authToken string, timeout time.Duration) *TwilioClient {
	return &TwilioClient{
		AccountSID: accountSID,
		AuthToken:  authToken,
		HTTP:       &http.Client{Timeout: timeout},
		BaseURL:    "https://api.twilio.com",
	}
}

// Send creates a Message resource; to must already be E.164.
func (c *TwilioClient) Send(ctx context.Context, to, body string) (string, error) {
	form := url.Values{}
	form.Set("To", to)
	form.Set("Body", body)
	if c.MessagingServiceSID != "" {
		form.Set("MessagingServiceSid", c.MessagingServiceSID)
	} else {
		form.Set("From", c.FromNumber)
	}

	baseURL := strings.TrimRight(c.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	endpoint := baseURL + "/2010-04-01/Accounts/" + url.PathEscape(c.AccountSID) + "/Messages.json"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.AccountSID, c.AuthToken)

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var out twilioResponse
	_ = json.Unmarshal(b, &out)

	// Twilio answers 201 Created; treat any 2xx as accepted.
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if out.Message != "" {
			return "", fmt.Errorf("twilio: %s (status %d)", out.Message, resp.StatusCode)
		}
		return "", fmt.Errorf("twilio send failed (status %d)", resp.StatusCode)
	}
	if out.Sid == "" {
		return "", errors.New("twilio: missing sid in response")
	}
	return out.Sid, nil
}
