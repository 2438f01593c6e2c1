// Package captcha verifies recaptcha tokens against the Google siteverify
// endpoint. With no secret configured, verification is disabled and every
// request passes.
package captcha

import (
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	internal_errors "github.com/commentable-dev/commentable/internal/errors"
	"github.com/commentable-dev/commentable/internal/logger"
)

const googleVerifyURL = "https://www.google.com/recaptcha/api/siteverify"

type Verifier struct {
	secret   string
	endpoint string
	client   *http.Client
}

func New(secret string) *Verifier {
	return &Verifier{
		secret:   secret,
		endpoint: googleVerifyURL,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (v *Verifier) Enabled() bool {
	return v.secret != ""
}

// Verify checks the client-solved captcha token. A missing token, a failed
// verification, and an unreachable verification service all reject the
// request; the comment is not persisted in any of these cases.
func (v *Verifier) Verify(token, clientIP string) error {
	if !v.Enabled() {
		return nil
	}
	if token == "" {
		return internal_errors.Captcha("please select captcha")
	}

	resp, err := v.client.PostForm(v.endpoint, url.Values{
		"secret":   {v.secret},
		"response": {token},
		"remoteip": {clientIP},
	})
	if err != nil {
		logger.Log.Warn("captcha verification request failed", "ip", clientIP, "error", err)
		return internal_errors.Captcha("captcha verification error")
	}
	defer resp.Body.Close()

	var result struct {
		Success bool `json:"success"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		logger.Log.Warn("captcha verification response unreadable", "ip", clientIP, "error", err)
		return internal_errors.Captcha("captcha verification error")
	}
	if !result.Success {
		logger.Log.Warn("failed captcha verification", "ip", clientIP)
		return internal_errors.Captcha("failed captcha verification")
	}
	logger.Log.Debug("captcha validated", "ip", clientIP)
	return nil
}
