// Package detector wraps the remote icon-detection service: a health probe
// and a detect call with bounded retries. Retries only cover transient
// failures (timeouts, transport errors, non-200 responses); a 200 response
// is authoritative either way and ends the loop immediately.
package detector

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"desktop-autopilot/killswitch"
	"desktop-autopilot/retry"
)

const (
	healthTimeout = 10 * time.Second
	detectTimeout = 60 * time.Second
	maxRetries    = 3
	retryDelay    = 800 * time.Millisecond
)

// Client talks to the remote detector. Calls are stateless; every detect
// request carries the full payload.
type Client struct {
	baseURL string
	health  *http.Client
	detect  *http.Client
	policy  retry.Policy
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		health:  &http.Client{Timeout: healthTimeout},
		detect:  &http.Client{Timeout: detectTimeout},
		policy:  retry.Policy{Attempts: maxRetries, Backoff: retryDelay},
	}
}

type detectRequest struct {
	Image       string `json:"image"`
	Description string `json:"description"`
}

type detectResponse struct {
	Found bool `json:"found"`
	X     int  `json:"x"`
	Y     int  `json:"y"`
}

// Result is one detection outcome. Found=false covers both an authoritative
// "not found" from the service and exhausted retries; the logs distinguish
// them.
type Result struct {
	Found bool
	X, Y  int
}

// HealthCheck probes GET /health. True only on a 200 with a parseable JSON
// body; any timeout, transport error, or other status is logged and yields
// false. It never returns an error.
func (c *Client) HealthCheck() bool {
	url := c.baseURL + "/health"
	log.Printf("[API] Health check: GET %s", url)

	resp, err := c.health.Get(url)
	if err != nil {
		log.Printf("[API] Health check error: %v", err)
		return false
	}
	defer resp.Body.Close()

	log.Printf("[API] Health status code: %d", resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[API] Health check error: %v", err)
		return false
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[API] Health FAILED, body: %s", body)
		return false
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Printf("[API] Health response not parseable: %v", err)
		return false
	}
	log.Printf("[API] Health OK, response: %v", payload)
	return true
}

// Detect posts the PNG image and description to /detect, retrying transient
// failures up to maxRetries with a constant delay. The payload is built once
// and reused across attempts. A found=true response returns the coordinates
// immediately; found=false is a definitive negative and is not retried.
// The only error Detect returns is the kill-switch abort.
func (c *Client) Detect(ks *killswitch.Switch, image []byte, description string) (Result, error) {
	payload, err := json.Marshal(detectRequest{
		Image:       base64.StdEncoding.EncodeToString(image),
		Description: description,
	})
	if err != nil {
		log.Printf("[API] Failed to build detect payload: %v", err)
		return Result{}, nil
	}
	url := c.baseURL + "/detect"

	var res Result
	err = c.policy.Do(ks.Check, func(attempt int) (bool, error) {
		log.Printf("[API] Detection attempt %d/%d", attempt, c.policy.Attempts)
		log.Printf("[API] POST %s | description=%q", url, description)

		resp, err := c.detect.Post(url, "application/json", bytes.NewReader(payload))
		if err != nil {
			log.Printf("[API] Detection request failed: %v", err)
			return false, err
		}
		defer resp.Body.Close()

		log.Printf("[API] Response status: %d", resp.StatusCode)
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(resp.Body)
			log.Printf("[API] Non-200 response body: %s", body)
			return false, fmt.Errorf("detect returned status %d", resp.StatusCode)
		}

		var data detectResponse
		if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
			log.Printf("[API] Detection error: %v", err)
			return false, err
		}

		if data.Found {
			log.Printf("[API] Detection SUCCESS at (%d, %d)", data.X, data.Y)
			res = Result{Found: true, X: data.X, Y: data.Y}
			return true, nil
		}
		// The service answered and says the icon is not there. That is an
		// authoritative negative, not a failure, so it is not retried.
		log.Printf("[API] Detection completed: icon NOT found")
		return true, nil
	})
	if err != nil {
		if errors.Is(err, killswitch.ErrAborted) {
			return Result{}, err
		}
		log.Printf("[API] Detection FAILED after all retries")
		return Result{}, nil
	}
	return res, nil
}
