// Package classifier talks to the remote gesture classifier.
package classifier

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/verte-zerg/signdrill/internal/model"
)

// DefaultTimeout bounds a single classification request.
const DefaultTimeout = 10 * time.Second

const maxErrorBody = 512

// Classifier classifies one captured frame.
type Classifier interface {
	Classify(ctx context.Context, frame []byte) (model.Detection, error)
}

// Error is a failed classification: transport failure, non-2xx status or a
// malformed body. It never carries a detection.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString("classifier")
	if e.Status != 0 {
		fmt.Fprintf(&b, ": status %d", e.Status)
	}
	if e.Message != "" {
		b.WriteString(": ")
		b.WriteString(e.Message)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Client is an HTTP Classifier.
type Client struct {
	endpoint string
	http     *http.Client
	now      func() time.Time
}

// NewClient returns a client posting frames to endpoint.
// A timeout <= 0 uses DefaultTimeout.
func NewClient(endpoint string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: timeout},
		now:      time.Now,
	}
}

type request struct {
	Image string `json:"image"`
}

type response struct {
	Success       bool             `json:"success"`
	Letter        *string          `json:"letter"`
	Gesture       *string          `json:"gesture"`
	Confidence    float64          `json:"confidence"`
	Landmarks     [][]model.Point3 `json:"landmarks"`
	HandsDetected *bool            `json:"hands_detected"`
	Message       string           `json:"message"`
	Error         string           `json:"error"`
}

// Classify implements Classifier.
func (c *Client) Classify(ctx context.Context, frame []byte) (model.Detection, error) {
	if len(frame) == 0 {
		return model.Detection{}, &Error{Err: errors.New("empty frame")}
	}
	body, err := json.Marshal(request{Image: DataURL(frame)})
	if err != nil {
		return model.Detection{}, &Error{Err: fmt.Errorf("failed to encode request: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return model.Detection{}, &Error{Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return model.Detection{}, &Error{Err: fmt.Errorf("request failed: %w", err)}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return model.Detection{}, &Error{Status: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return model.Detection{}, &Error{Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return payload.detection(c.now()), nil
}

func (r response) detection(at time.Time) model.Detection {
	d := model.Detection{
		Success:    r.Success,
		Confidence: r.Confidence,
		Landmarks:  r.Landmarks,
		Timestamp:  at,
	}
	switch {
	case r.Letter != nil:
		d.Label = strings.ToUpper(strings.TrimSpace(*r.Letter))
	case r.Gesture != nil:
		d.Label = strings.ToUpper(strings.TrimSpace(*r.Gesture))
	}
	if r.HandsDetected != nil {
		d.HandsDetected = *r.HandsDetected
	} else {
		d.HandsDetected = len(r.Landmarks) > 0 || d.Label != ""
	}
	return d
}

// DataURL encodes frame as a base64 data URL, sniffing its MIME type.
func DataURL(frame []byte) string {
	mime := http.DetectContentType(frame)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	if !strings.HasPrefix(mime, "image/") {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(frame)
}

func errorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload response
	if json.Unmarshal(data, &payload) == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return strings.TrimSpace(string(data))
}
