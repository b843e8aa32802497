// Package client talks to the booking API over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"booking-service/internal/models"
)

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for the API rooted at baseURL. A nil httpClient gets a
// client with a 15 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) Attendees(ctx context.Context) ([]models.Attendee, error) {
	var out []models.Attendee
	err := c.do(ctx, http.MethodGet, "/api/attendees", nil, &out)
	return out, err
}

func (c *Client) Availability(ctx context.Context, attendeeType string, date models.Date, timezone string) ([]models.TimeSlot, error) {
	q := url.Values{}
	q.Set("attendeeType", attendeeType)
	q.Set("startDate", date.String())
	q.Set("timezone", timezone)
	var out []models.TimeSlot
	err := c.do(ctx, http.MethodGet, "/api/meetings/availability?"+q.Encode(), nil, &out)
	return out, err
}

func (c *Client) Book(ctx context.Context, req models.BookingRequest) (models.Booking, error) {
	body := models.CreateMeetingRequest{
		AttendeeType:      req.AttendeeType,
		AttendeeName:      req.Lead.Name,
		AttendeeEmail:     req.Lead.Email,
		AttendeePhone:     req.Lead.Phone,
		PreferredDateTime: req.Start.Format(time.RFC3339),
		Timezone:          req.Timezone,
		Duration:          req.DurationMinutes,
	}
	var out models.Booking
	err := c.do(ctx, http.MethodPost, "/api/meetings", body, &out)
	return out, err
}

func (c *Client) ICS(ctx context.Context, id string) ([]byte, error) {
	var out []byte
	err := c.do(ctx, http.MethodGet, "/api/meetings/"+url.PathEscape(id)+"/ics", nil, &out)
	return out, err
}

// do sends the request and decodes a JSON response into out, or copies the raw
// body when out is a *[]byte. API errors come back as the matching sentinel
// error; transport failures wrap models.ErrNetwork.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", models.ErrNetwork, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", models.ErrNetwork, err)
	}

	if resp.StatusCode >= 400 {
		var apiErr models.ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil {
			if sentinel := models.ErrorFromCode(apiErr.Code); sentinel != nil {
				return fmt.Errorf("%w: %s", sentinel, apiErr.Error)
			}
		}
		if resp.StatusCode >= 500 {
			return fmt.Errorf("%w: server returned %s", models.ErrNetwork, resp.Status)
		}
		return fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}

	if raw, ok := out.(*[]byte); ok {
		*raw = data
		return nil
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
