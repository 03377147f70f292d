package client

import (
	"context"
	"net/http"
	"net/url"
	"staybook/pkg/model"
	"strings"
)

const headerRequesterID = "X-Requester-ID"

// BookingClient calls the bookings HTTP API on behalf of one requester.
type BookingClient struct {
	httpClient  *HttpClient
	requesterID string
}

func NewBookingClient(baseURL, requesterID string) *BookingClient {
	return &BookingClient{
		httpClient:  NewHttpClient(baseURL),
		requesterID: requesterID,
	}
}

func (c *BookingClient) HTTP() *HttpClient {
	return c.httpClient
}

func (c *BookingClient) headers(extra map[string]string) map[string]string {
	h := map[string]string{}
	if c.requesterID != "" {
		h[headerRequesterID] = c.requesterID
	}
	for k, v := range extra {
		h[k] = v
	}
	return h
}

// Create posts in. idempotencyKey may be empty.
func (c *BookingClient) Create(ctx context.Context, in *model.CreateBookingInput, idempotencyKey string) (*Response, error) {
	extra := map[string]string{}
	if idempotencyKey != "" {
		extra["Idempotency-Key"] = idempotencyKey
	}
	return c.httpClient.Do(ctx, http.MethodPost, "/api/v1/bookings", in, c.headers(extra))
}

func (c *BookingClient) GetByID(ctx context.Context, id string) (*Response, error) {
	return c.httpClient.Do(ctx, http.MethodGet, "/api/v1/bookings/id/"+url.PathEscape(id), nil, c.headers(nil))
}

func (c *BookingClient) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) (*Response, error) {
	path := "/api/v1/bookings/id/" + url.PathEscape(id) + "/status"
	return c.httpClient.Do(ctx, http.MethodPatch, path, model.BookingStatusUpdate{Status: status}, c.headers(nil))
}

func (c *BookingClient) CheckAvailability(ctx context.Context, roomID, checkIn, checkOut string) (*Response, error) {
	q := url.Values{}
	q.Set("check_in", checkIn)
	q.Set("check_out", checkOut)
	path := "/api/v1/rooms/" + url.PathEscape(roomID) + "/availability?" + q.Encode()
	return c.httpClient.Do(ctx, http.MethodGet, path, nil, c.headers(nil))
}

func (c *BookingClient) CheckAvailabilityBatch(ctx context.Context, roomIDs []string, checkIn, checkOut string) (*Response, error) {
	q := url.Values{}
	q.Set("check_in", checkIn)
	q.Set("check_out", checkOut)
	q.Set("room_ids", strings.Join(roomIDs, ","))
	return c.httpClient.Do(ctx, http.MethodGet, "/api/v1/availability?"+q.Encode(), nil, c.headers(nil))
}

func (c *BookingClient) DecodeBooking(resp *Response) (*model.Booking, error) {
	var b model.Booking
	if err := resp.DecodeData(&b); err != nil {
		return nil, err
	}
	return &b, nil
}
