package app_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/next-trace/scg-rideshare/internal/app"
	"github.com/next-trace/scg-rideshare/internal/config"
	"github.com/next-trace/scg-rideshare/internal/httpapi"
)

func memoryConfig(t *testing.T) config.Config {
	t.Helper()

	cfg, err := config.Load("", nil)
	if err != nil {
		t.Fatalf("config: %v", err)
	}

	cfg.HTTP.Addr = "127.0.0.1:0"

	return cfg
}

func call(t *testing.T, h http.Handler, method, path, user string, body any, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	if user != "" {
		req.Header.Set(httpapi.HeaderUserID, user)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	if out != nil && w.Code < 300 {
		if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}

	return w.Code
}

type idOnly struct {
	ID string `json:"id"`
}

func TestApp_AllServicesInMemory(t *testing.T) {
	a, err := app.New(t.Context(), memoryConfig(t), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(a.Close)

	h := a.Handler()

	var driver, passenger, ride, booking idOnly

	if code := call(t, h, http.MethodPost, "/users", "", map[string]string{"email": "d@gmail.com", "role": "DRIVER"}, &driver); code != http.StatusCreated {
		t.Fatalf("register driver: %d", code)
	}

	if code := call(t, h, http.MethodPost, "/users", "", map[string]string{"email": "p@student.giu-uni.de", "role": "PASSENGER"}, &passenger); code != http.StatusCreated {
		t.Fatalf("register passenger: %d", code)
	}

	offer := map[string]any{
		"driverId": driver.ID, "origin": "GIU", "destination": "Cairo",
		"date": time.Now().Add(24 * time.Hour).Format(time.RFC3339), "availableSeats": 1,
	}
	if code := call(t, h, http.MethodPost, "/rides", "", offer, &ride); code != http.StatusCreated {
		t.Fatalf("create ride: %d", code)
	}

	if code := call(t, h, http.MethodPost, "/bookings", passenger.ID, map[string]string{"rideId": ride.ID, "destination": " cairo "}, &booking); code != http.StatusCreated {
		t.Fatalf("book: %d", code)
	}

	waitSeats(t, h, ride.ID, 0)

	if code := call(t, h, http.MethodDelete, "/bookings/"+booking.ID, passenger.ID, nil, nil); code != http.StatusOK {
		t.Fatalf("cancel: %d", code)
	}

	waitSeats(t, h, ride.ID, 1)

	if code := call(t, h, http.MethodDelete, "/bookings/"+booking.ID, passenger.ID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("second cancel: %d", code)
	}
}

func waitSeats(t *testing.T, h http.Handler, rideID string, want int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)

	for {
		var r struct {
			AvailableSeats int `json:"availableSeats"`
		}

		if code := call(t, h, http.MethodGet, "/rides/"+rideID, "", nil, &r); code != http.StatusOK {
			t.Fatalf("get ride: %d", code)
		}

		if r.AvailableSeats == want {
			return
		}

		if time.Now().After(deadline) {
			t.Fatalf("seats: want %d, got %d", want, r.AvailableSeats)
		}

		time.Sleep(10 * time.Millisecond)
	}
}

func TestApp_RunStopsOnCancel(t *testing.T) {
	a, err := app.New(t.Context(), memoryConfig(t), nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	t.Cleanup(a.Close)

	ctx, cancel := context.WithCancel(t.Context())
	done := make(chan error, 1)

	go func() { done <- a.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("run did not return")
	}
}

func TestApp_UnreachableBrokerFails(t *testing.T) {
	cfg := memoryConfig(t)
	cfg.Service = config.ServiceBooking
	cfg.Transport = config.TransportNATS
	cfg.NATS.URL = ""

	if _, err := app.New(t.Context(), cfg, nil); err == nil {
		t.Fatalf("want error for missing nats url")
	}
}
