package repository

import (
	"context"
	"errors"
	"fmt"
	bookingserrors "staybook/internal/bookings/errors"
	"staybook/pkg/model"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestBuildOverlapFilter(t *testing.T) {
	in := time.Date(2030, 6, 1, 0, 0, 0, 0, time.UTC)
	out := time.Date(2030, 6, 4, 0, 0, 0, 0, time.UTC)

	filter := buildOverlapFilter("R1", in, out)

	if filter["room_id"] != "R1" {
		t.Errorf("expected room_id R1, got %v", filter["room_id"])
	}

	status, ok := filter["status"].(bson.M)
	if !ok {
		t.Fatalf("status filter has unexpected type %T", filter["status"])
	}
	statuses, ok := status["$in"].([]model.BookingStatus)
	if !ok || len(statuses) != 2 {
		t.Fatalf("expected two blocking statuses, got %v", status["$in"])
	}
	for _, s := range statuses {
		if !s.IsBlocking() {
			t.Errorf("non-blocking status %s in overlap filter", s)
		}
	}

	// Strict operators keep back-to-back stays bookable.
	checkIn, ok := filter["check_in"].(bson.M)
	if !ok {
		t.Fatalf("check_in filter has unexpected type %T", filter["check_in"])
	}
	if v, ok := checkIn["$lt"]; !ok || !v.(time.Time).Equal(out) {
		t.Errorf("expected check_in $lt %v, got %v", out, checkIn)
	}
	if _, ok := checkIn["$lte"]; ok {
		t.Error("check_in must not use $lte")
	}

	checkOut, ok := filter["check_out"].(bson.M)
	if !ok {
		t.Fatalf("check_out filter has unexpected type %T", filter["check_out"])
	}
	if v, ok := checkOut["$gt"]; !ok || !v.(time.Time).Equal(in) {
		t.Errorf("expected check_out $gt %v, got %v", in, checkOut)
	}
	if _, ok := checkOut["$gte"]; ok {
		t.Error("check_out must not use $gte")
	}
}

func TestBuildRoomBlockingFilter_HasNoDateBounds(t *testing.T) {
	filter := buildRoomBlockingFilter("R9")
	if _, ok := filter["check_in"]; ok {
		t.Error("scan filter should not bound check_in")
	}
	if _, ok := filter["check_out"]; ok {
		t.Error("scan filter should not bound check_out")
	}
	if filter["room_id"] != "R9" {
		t.Errorf("expected room_id R9, got %v", filter["room_id"])
	}
}

func TestIsConnectivityError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"deadline", context.DeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("count: %w", context.DeadlineExceeded), true},
		{"cancelled", context.Canceled, true},
		{"client disconnected", mongo.ErrClientDisconnected, true},
		{"network labelled", mongo.CommandError{Code: 6, Labels: []string{"NetworkError"}}, true},
		{"command rejected", mongo.CommandError{Code: 2, Name: "BadValue", Message: "unknown operator"}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isConnectivityError(tt.err); got != tt.want {
				t.Errorf("isConnectivityError(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestStoreError(t *testing.T) {
	cause := errors.New("socket closed")
	err := storeError("insert booking", cause)

	if !errors.Is(err, bookingserrors.ErrDataStoreUnavailable) {
		t.Error("store errors must match ErrDataStoreUnavailable")
	}
	if !errors.Is(err, cause) {
		t.Error("store errors must keep the driver cause")
	}
}

func TestWithTimeout(t *testing.T) {
	ctx, cancel := withTimeout(context.Background(), time.Minute)
	defer cancel()
	if d, ok := ctx.Deadline(); !ok || time.Until(d) > time.Minute {
		t.Errorf("expected a deadline within a minute, got %v", d)
	}

	parent, parentCancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer parentCancel()
	ctx2, cancel2 := withTimeout(parent, time.Hour)
	defer cancel2()
	if d, ok := ctx2.Deadline(); !ok || time.Until(d) > 50*time.Millisecond {
		t.Errorf("caller's sooner deadline should win, got %v", d)
	}
}
