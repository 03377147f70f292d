// Package availability answers whether a room's nights are free, using the
// booking store as the only source of truth.
package availability

import (
	"context"
	"staybook/internal/bookings/validator"
	"staybook/pkg/logger"
	"staybook/pkg/sanitizer"
	"sync"
	"time"
)

const DefaultBatchWorkers = 8

// OverlapCounter counts blocking bookings of a room intersecting
// [checkIn, checkOut). Store failures must wrap ErrDataStoreUnavailable.
type OverlapCounter interface {
	CountOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time) (int64, error)
}

type Detector struct {
	counter OverlapCounter
	workers int
	log     *logger.Logger
}

func NewDetector(counter OverlapCounter, workers int, log *logger.Logger) *Detector {
	if workers <= 0 {
		workers = DefaultBatchWorkers
	}
	return &Detector{
		counter: counter,
		workers: workers,
		log:     log,
	}
}

func (d *Detector) CountConflicts(ctx context.Context, roomID string, r validator.DateRange) (int64, error) {
	return d.counter.CountOverlapping(ctx, roomID, r.CheckIn, r.CheckOut)
}

// IsAvailable never reports a room free when the store could not be asked.
func (d *Detector) IsAvailable(ctx context.Context, roomID string, r validator.DateRange) (bool, error) {
	n, err := d.CountConflicts(ctx, roomID, r)
	if err != nil {
		return false, err
	}
	return n == 0, nil
}

// CheckBatch checks each distinct room concurrently. A room whose check fails
// is reported unavailable.
func (d *Detector) CheckBatch(ctx context.Context, roomIDs []string, r validator.DateRange) map[string]bool {
	ids := sanitizer.NormalizeRoomIDs(roomIDs)
	result := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return result
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	jobs := make(chan string)

	for i := 0; i < min(d.workers, len(ids)); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				ok, err := d.IsAvailable(ctx, id, r)
				if err != nil {
					d.log.Warn("Availability check failed, reporting room unavailable",
						"room_id", id,
						"error", err,
					)
					ok = false
				}
				mu.Lock()
				result[id] = ok
				mu.Unlock()
			}
		}()
	}

	for _, id := range ids {
		jobs <- id
	}
	close(jobs)
	wg.Wait()

	return result
}
