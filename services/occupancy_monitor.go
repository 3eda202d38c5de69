package services

import (
	"context"
	"sync"
	"time"

	"github.com/yeremiapane/restaurant-reservations/hub"
	"github.com/yeremiapane/restaurant-reservations/utils"
)

// OccupancySource yields the figures pushed by the monitor.
type OccupancySource interface {
	TodaySummary(ctx context.Context) (TodaySummary, error)
}

// OccupancyMonitor periodically broadcasts today's occupancy to live dashboards.
type OccupancyMonitor struct {
	source      OccupancySource
	broadcaster Broadcaster
	Interval    time.Duration
	stopChan    chan struct{}
	stopOnce    sync.Once
	wg          sync.WaitGroup
}

func NewOccupancyMonitor(source OccupancySource, broadcaster Broadcaster, interval time.Duration) *OccupancyMonitor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &OccupancyMonitor{
		source:      source,
		broadcaster: broadcaster,
		Interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

func (om *OccupancyMonitor) Start() {
	om.wg.Add(1)
	go func() {
		defer om.wg.Done()
		ticker := time.NewTicker(om.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				om.Tick()
			case <-om.stopChan:
				return
			}
		}
	}()
}

// Stop ends the loop and waits for the running tick to finish.
func (om *OccupancyMonitor) Stop() {
	om.stopOnce.Do(func() { close(om.stopChan) })
	om.wg.Wait()
}

// Tick broadcasts one snapshot.
func (om *OccupancyMonitor) Tick() {
	ctx, cancel := context.WithTimeout(context.Background(), om.Interval)
	defer cancel()

	summary, err := om.source.TodaySummary(ctx)
	if err != nil {
		utils.ErrorLogger.Printf("Error loading today's occupancy: %v", err)
		return
	}
	om.broadcaster.Broadcast(hub.Message{Event: hub.EventOccupancyUpdate, Data: summary.Occupancy})
}
