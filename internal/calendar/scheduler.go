package calendar

import (
	"context"
	"log"

	"github.com/robfig/cron/v3"

	"github.com/delloop-lab/homes-sub001/internal/websocket"
)

// Scheduler runs background syncs for a fixed set of properties on a
// cron schedule, so the store stays fresh without manual /sync-ics calls.
type Scheduler struct {
	cron        *cron.Cron
	syncService *SyncService
	broadcaster *websocket.EventBroadcaster

	spec        string
	propertyIDs []string
}

// NewScheduler creates a scheduler. spec is a cron expression such as
// "@every 15m"; an empty spec disables background sync entirely.
func NewScheduler(syncService *SyncService, hub *websocket.Hub, spec string, propertyIDs []string) *Scheduler {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &Scheduler{
		cron:        cron.New(),
		syncService: syncService,
		broadcaster: broadcaster,
		spec:        spec,
		propertyIDs: propertyIDs,
	}
}

// Start begins the schedule. It is a no-op when no cron spec or no
// properties are configured.
func (s *Scheduler) Start() error {
	if s.spec == "" || len(s.propertyIDs) == 0 {
		log.Println("Background sync disabled (no schedule configured)")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, s.runAll); err != nil {
		return err
	}

	s.cron.Start()
	log.Printf("Background sync scheduled (%s) for %d properties", s.spec, len(s.propertyIDs))
	return nil
}

// Stop gracefully shuts down the scheduler, waiting for a running job.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Background sync scheduler stopped")
}

// runAll syncs every configured property sequentially. The orchestrator
// already fans out across sources, so properties take turns rather than
// multiplying the outbound connection count.
func (s *Scheduler) runAll() {
	for _, propertyID := range s.propertyIDs {
		report, err := s.syncService.Sync(context.Background(), propertyID, nil)
		if err != nil {
			log.Printf("Scheduled sync failed for property %s: %v", propertyID, err)
			if s.broadcaster != nil {
				s.broadcaster.BroadcastSyncError(propertyID, err)
			}
			continue
		}
		if s.broadcaster != nil {
			s.broadcaster.BroadcastSyncCompleted(report)
		}
	}
}
