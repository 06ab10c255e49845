package workers

import (
	"context"
	"log"
	"time"

	"habitflowAPI/internal/types/notification"
	"habitflowAPI/middleware"
	"habitflowAPI/services"
)

const (
	reconcileHourUTC  = 3
	streakRiskHourUTC = 20
)

// Start launches the background loops: a nightly pass that reconciles every
// cached streak against completion history, and an evening pass that pushes
// streak-risk reminders. Both tick hourly and fire at most once per day.
func Start(habitService *services.HabitService, notificationService *services.NotificationService) {
	go runHourly("streak reconcile", reconcileHourUTC, func(ctx context.Context, now time.Time) {
		reconciled, err := habitService.ReconcileAllStreaks(ctx, now)
		if err != nil {
			log.Printf("Worker: streak reconcile stopped after %d habits: %v", reconciled, err)
			return
		}
		for i := 0; i < reconciled; i++ {
			middleware.StreakReconciles.Inc()
		}
		log.Printf("Worker: reconciled %d habit streaks", reconciled)
	})

	go runHourly("streak risk", streakRiskHourUTC, func(ctx context.Context, now time.Time) {
		risks, err := notificationService.FindStreaksAtRisk(ctx, now)
		if err != nil {
			log.Printf("Worker: failed to find streaks at risk: %v", err)
			return
		}
		for _, r := range risks {
			_, err := notificationService.Notify(ctx, r.UserID,
				notification.NotificationStreakRisk,
				"Your streak is at risk",
				r.HabitName+" hasn't been checked off today. One small action keeps the run alive.",
				map[string]any{"habit_id": r.HabitID.String(), "streak": r.StreakCount},
			)
			if err != nil {
				log.Printf("Worker: failed to notify user %s: %v", r.UserID, err)
			}
		}
		log.Printf("Worker: sent %d streak risk notifications", len(risks))
	})
}

func runHourly(name string, atHourUTC int, job func(ctx context.Context, now time.Time)) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	var lastRun string
	for now := range ticker.C {
		now = now.UTC()
		day := now.Format("2006-01-02")
		if now.Hour() != atHourUTC || lastRun == day {
			continue
		}
		lastRun = day

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		job(ctx, now)
		cancel()
		log.Printf("Worker: %s pass finished for %s", name, day)
	}
}
