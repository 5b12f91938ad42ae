package cron

import (
	"context"
	"log"
	"time"

	"casabay/config"
	"casabay/services/notification"
	"casabay/services/reconciliation"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
)

const TypeExpirySweep = "settlement:expiry-sweep"

// InitExpirySweepWorker runs the async worker in background and schedules the
// hourly sweep that flags overdue bank transfers for the admin digest. The
// sweep never cancels anything; cancellation stays a human decision.
func InitExpirySweepWorker(reconSvc reconciliation.Service, notifSvc notification.Service) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 2,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeExpirySweep, handleExpirySweepTask(reconSvc, notifSvc))

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{
		Location: time.UTC,
	})
	if _, err := scheduler.Register("@every 1h", asynq.NewTask(TypeExpirySweep, nil)); err != nil {
		log.Fatalf("[ExpirySweep] failed to register schedule: %v", err)
	}

	// Start Redis health monitor
	go monitorRedisConnection()

	go func() {
		log.Println("[ExpirySweep] starting scheduler...")
		if err := scheduler.Run(); err != nil {
			log.Printf("[ExpirySweep] scheduler stopped: %v", err)
		}
	}()

	// Start async worker with retry logic
	go func() {
		log.Println("[ExpirySweep] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[ExpirySweep] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[ExpirySweep] max retry attempts reached, exiting")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleExpirySweepTask(reconSvc reconciliation.Service, notifSvc notification.Service) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		refs, err := reconSvc.ExpiredTransferReferences(ctx)
		if err != nil {
			log.Printf("[ExpirySweep] failed to collect expired transfers: %v", err)
			return err
		}
		if len(refs) == 0 {
			return nil
		}

		log.Printf("[ExpirySweep] %d overdue bank transfer(s): %v", len(refs), refs)
		return notifSvc.NotifyExpiredTransfers(ctx, len(refs), refs)
	}
}

// monitorRedisConnection pings Redis periodically to detect failures at runtime.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()

	for {
		if err := client.Ping(ctx).Err(); err != nil {
			log.Printf("[ExpirySweep] redis connection lost: %v", err)
		}
		time.Sleep(10 * time.Second)
	}
}
