package subscriptions

import (
	"context"
	"fmt"
	"time"

	"konsulin-wallet-service/internal/app/config"
	"konsulin-wallet-service/internal/app/contracts"
	"konsulin-wallet-service/internal/pkg/constvars"
	"konsulin-wallet-service/internal/pkg/utils"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const workerLeaderTTL = 2 * time.Minute

// Worker runs the billing and expiry sweeps on a cron schedule. Only the
// instance holding the leader lock sweeps on a given tick.
type Worker struct {
	log                 *zap.Logger
	cfg                 *config.InternalConfig
	locker              contracts.LockerService
	subscriptionUsecase contracts.SubscriptionUsecase
	stop                chan struct{}
	cron                *cron.Cron
	runCtx              context.Context
	cancel              context.CancelFunc
}

func NewWorker(log *zap.Logger, cfg *config.InternalConfig, locker contracts.LockerService, subscriptionUsecase contracts.SubscriptionUsecase) *Worker {
	return &Worker{
		log:                 log,
		cfg:                 cfg,
		locker:              locker,
		subscriptionUsecase: subscriptionUsecase,
		stop:                make(chan struct{}),
	}
}

func (w *Worker) Start(ctx context.Context) {
	w.runCtx, w.cancel = context.WithCancel(ctx)
	c := cron.New()
	spec := w.cfg.Subscription.WorkerCronSpec
	_, err := c.AddFunc(spec, func() { w.runOnce(w.runCtx) })
	if err != nil {
		w.log.Warn("subscriptions.worker: invalid cron spec, falling back to @every 15m",
			zap.String("spec", spec),
			zap.Error(err),
		)
		c = cron.New()
		_, _ = c.AddFunc("@every 15m", func() { w.runOnce(w.runCtx) })
	}
	c.Start()
	w.cron = c
	w.log.Info("subscriptions.worker started", zap.String("spec", spec))
}

// Stop waits for an in-flight sweep to finish. Ticks that fire afterwards
// return without sweeping.
func (w *Worker) Stop() {
	select {
	case <-w.stop:
	default:
		close(w.stop)
	}
	if w.cancel != nil {
		w.cancel()
	}
	if w.cron != nil {
		ctx := w.cron.Stop()
		<-ctx.Done()
	}
}

func (w *Worker) stopped() bool {
	select {
	case <-w.stop:
		return true
	default:
		return false
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	if w.stopped() {
		return
	}
	ctx = utils.WithRequestID(ctx, uuid.NewString())
	requestID := utils.GetRequestID(ctx)
	leaderKey := fmt.Sprintf(constvars.LockKeyWorkerFormat, constvars.WorkerNameBilling)

	acquired, token, err := w.locker.TryLock(ctx, leaderKey, workerLeaderTTL)
	if err != nil {
		w.log.Warn("subscriptions.worker: leader lock attempt failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return
	}
	if !acquired {
		w.log.Info("subscriptions.worker: leader lock held by another instance",
			zap.String(constvars.LoggingRequestIDKey, requestID),
		)
		return
	}
	defer w.locker.Unlock(context.WithoutCancel(ctx), leaderKey, token)

	refreshCtx, cancelRefresh := context.WithCancel(ctx)
	defer cancelRefresh()
	go func() {
		tick := time.NewTicker(workerLeaderTTL / 2)
		defer tick.Stop()
		for {
			select {
			case <-refreshCtx.Done():
				return
			case <-tick.C:
				if err := w.locker.Refresh(refreshCtx, leaderKey, token, workerLeaderTTL); err != nil {
					w.log.Warn("subscriptions.worker: failed to refresh leader lock",
						zap.String(constvars.LoggingRequestIDKey, requestID),
						zap.Error(err),
					)
				}
			}
		}
	}()

	if _, err := w.subscriptionUsecase.ProcessRecurringBillings(ctx); err != nil {
		w.log.Error("subscriptions.worker: billing sweep failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
	}
	if w.stopped() {
		w.log.Info("subscriptions.worker: stopped after billing sweep",
			zap.String(constvars.LoggingRequestIDKey, requestID),
		)
		return
	}
	if _, err := w.subscriptionUsecase.ProcessExpirations(ctx); err != nil {
		w.log.Error("subscriptions.worker: expiry sweep failed",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
	}
}
