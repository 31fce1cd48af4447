package core

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// LifecycleManager starts the container's components in dependency order and stops them in
// reverse. A failed start stops everything that already came up.
type LifecycleManager struct {
	container *Container
	mutex     sync.Mutex
	started   []Component
	timeout   time.Duration
}

func NewLifecycleManager(container *Container) *LifecycleManager {
	return &LifecycleManager{container: container, timeout: 30 * time.Second}
}

func (lm *LifecycleManager) SetTimeout(timeout time.Duration) { lm.timeout = timeout }

func (lm *LifecycleManager) StartAll(ctx context.Context) error {
	components, err := lm.container.SortComponentsByDependencies()
	if err != nil {
		return fmt.Errorf("failed to sort components: %w", err)
	}

	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	for _, comp := range components {
		startCtx, cancel := context.WithTimeout(ctx, lm.timeout)
		err := comp.Start(startCtx)
		cancel()
		if err != nil {
			log.Printf("Failed to start component %s: %v", comp.Name(), err)
			lm.stopLocked(context.Background())
			return fmt.Errorf("failed to start component %s: %w", comp.Name(), err)
		}
		lm.started = append(lm.started, comp)
	}
	return nil
}

func (lm *LifecycleManager) StopAll(ctx context.Context) {
	lm.mutex.Lock()
	defer lm.mutex.Unlock()
	lm.stopLocked(ctx)
}

func (lm *LifecycleManager) stopLocked(ctx context.Context) {
	for i := len(lm.started) - 1; i >= 0; i-- {
		comp := lm.started[i]
		if !comp.IsActive() {
			continue
		}
		stopCtx, cancel := context.WithTimeout(ctx, lm.timeout)
		if err := comp.Stop(stopCtx); err != nil {
			log.Printf("Error stopping component %s: %v", comp.Name(), err)
		}
		cancel()
	}
	lm.started = nil
}
