package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/worker"
)

// Shutdown stops the dispatch and background loops and waits up to grace
// for them and for in-flight handlers. If they do not finish in time the
// handler and store contexts are cancelled and lanes.ErrDrainTimeout is
// returned. Later submissions and worker registrations fail with
// lanes.ErrShuttingDown.
func (m *Manager) Shutdown(grace time.Duration) error {
	m.mu.Lock()
	if m.closing {
		m.mu.Unlock()
		return nil
	}
	m.closing = true
	loops := make([]*worker.Loop, 0, len(m.loops))
	for wid, l := range m.loops {
		loops = append(loops, l)
		delete(m.loops, wid)
	}
	cancelBG := m.cancelBG
	m.mu.Unlock()

	m.logger.Info("queue manager shutting down",
		slog.Duration("grace", grace),
		slog.Int("workers", len(loops)),
	)

	close(m.bgStop)
	for _, l := range loops {
		l.Stop()
	}

	// Loops are waited on before inflight: only a running loop adds to it.
	drained := make(chan struct{})
	go func() {
		m.bgWG.Wait()
		m.loopWG.Wait()
		m.inflight.Wait()
		close(drained)
	}()

	var err error
	if !waitDrained(drained, grace) {
		err = fmt.Errorf("%w: waited %s", lanes.ErrDrainTimeout, grace)
		m.logger.Warn("loops and in-flight jobs did not finish before grace period, cancelled",
			slog.Duration("grace", grace),
		)
	}
	m.cancelRun()
	if cancelBG != nil {
		cancelBG()
	}

	m.extensions.EmitShutdown(context.Background())
	m.logger.Info("queue manager stopped")
	return err
}

// waitDrained reports whether drained closed within grace.
func waitDrained(drained <-chan struct{}, grace time.Duration) bool {
	select {
	case <-drained:
		return true
	default:
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-drained:
		return true
	case <-timer.C:
		select {
		case <-drained:
			return true
		default:
			return false
		}
	}
}
