package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xraph/lanes"
	"github.com/xraph/lanes/job"
	"github.com/xraph/lanes/store/memory"
	"github.com/xraph/lanes/store/storetest"
)

func TestConformance(t *testing.T) {
	storetest.Run(t, memory.New())
}

func TestUpsertCopiesInput(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	j := storetest.NewJob("email.send", job.StatusPending, time.Now())
	if err := s.Upsert(ctx, j); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	j.Tags[0] = "mutated"
	j.Status = job.StatusDead

	got, err := s.GetJob(ctx, j.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != job.StatusPending {
		t.Errorf("status = %q, want pending", got.Status)
	}
	if got.Tags[0] != "billing" {
		t.Errorf("tags[0] = %q, want billing", got.Tags[0])
	}
}

func TestClosedStoreFails(t *testing.T) {
	s := memory.New()
	ctx := context.Background()

	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if err := s.Ping(ctx); !errors.Is(err, lanes.ErrStoreClosed) {
		t.Errorf("Ping after Close = %v, want ErrStoreClosed", err)
	}
	err := s.Upsert(ctx, storetest.NewJob("email.send", job.StatusPending, time.Now()))
	if !errors.Is(err, lanes.ErrStoreClosed) {
		t.Errorf("Upsert after Close = %v, want ErrStoreClosed", err)
	}
	if _, err := s.QueryByStatus(ctx, job.StatusPending); !errors.Is(err, lanes.ErrStoreClosed) {
		t.Errorf("QueryByStatus after Close = %v, want ErrStoreClosed", err)
	}
}
