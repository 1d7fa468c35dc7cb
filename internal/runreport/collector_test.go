package runreport

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestRecordThroughContext(t *testing.T) {
	t.Parallel()

	c := NewCollector()
	ctx := WithCollector(context.Background(), c)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			Record(ctx, PhaseImages, errors.New("provider down"))
		}()
	}
	wg.Wait()
	Record(ctx, PhaseStorage, nil)

	if c.Len() != 10 {
		t.Fatalf("expected 10 entries, got %d", c.Len())
	}
	for _, e := range c.Entries() {
		if e.Phase != PhaseImages || e.Message != "provider down" {
			t.Fatalf("unexpected entry: %+v", e)
		}
	}
}

func TestRecordWithoutCollector(t *testing.T) {
	t.Parallel()

	Record(context.Background(), PhaseScraping, errors.New("ignored"))
	if FromContext(context.Background()) != nil {
		t.Fatalf("expected no collector")
	}
}
