package conntimer_test

import (
	"testing"
	"time"

	"github.com/dmitrymomot/httprelay/conntimer"
	"github.com/stretchr/testify/assert"
)

func TestTimer_FiresAfterDuration(t *testing.T) {
	tm := conntimer.New()
	tm.ExpiresFromNow(10 * time.Millisecond)

	select {
	case res := <-tm.Wait():
		assert.True(t, res.Elapsed)
	case <-time.After(200 * time.Millisecond):
		t.Fatal("timer never fired")
	}
}

func TestTimer_CancelPreventsFire(t *testing.T) {
	// Invariant 13: a read completing before the deadline cancels the
	// timer, preventing any timeout report.
	tm := conntimer.New()
	tm.ExpiresFromNow(50 * time.Millisecond)
	tm.Cancel()

	select {
	case <-tm.Wait():
		t.Fatal("cancelled timer must not fire")
	case <-time.After(80 * time.Millisecond):
		// expected: no fire
	}
}

func TestTimer_NoDeadlineNeverFires(t *testing.T) {
	tm := conntimer.New()
	select {
	case <-tm.Wait():
		t.Fatal("unarmed timer must never fire")
	case <-time.After(20 * time.Millisecond):
	}
}

func TestTimer_RearmReplacesPreviousDeadline(t *testing.T) {
	tm := conntimer.New()
	tm.ExpiresFromNow(200 * time.Millisecond)
	tm.ExpiresFromNow(10 * time.Millisecond)

	select {
	case res := <-tm.Wait():
		assert.True(t, res.Elapsed)
	case <-time.After(100 * time.Millisecond):
		t.Fatal("rearmed timer should fire at the new, shorter deadline")
	}
}
