package parallel

import (
	"sync/atomic"
	"testing"
)

func TestForChannelsVisitsEveryChannelExactlyOnce(t *testing.T) {
	cfg := DefaultConfig()

	const numChannels = 96
	var seen [numChannels]int32

	ForChannels(numChannels, func(oc int) {
		atomic.AddInt32(&seen[oc], 1)
	}, cfg)

	for oc, count := range seen {
		if count != 1 {
			t.Errorf("channel %d visited %d times, want 1", oc, count)
		}
	}
}

func TestForChannelsSequentialFallbackWhenDisabled(t *testing.T) {
	cfg := Config{Enabled: false}

	var total int64
	ForChannels(64, func(oc int) {
		atomic.AddInt64(&total, int64(oc))
	}, cfg)

	if want := int64(64 * 63 / 2); total != want {
		t.Errorf("got sum %d, want %d", total, want)
	}
}

func TestForChannelsFallsBackBelowMinChunkSize(t *testing.T) {
	cfg := DefaultConfig()

	n := cfg.MinChunkSize - 1
	var count int32
	ForChannels(n, func(_ int) {
		atomic.AddInt32(&count, 1)
	}, cfg)

	if int(count) != n {
		t.Errorf("got %d calls, want %d", count, n)
	}
}

func BenchmarkForChannels(b *testing.B) {
	cfg := DefaultConfig()
	const numChannels = 112 // a dec_conv4a-sized output

	b.Run("parallel", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			var sum int64
			ForChannels(numChannels, func(oc int) {
				atomic.AddInt64(&sum, int64(oc))
			}, cfg)
		}
	})

	b.Run("sequential", func(b *testing.B) {
		seqCfg := cfg
		seqCfg.Enabled = false
		for i := 0; i < b.N; i++ {
			var sum int64
			ForChannels(numChannels, func(oc int) {
				atomic.AddInt64(&sum, int64(oc))
			}, seqCfg)
		}
	})
}
