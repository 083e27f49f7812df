package log

import (
	"sync"
	"testing"
)

func TestConfigureIsSafeUnderConcurrentLogging(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				// Error level keeps the loop quiet on stdout.
				Configure("error", false)
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				Info().Msg("concurrent write")
				Logger().Debug().Msg("snapshot write")
			}
		}()
	}
	wg.Wait()

	Configure("info", false)
}

func TestParseLogLevel(t *testing.T) {
	cases := map[string]string{
		"debug":   "debug",
		"WARNING": "warn",
		"error":   "error",
		"bogus":   "info",
		"":        "info",
	}
	for in, want := range cases {
		if got := parseLogLevel(in).String(); got != want {
			t.Fatalf("parseLogLevel(%q) = %q, want %q", in, got, want)
		}
	}
}
