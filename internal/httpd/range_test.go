package httpd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRange(t *testing.T) {
	cases := []struct {
		name           string
		header         string
		size           int64
		wantOK         bool
		wantSatisfy    bool
		wantStart      int64
		wantStop       int64
	}{
		{"simple", "bytes=10-19", 256, true, true, 10, 20},
		{"open-ended", "bytes=250-", 256, true, true, 250, 256},
		{"single byte", "bytes=0-0", 6, true, true, 0, 1},
		{"empty both sides", "bytes=-", 6, false, false, 0, 0},
		{"comma list rejected", "bytes=0-1,2-3", 6, false, false, 0, 0},
		{"missing start defaults to zero", "bytes=-5", 6, true, true, 0, 6},
		{"no prefix", "0-1", 6, false, false, 0, 0},
		{"start beyond size", "bytes=100-200", 50, true, false, 100, 201},
		{"start equals stop", "bytes=5-4", 50, true, false, 5, 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r, ok, satisfiable := parseRange(c.header, c.size)
			assert.Equal(t, c.wantOK, ok)
			if ok {
				assert.Equal(t, c.wantSatisfy, satisfiable)
				if satisfiable {
					assert.Equal(t, c.wantStart, r.start)
					assert.Equal(t, c.wantStop, r.stop)
				}
			}
		})
	}
}
