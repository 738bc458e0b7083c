package httpd

import (
	"strconv"
	"strings"
)

// parsedRange is the result of parsing a simple "bytes=START-END" Range
// header against a file of a known size.
type parsedRange struct {
	start, stop int64 // [start, stop)
}

// parseRange parses header against size, following the simple single-range
// grammar of §4.3 step 5. ok is false when the header is absent or not in
// that exact form (caller should then serve the whole file); satisfiable is
// false when the header parsed but violates 0 <= start < stop <= size, in
// which case the caller must reply 416 (REDESIGN FLAG, §9/§13).
func parseRange(header string, size int64) (r parsedRange, ok bool, satisfiable bool) {
	const prefix = "bytes="
	if !strings.HasPrefix(header, prefix) {
		return parsedRange{}, false, false
	}
	spec := header[len(prefix):]
	if strings.Contains(spec, ",") {
		return parsedRange{}, false, false
	}
	dash := strings.IndexByte(spec, '-')
	if dash < 0 {
		return parsedRange{}, false, false
	}
	startStr, endStr := spec[:dash], spec[dash+1:]
	if startStr == "" && endStr == "" {
		// "bytes=-" : not a simple range, per the boundary behaviour in §8.
		return parsedRange{}, false, false
	}

	var start, stop int64
	var err error
	if startStr != "" {
		start, err = strconv.ParseInt(startStr, 10, 64)
		if err != nil {
			return parsedRange{}, false, false
		}
	}
	if endStr == "" {
		stop = size
	} else {
		end, err := strconv.ParseInt(endStr, 10, 64)
		if err != nil {
			return parsedRange{}, false, false
		}
		stop = end + 1
	}

	if start < 0 || start >= stop || stop > size {
		return parsedRange{start: start, stop: stop}, true, false
	}
	return parsedRange{start: start, stop: stop}, true, true
}
