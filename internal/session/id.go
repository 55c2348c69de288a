package session

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const suffixLen = 9

// NewID returns a session identifier of the form user_<unix-millis>_<suffix>,
// where suffix is nine base-36 characters drawn from a random UUID.
func NewID() string {
	return newIDAt(time.Now())
}

func newIDAt(now time.Time) string {
	u := uuid.New()
	suffix := strconv.FormatUint(binary.BigEndian.Uint64(u[8:]), 36)
	if len(suffix) < suffixLen {
		suffix = strings.Repeat("0", suffixLen-len(suffix)) + suffix
	}
	return "user_" + strconv.FormatInt(now.UnixMilli(), 10) + "_" + suffix[len(suffix)-suffixLen:]
}
