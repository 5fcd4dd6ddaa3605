package runtime

import (
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// warnf logs a recoverable §7 Warning: invalid style/string/resource
// index, missing handler, capacity overflow. These never abort the
// build or frame loop; the offending property or element is no-op'd and
// the loop continues (§7 "Policy").
func warnf(frameID string, msg string, kv map[string]any) {
	ev := log.Warn()
	if frameID != "" {
		ev = ev.Str("frame_id", frameID)
	}
	for k, v := range kv {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// newFrameID tags one frame's dispatch/log lines for correlation, purely
// for observability — never used for synchronization (§5 concurrency
// model is strictly single-threaded cooperative).
func newFrameID() string {
	return uuid.NewString()
}
