package registry

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chefwhisper/recipe-viewer/internal/models"
)

// signature computes the duplicate-detection key for a creation request.
// The workflow may re-ask for the same step's timers several times; two
// requests with the same (stepId, source, bulletIndex, matchIndex, duration)
// coordinates describe the same timer and the second one is suppressed.
//
// stepId, source and matchIndex are mandatory; a request lacking any of them
// is an ad-hoc creation (interpreter or API button) and bypasses duplicate
// detection entirely. bulletIndex is part of the signature when present.
func signature(meta map[string]any, duration int) (stepKey, sig string, ok bool) {
	stepID, hasStep := metaString(meta, models.MetaStepID)
	source, hasSource := metaString(meta, models.MetaSource)
	matchIdx, hasMatch := metaString(meta, models.MetaMatchIndex)
	if !hasStep || !hasSource || !hasMatch {
		return "", "", false
	}
	bullet, _ := metaString(meta, models.MetaBulletIndex)

	parts := []string{stepID, source, bullet, matchIdx, strconv.Itoa(duration)}
	return stepID, strings.Join(parts, "|"), true
}

// metaString renders a metadata value as its string form. JSON round-trips
// turn numeric indices into float64, so values are normalized via Sprint
// rather than asserted to a single type.
func metaString(meta map[string]any, key string) (string, bool) {
	if meta == nil {
		return "", false
	}
	v, present := meta[key]
	if !present || v == nil {
		return "", false
	}
	if f, isFloat := v.(float64); isFloat && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10), true
	}
	return fmt.Sprint(v), true
}
