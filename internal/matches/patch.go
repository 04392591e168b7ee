package matches

import (
	"encoding/json"
	"fmt"

	"github.com/Billy-Davies-2/picklewickel-scores/internal/errs"
	"github.com/Billy-Davies-2/picklewickel-scores/internal/models"
)

// ApplyPatch deep-merges a partial update into m. Nested objects (team1,
// team2) merge key by key; arrays and scalars replace. The id is immutable.
// The result is cleaned and validated.
func ApplyPatch(m models.Match, patch map[string]any) (models.Match, error) {
	base, err := json.Marshal(m)
	if err != nil {
		return m, fmt.Errorf("failed to encode match: %w", err)
	}

	var doc map[string]any
	if err := json.Unmarshal(base, &doc); err != nil {
		return m, fmt.Errorf("failed to decode match: %w", err)
	}

	mergeInto(doc, patch)
	doc["id"] = m.ID

	merged, err := json.Marshal(doc)
	if err != nil {
		return m, errs.Validation(fmt.Sprintf("invalid patch: %v", err))
	}

	var out models.Match
	if err := json.Unmarshal(merged, &out); err != nil {
		return m, errs.Validation(fmt.Sprintf("invalid patch: %v", err))
	}

	out = CleanMatchData(out)
	if err := Validate(out); err != nil {
		return m, err
	}
	return out, nil
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		srcObj, srcIsObj := v.(map[string]any)
		dstObj, dstIsObj := dst[k].(map[string]any)
		if srcIsObj && dstIsObj {
			mergeInto(dstObj, srcObj)
			continue
		}
		dst[k] = v
	}
}
