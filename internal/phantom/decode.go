package phantom

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/unclebandit/talentreach-backend/internal/model"
)

// ParseContainerID pulls the execution id out of a launch response. The
// platform has used containerId, container.id and id; they are tried in
// that order.
func ParseContainerID(raw []byte) (string, error) {
	var body map[string]any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return "", fmt.Errorf("decoding launch response: %w", err)
	}

	if id := scalarString(body["containerId"]); id != "" {
		return id, nil
	}
	if container, ok := body["container"].(map[string]any); ok {
		if id := scalarString(container["id"]); id != "" {
			return id, nil
		}
	}
	if id := scalarString(body["id"]); id != "" {
		return id, nil
	}
	return "", fmt.Errorf("launch response has no container id")
}

var terminalStatuses = map[string]model.RunStatus{
	"success": model.RunSuccess,
	"failed":  model.RunFailed,
	"aborted": model.RunAborted,
}

// ParseStatus maps a raw platform status onto a run status. Anything that
// is not a known terminal marker means the run is still in progress.
func ParseStatus(raw string) model.RunStatus {
	if s, ok := terminalStatuses[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return s
	}
	return model.RunRunning
}

// preferred list-valued fields when the output is an object
var leadFields = []string{"resultObject", "results", "data", "leads", "output"}

// ExtractLeads returns the lead objects in an output payload, which is either
// a bare array or an object holding the array in one of its fields. A
// resultObject that is itself a JSON-encoded string is decoded first.
// Elements that are not objects are skipped, and so are fields whose array
// holds no objects.
func ExtractLeads(payload []byte) ([]map[string]any, error) {
	payload = bytes.TrimSpace(payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		return nil, nil
	}

	var v any
	if err := json.Unmarshal(payload, &v); err != nil {
		return nil, fmt.Errorf("decoding output: %w", err)
	}
	return leadsFrom(v, 0)
}

func leadsFrom(v any, depth int) ([]map[string]any, error) {
	if depth > 2 {
		return nil, nil
	}
	switch t := v.(type) {
	case []any:
		leads := make([]map[string]any, 0, len(t))
		for _, item := range t {
			if m, ok := item.(map[string]any); ok {
				leads = append(leads, m)
			}
		}
		return leads, nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, nil
		}
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return nil, fmt.Errorf("decoding embedded result object: %w", err)
		}
		return leadsFrom(inner, depth+1)
	case map[string]any:
		// first field holding at least one lead object wins
		for _, key := range leadFields {
			field, ok := t[key]
			if !ok || field == nil {
				continue
			}
			leads, err := leadsFrom(field, depth+1)
			if err != nil {
				return nil, err
			}
			if len(leads) > 0 {
				return leads, nil
			}
		}
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			arr, ok := t[k].([]any)
			if !ok {
				continue
			}
			if leads, _ := leadsFrom(arr, depth+1); len(leads) > 0 {
				return leads, nil
			}
		}
	}
	return nil, nil
}

func scalarString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case json.Number:
		return t.String()
	case float64:
		return fmt.Sprintf("%.0f", t)
	}
	return ""
}
