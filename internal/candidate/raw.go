package candidate

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformed marks upstream output that could not be turned into any candidate.
var ErrMalformed = errors.New("malformed candidate output")

// Raw is a candidate as the generation service returned it. Decoding tolerates missing
// fields, scalar values of the wrong type and unknown keys.
type Raw struct {
	Headline string   `json:"headline"`
	Subline  string   `json:"subline"`
	Hashtags []string `json:"hashtags"`
	Reasons  string   `json:"reasons"`
}

// UnmarshalJSON coerces loosely typed fields into strings.
func (r *Raw) UnmarshalJSON(data []byte) error {
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = rawFromMap(fields)
	return nil
}

func rawFromMap(fields map[string]any) Raw {
	reasons := coerceString(fields["reasons"])
	if reasons == "" {
		reasons = coerceString(fields["reason"])
	}
	return Raw{
		Headline: coerceString(fields["headline"]),
		Subline:  coerceString(fields["subline"]),
		Hashtags: coerceList(fields["hashtags"]),
		Reasons:  reasons,
	}
}

// ParseRaw extracts candidates from model output. It accepts a JSON array of candidates,
// an object with a "candidates" array, or a single candidate object, optionally wrapped
// in a markdown code fence or surrounding prose.
func ParseRaw(content string) ([]Raw, error) {
	block := normalizeJSONBlock(content)
	if block == "" {
		return nil, fmt.Errorf("%w: empty content", ErrMalformed)
	}
	var decoded any
	if err := json.Unmarshal([]byte(block), &decoded); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var items []any
	switch v := decoded.(type) {
	case []any:
		items = v
	case map[string]any:
		if list, ok := v["candidates"].([]any); ok {
			items = list
		} else {
			items = []any{v}
		}
	default:
		return nil, fmt.Errorf("%w: unexpected %T", ErrMalformed, decoded)
	}

	out := make([]Raw, 0, len(items))
	for _, item := range items {
		fields, ok := item.(map[string]any)
		if !ok {
			continue
		}
		raw := rawFromMap(fields)
		if strings.TrimSpace(raw.Headline) == "" && strings.TrimSpace(raw.Subline) == "" {
			continue
		}
		out = append(out, raw)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: no usable candidates", ErrMalformed)
	}
	return out, nil
}

func normalizeJSONBlock(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.IndexRune(trimmed, '\n'); idx >= 0 {
			trimmed = trimmed[idx+1:]
		}
		if strings.HasSuffix(trimmed, "```") {
			trimmed = trimmed[:len(trimmed)-3]
		}
	}
	trimmed = strings.TrimSpace(trimmed)

	opener, closer := "{", "}"
	obj := strings.Index(trimmed, "{")
	arr := strings.Index(trimmed, "[")
	if arr >= 0 && (obj < 0 || arr < obj) {
		opener, closer = "[", "]"
	}
	start := strings.Index(trimmed, opener)
	end := strings.LastIndex(trimmed, closer)
	if start >= 0 && end >= start {
		return strings.TrimSpace(trimmed[start : end+1])
	}
	return trimmed
}

func coerceString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	case []any:
		parts := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, " ")
	default:
		data, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(data)
	}
}

func coerceList(v any) []string {
	switch val := v.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			if s := coerceString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		return strings.FieldsFunc(val, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\n' || r == '\t'
		})
	default:
		if s := coerceString(val); s != "" {
			return []string{s}
		}
		return nil
	}
}
