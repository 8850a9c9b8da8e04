package output

import (
	"encoding/json"

	"github.com/itchyny/gojq"
)

// ApplyJQ runs a jq expression over v's JSON form and collects every result.
func ApplyJQ(expr string, v any) ([]any, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, ErrUsageHint("invalid --jq expression", err.Error())
	}

	// gojq only understands plain JSON values.
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var input any
	if err := json.Unmarshal(b, &input); err != nil {
		return nil, err
	}

	var out []any
	iter := query.Run(input)
	for {
		r, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := r.(error); ok {
			if _, halt := err.(*gojq.HaltError); halt {
				break
			}
			return nil, ErrUsageHint("--jq evaluation failed", err.Error())
		}
		out = append(out, r)
	}
	return out, nil
}
