package apicache

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// serializeArgs renders args as canonical JSON: every field is kept and
// object keys are sorted, so equal arguments always share one entry.
func serializeArgs(args any) string {
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%#v", args)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return string(raw)
	}
	canonical, err := json.Marshal(generic)
	if err != nil {
		return string(raw)
	}
	return string(canonical)
}

func cacheKey(api, endpoint string, args any) string {
	return api + "/" + endpoint + "(" + serializeArgs(args) + ")"
}
