package dispatcher

import (
	"encoding/json"
	"fmt"
)

// FormatResponse renders a handler result for the host as a JSON array:
// ["ok", "<cmd>"], ["ok", "<cmd>", <result>] or ["error", "<cmd>", "<msg>"].
func FormatResponse(command string, result any, err error) string {
	var reply []any
	switch {
	case err != nil:
		reply = []any{"error", command, err.Error()}
	case result == nil:
		reply = []any{"ok", command}
	default:
		reply = []any{"ok", command, result}
	}

	data, mErr := json.Marshal(reply)
	if mErr != nil {
		data, _ = json.Marshal([]any{"error", command, fmt.Sprintf("encode result: %v", mErr)})
	}
	return string(data)
}
