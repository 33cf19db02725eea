package nlp

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"hibiki/internal/intent"
)

// replySchema is the contract the model's JSON output must satisfy before
// any field of it is trusted. Confidence bounds are enforced here so the
// guard never sees an out-of-range score.
const replySchema = `{
	"type": "object",
	"required": ["intent", "confidence"],
	"properties": {
		"intent": {"type": "string", "minLength": 1},
		"parameters": {"type": "object"},
		"confidence": {"type": "number", "minimum": 0, "maximum": 1}
	}
}`

var compiledReplySchema = jsonschema.MustCompileString("reply.json", replySchema)

// decodeReply parses and schema-checks the raw model output. Any violation
// is reported as intent.ErrMalformedOutput with the cause attached.
func decodeReply(raw []byte) (*llmReply, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: invalid JSON: %v", intent.ErrMalformedOutput, err)
	}
	if err := compiledReplySchema.Validate(doc); err != nil {
		return nil, fmt.Errorf("%w: %v", intent.ErrMalformedOutput, err)
	}

	var reply llmReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		return nil, fmt.Errorf("%w: %v", intent.ErrMalformedOutput, err)
	}
	if strings.TrimSpace(reply.Intent) == "" {
		return nil, fmt.Errorf("%w: empty intent", intent.ErrMalformedOutput)
	}
	return &reply, nil
}

// nowRFC3339 timestamps the system prompt so the model resolves relative
// datetimes against the right clock.
func nowRFC3339() string {
	return time.Now().Format(time.RFC3339)
}
