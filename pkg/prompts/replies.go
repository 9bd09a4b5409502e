package prompts

import (
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

// MaxReplies is the number of smart replies shown.
const MaxReplies = 3

type Replies struct {
	Replies []string `json:"replies" jsonschema:"description=Short candidate replies to the last message"`
}

func repliesSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference: true,
	}
	s := r.Reflect(&Replies{})
	s.Version = ""
	return s
}

// RepliesSchema is the JSON schema of the smart reply answer.
func RepliesSchema() (string, error) {
	b, err := json.MarshalIndent(repliesSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "could not marshal replies schema")
	}
	return string(b), nil
}

// ParseReplies validates a provider answer against the replies schema and returns at
// most MaxReplies non-empty replies.
func ParseReplies(answer string) ([]string, error) {
	payload := stripCodeFence(answer)

	schema, err := RepliesSchema()
	if err != nil {
		return nil, err
	}
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schema),
		gojsonschema.NewStringLoader(payload),
	)
	if err != nil {
		return nil, errors.Wrap(err, "could not validate replies")
	}
	if !result.Valid() {
		msgs := []string{}
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return nil, errors.Errorf("invalid replies: %s", strings.Join(msgs, "; "))
	}

	var replies Replies
	if err := json.Unmarshal([]byte(payload), &replies); err != nil {
		return nil, errors.Wrap(err, "could not parse replies")
	}

	ret := []string{}
	for _, r := range replies.Replies {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		ret = append(ret, r)
		if len(ret) == MaxReplies {
			break
		}
	}
	return ret, nil
}

// stripCodeFence removes a surrounding markdown code fence, which some models add to JSON answers.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.Index(s, "\n"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
