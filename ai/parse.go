// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ai

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"
)

// ParseStage records which parse strategy accepted a reply.
type ParseStage int

const (
	// StageFailed means neither strategy produced a JSON object.
	StageFailed ParseStage = iota
	// StageStrict means the reply was a JSON object as returned.
	StageStrict
	// StageNormalized means the reply parsed after code fences were removed.
	StageNormalized
)

func (s ParseStage) String() string {
	switch s {
	case StageStrict:
		return "strict"
	case StageNormalized:
		return "normalized"
	default:
		return "failed"
	}
}

// ParseResult is the tagged outcome of ParseStoryboard.
// Exactly one of Content and Err is set.
type ParseResult struct {
	Content json.RawMessage
	Stage   ParseStage
	Err     error
}

// OK reports whether the reply was accepted.
func (r ParseResult) OK() bool {
	return r.Err == nil
}

const excerptRunes = 120

var (
	fenceLanguageTag = regexp.MustCompile(`^[A-Za-z0-9_+-]+$`)
	errNotObject     = errors.New("reply is not a JSON object")
)

// ParseStoryboard parses a generative reply in two stages: a strict parse of
// the reply as returned, then exactly one parse of the reply with code-fence
// markup and surrounding whitespace removed.
func ParseStoryboard(reply string) ParseResult {
	if content, err := parseObject(reply); err == nil {
		return ParseResult{Content: content, Stage: StageStrict}
	}

	content, err := parseObject(normalizeReply(reply))
	if err != nil {
		return ParseResult{
			Stage: StageFailed,
			Err:   &MalformedOutputError{Excerpt: excerpt(reply), Err: err},
		}
	}
	return ParseResult{Content: content, Stage: StageNormalized}
}

func parseObject(s string) (json.RawMessage, error) {
	b := bytes.TrimSpace([]byte(s))
	var raw json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, err
	}
	if len(b) == 0 || b[0] != '{' {
		return nil, errNotObject
	}
	return raw, nil
}

// normalizeReply strips backticks and whitespace from both ends and, when the
// reply opened with a fence, the language tag that followed it.
func normalizeReply(s string) string {
	trimmed := strings.TrimSpace(s)
	fenced := strings.HasPrefix(trimmed, "```")

	s = strings.Trim(trimmed, "` \t\r\n")
	if !fenced {
		return s
	}

	if i := strings.IndexAny(s, "\r\n"); i > 0 && fenceLanguageTag.MatchString(strings.TrimSpace(s[:i])) {
		s = s[i+1:]
	} else if rest, ok := strings.CutPrefix(s, "json"); ok {
		s = rest
	}
	return strings.Trim(s, "` \t\r\n")
}

func excerpt(s string) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= excerptRunes {
		return s
	}
	return string([]rune(s)[:excerptRunes])
}
