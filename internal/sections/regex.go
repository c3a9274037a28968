package sections

import (
	"regexp"
	"strings"
)

// RegexSectioner recognizes bold markdown headers of the form **Header:**.
// A section runs from its header to the next recognized **Header: or the
// end of the text. Other bold headers stay inside the surrounding section.
type RegexSectioner struct {
	boundary *regexp.Regexp
}

// NewRegexSectioner builds a sectioner over the fixed Headers list.
func NewRegexSectioner() *RegexSectioner {
	names := make([]string, len(Headers))
	for i, h := range Headers {
		names[i] = regexp.QuoteMeta(h)
	}
	return &RegexSectioner{
		boundary: regexp.MustCompile(`\*\*(` + strings.Join(names, "|") + `):`),
	}
}

// Sectionize never fails: unmatched sections are empty and a response with
// no recognized header carries ParseFailedMessage.
func (s *RegexSectioner) Sectionize(text string) Response {
	resp := NewResponse()
	locs := s.boundary.FindAllStringSubmatchIndex(text, -1)

	matched := 0
	for i, loc := range locs {
		start := loc[1]
		if !strings.HasPrefix(text[start:], "**") {
			continue
		}
		start += 2

		end := len(text)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		resp.Set(text[loc[2]:loc[3]], strings.TrimSpace(text[start:end]))
		matched++
	}

	if matched == 0 {
		resp.Error = ParseFailedMessage
	}
	return resp
}
