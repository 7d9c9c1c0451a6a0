package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"microblog/internal/models"
)

// PostBody checks that a trimmed body is non-empty and within the length bound.
// Length is counted in characters, not bytes.
func PostBody(body string) Result {
	r := OK()
	trimmed := strings.TrimSpace(body)
	switch {
	case trimmed == "":
		r.Fail("body", "Post body is required")
	case utf8.RuneCountInString(trimmed) > models.MaxPostBodyLength:
		r.Fail("body", fmt.Sprintf("Post body too long (max %d characters)", models.MaxPostBodyLength))
	}
	return r
}
