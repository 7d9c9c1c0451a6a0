package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"microblog/internal/models"
)

var nicknameRegex = regexp.MustCompile(`^[A-Za-z0-9_.]+$`)

var nicknameStrip = regexp.MustCompile(`[^A-Za-z0-9_.]`)

var reservedNicknames = map[string]struct{}{
	"me":     {},
	"admin":  {},
	"api":    {},
	"auth":   {},
	"feed":   {},
	"login":  {},
	"logout": {},
}

// Nickname validates a nickname chosen by the user.
func Nickname(nickname string) Result {
	r := OK()
	switch {
	case nickname == "":
		r.Fail("nickname", "Nickname is required")
	case utf8.RuneCountInString(nickname) > models.MaxNicknameLength:
		r.Fail("nickname", fmt.Sprintf("Nickname too long (max %d characters)", models.MaxNicknameLength))
	case !nicknameRegex.MatchString(nickname):
		r.Fail("nickname", "Nickname may only contain letters, numbers, dots, and underscores")
	default:
		if _, reserved := reservedNicknames[strings.ToLower(nickname)]; reserved {
			r.Fail("nickname", "Nickname is reserved")
		}
	}
	return r
}

// AboutMe validates the profile blurb.
func AboutMe(aboutMe string) Result {
	r := OK()
	if utf8.RuneCountInString(aboutMe) > models.MaxAboutMeLength {
		r.Fail("about_me", fmt.Sprintf("About me too long (max %d characters)", models.MaxAboutMeLength))
	}
	return r
}

// Profile validates an edit-profile submission.
func Profile(nickname, aboutMe string) Result {
	r := Nickname(nickname)
	r.Merge(AboutMe(aboutMe))
	return r
}

// Email validates an address supplied by an identity provider.
func Email(email string) Result {
	r := OK()
	switch {
	case email == "":
		r.Fail("email", "Email is required")
	case len(email) > models.MaxEmailLength:
		r.Fail("email", fmt.Sprintf("Email too long (max %d characters)", models.MaxEmailLength))
	default:
		if _, err := mail.ParseAddress(email); err != nil {
			r.Fail("email", "Email is not a valid address")
		}
	}
	return r
}

// NormalizeEmail lower-cases and trims an address for storage and lookup.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SanitizeNickname turns an identity-provider suggestion into a usable
// nickname. It falls back to the e-mail local part, then to "user".
func SanitizeNickname(suggested, email string) string {
	nickname := nicknameStrip.ReplaceAllString(strings.TrimSpace(suggested), "")
	if nickname == "" {
		local, _, _ := strings.Cut(email, "@")
		nickname = nicknameStrip.ReplaceAllString(local, "")
	}
	if nickname == "" {
		nickname = "user"
	}
	if _, reserved := reservedNicknames[strings.ToLower(nickname)]; reserved {
		nickname = nickname + "_"
	}
	return TruncateNickname(nickname, models.MaxNicknameLength)
}

// TruncateNickname cuts s to at most limit characters.
func TruncateNickname(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit])
}
