package validation

import (
	"strconv"
	"unicode/utf8"

	"microblog/internal/models"
)

// maxNicknameProbes bounds UniqueNickname so a broken lookup cannot spin forever.
const maxNicknameProbes = 1_000_000

// SuffixedNickname appends n to base, trimming base so the result still fits
// the nickname length limit.
func SuffixedNickname(base string, n int) string {
	suffix := strconv.Itoa(n)
	room := models.MaxNicknameLength - utf8.RuneCountInString(suffix)
	return TruncateNickname(base, room) + suffix
}

// UniqueNickname returns nickname if it is free, otherwise the first free
// candidate among nickname2, nickname3, and so on.
func UniqueNickname(nickname string, taken func(string) (bool, error)) (string, error) {
	nickname = TruncateNickname(nickname, models.MaxNicknameLength)
	used, err := taken(nickname)
	if err != nil {
		return "", err
	}
	if !used {
		return nickname, nil
	}
	for n := 2; n < maxNicknameProbes; n++ {
		candidate := SuffixedNickname(nickname, n)
		used, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !used {
			return candidate, nil
		}
	}
	return "", models.NewNicknameTakenError(nickname)
}
