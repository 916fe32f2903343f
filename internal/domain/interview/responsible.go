package interview

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	rankResponsible = iota
	rankHead
	rankParent
	rankOther
)

var (
	responsibleTerms = []string{"respons"}
	headTerms        = []string{"chefe", "head"}
	parentWords      = map[string]struct{}{"pai": {}, "mae": {}, "father": {}, "mother": {}}
)

// PickResponsible chooses the member who represents the household: an
// explicit "responsavel" first, then the head of household, then a parent,
// then anyone. Ties go to the most recent birth date, then the highest id.
func PickResponsible(members []MemberRef) *MemberRef {
	var best *MemberRef
	bestRank := rankOther + 1
	for i := range members {
		candidate := &members[i]
		rank := relationRank(candidate.Relation)
		if best == nil || rank < bestRank || (rank == bestRank && outranks(candidate, best)) {
			best = candidate
			bestRank = rank
		}
	}
	if best == nil {
		return nil
	}
	picked := *best
	return &picked
}

func outranks(a, b *MemberRef) bool {
	switch {
	case a.BirthDate != nil && b.BirthDate == nil:
		return true
	case a.BirthDate == nil && b.BirthDate != nil:
		return false
	case a.BirthDate != nil && !a.BirthDate.Equal(*b.BirthDate):
		return a.BirthDate.After(*b.BirthDate)
	}
	return a.ID > b.ID
}

func relationRank(relation string) int {
	value := foldRelation(relation)
	if value == "" {
		return rankOther
	}
	for _, term := range responsibleTerms {
		if strings.Contains(value, term) {
			return rankResponsible
		}
	}
	for _, term := range headTerms {
		if strings.Contains(value, term) {
			return rankHead
		}
	}
	for _, word := range strings.FieldsFunc(value, func(r rune) bool { return !unicode.IsLetter(r) }) {
		if _, ok := parentWords[word]; ok {
			return rankParent
		}
	}
	return rankOther
}

// foldRelation lower-cases and strips accents so "Mãe" matches "mae".
func foldRelation(value string) string {
	folder := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(folder, value)
	if err != nil {
		folded = value
	}
	return strings.ToLower(strings.TrimSpace(folded))
}
