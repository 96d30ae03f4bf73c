package keyword

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"community", "garden", "grant"}, Tokenize("Community Garden Grant!"))
	assert.Equal(t, []string{"self", "harm"}, Tokenize("self-harm"))
	// unicode折叠
	assert.Equal(t, []string{"naive"}, Tokenize("naïve"))
	assert.Empty(t, Tokenize("   "))
}

func TestMatchTerms(t *testing.T) {
	terms := []string{"vermin", "sexual assault"}

	matched := MatchTerms("These people are VERMIN and worse", terms)
	assert.Equal(t, []string{"vermin"}, matched)

	// 多词词条按短语匹配
	matched = MatchTerms("report of a sexual assault downtown", terms)
	assert.Equal(t, []string{"sexual assault"}, matched)

	// 词内子串不算命中
	assert.Empty(t, MatchTerms("the verminator movie review", terms))
	assert.Empty(t, MatchTerms("", terms))
	assert.Empty(t, MatchTerms("anything", nil))
}

func TestHasContentWarning(t *testing.T) {
	assert.True(t, HasContentWarning("CW: discussion of violence"))
	assert.True(t, HasContentWarning("this piece carries a Content Warning up top"))
	assert.False(t, HasContentWarning("an ordinary article about gardens"))
}
