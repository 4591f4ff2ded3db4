package service

import (
	"testing"

	"quiz_nft_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreSingleCategoryWins(t *testing.T) {
	db := newTestDB(t)
	quiz := seedHouseQuiz(t, db)
	scoring := NewScoringService()

	ids := answersFor(t, quiz, "gryffindor", "gryffindor", "gryffindor")
	category, score, err := scoring.Score(quiz, ids)
	require.NoError(t, err)
	assert.Equal(t, "gryffindor", category)
	assert.Equal(t, 6, score)
}

func TestScoreMixedAnswers(t *testing.T) {
	db := newTestDB(t)
	quiz := seedHouseQuiz(t, db)
	scoring := NewScoringService()

	// 2 票 ravenclaw 对 1 票 slytherin
	ids := answersFor(t, quiz, "ravenclaw", "slytherin", "ravenclaw")
	category, score, err := scoring.Score(quiz, ids)
	require.NoError(t, err)
	assert.Equal(t, "ravenclaw", category)
	assert.Equal(t, 4, score)
}

func TestScoreTieBreakFirstSeenWins(t *testing.T) {
	db := newTestDB(t)
	quiz := seedHouseQuiz(t, db)
	scoring := NewScoringService()

	// 平局时取遍历中最先出现的类别
	ids := answersFor(t, quiz, "hufflepuff", "gryffindor", "slytherin")
	category, _, err := scoring.Score(quiz, ids)
	require.NoError(t, err)
	assert.Equal(t, "hufflepuff", category)

	// 同样的答案换个顺序，最先出现的类别跟着变
	reordered := []uint{ids[1], ids[0], ids[2]}
	category, _, err = scoring.Score(quiz, reordered)
	require.NoError(t, err)
	assert.Equal(t, "gryffindor", category)
}

func TestScoreDeterministic(t *testing.T) {
	db := newTestDB(t)
	quiz := seedHouseQuiz(t, db)
	scoring := NewScoringService()

	ids := answersFor(t, quiz, "slytherin", "ravenclaw", "slytherin")
	first, firstScore, err := scoring.Score(quiz, ids)
	require.NoError(t, err)

	for i := 0; i < 10; i++ {
		category, score, err := scoring.Score(quiz, ids)
		require.NoError(t, err)
		assert.Equal(t, first, category)
		assert.Equal(t, firstScore, score)
	}
}

func TestScoreEmptyAnswers(t *testing.T) {
	db := newTestDB(t)
	quiz := seedHouseQuiz(t, db)
	scoring := NewScoringService()

	_, _, err := scoring.Score(quiz, nil)
	assert.ErrorIs(t, err, util.ErrEmptyAnswerSet)
}

func TestScoreUnknownAnswerID(t *testing.T) {
	db := newTestDB(t)
	quiz := seedHouseQuiz(t, db)
	scoring := NewScoringService()

	ids := answersFor(t, quiz, "gryffindor", "gryffindor", "gryffindor")
	ids[1] = 99999
	_, _, err := scoring.Score(quiz, ids)
	assert.ErrorIs(t, err, util.ErrInvalidAnswerSet)
}
