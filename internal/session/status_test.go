package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVisit(t *testing.T) {
	assert.Equal(t, NotAnswered, Visit(NotVisited))
	assert.Equal(t, NotAnswered, Visit(NotAnswered))
	assert.Equal(t, Answered, Visit(Answered))
	assert.Equal(t, Marked, Visit(Marked))
	assert.Equal(t, AnsweredAndMarked, Visit(AnsweredAndMarked))
}

func TestAnswer(t *testing.T) {
	assert.Equal(t, Answered, Answer(NotVisited))
	assert.Equal(t, Answered, Answer(NotAnswered))
	assert.Equal(t, Answered, Answer(Answered))
	assert.Equal(t, AnsweredAndMarked, Answer(Marked))
	assert.Equal(t, AnsweredAndMarked, Answer(AnsweredAndMarked))
}

func TestClear(t *testing.T) {
	assert.Equal(t, NotAnswered, Clear(Answered))
	assert.Equal(t, NotAnswered, Clear(NotAnswered))
	assert.Equal(t, Marked, Clear(Marked))
	assert.Equal(t, Marked, Clear(AnsweredAndMarked))
}

func TestMark(t *testing.T) {
	assert.Equal(t, Marked, Mark(NotAnswered, false))
	assert.Equal(t, AnsweredAndMarked, Mark(Answered, true))
	assert.Equal(t, Marked, Mark(NotVisited, false))
}

func TestStatusValid(t *testing.T) {
	for _, s := range []QuestionStatus{NotVisited, NotAnswered, Answered, Marked, AnsweredAndMarked} {
		assert.True(t, s.Valid(), string(s))
	}
	assert.False(t, QuestionStatus("skipped").Valid())
}
