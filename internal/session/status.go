package session

// QuestionStatus is the navigation/answer state of a single question within a
// session. The palette on the client renders one color per status.
type QuestionStatus string

const (
	NotVisited        QuestionStatus = "notVisited"
	NotAnswered       QuestionStatus = "notAnswered"
	Answered          QuestionStatus = "answered"
	Marked            QuestionStatus = "marked"
	AnsweredAndMarked QuestionStatus = "answeredAndMarked"
)

// Valid reports whether s is one of the five known statuses.
func (s QuestionStatus) Valid() bool {
	switch s {
	case NotVisited, NotAnswered, Answered, Marked, AnsweredAndMarked:
		return true
	}
	return false
}

// IsAnswered reports whether the status carries an answer.
func (s QuestionStatus) IsAnswered() bool {
	return s == Answered || s == AnsweredAndMarked
}

// Visit transitions a question's status when it becomes the current question.
// Only not-visited promotes to not-answered; every other status is kept.
func Visit(s QuestionStatus) QuestionStatus {
	if s == NotVisited {
		return NotAnswered
	}
	return s
}

// Answer transitions a question's status when a non-empty answer is saved.
// A marked question keeps its mark.
func Answer(s QuestionStatus) QuestionStatus {
	if s == Marked || s == AnsweredAndMarked {
		return AnsweredAndMarked
	}
	return Answered
}

// Clear transitions a question's status when its answer is removed. The mark
// survives clearing.
func Clear(s QuestionStatus) QuestionStatus {
	if s == Marked || s == AnsweredAndMarked {
		return Marked
	}
	return NotAnswered
}

// Mark transitions a question's status when it is flagged for review. The
// variant depends on whether an answer is currently present.
func Mark(s QuestionStatus, hasAnswer bool) QuestionStatus {
	if hasAnswer {
		return AnsweredAndMarked
	}
	return Marked
}
