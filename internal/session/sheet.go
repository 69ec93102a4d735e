package session

import "strconv"

// Sheet tracks per-question answers and statuses for one session, plus the
// bounded current-question pointer. It is a pure in-memory structure; the
// service layer persists it through the session's JSON columns.
type Sheet struct {
	// QuestionIDs fixes the question order; Current indexes into it.
	QuestionIDs []uint
	Current     int

	// Answers and Statuses are keyed by question id rendered as a string so
	// they round-trip through JSON columns without key conversion.
	Answers  map[string]string
	Statuses map[string]QuestionStatus
}

// NewSheet builds the initial sheet for a question list: the first question is
// visited (not-answered), all others not-visited.
func NewSheet(questionIDs []uint) *Sheet {
	s := &Sheet{
		QuestionIDs: questionIDs,
		Current:     0,
		Answers:     make(map[string]string, len(questionIDs)),
		Statuses:    make(map[string]QuestionStatus, len(questionIDs)),
	}
	for i, id := range questionIDs {
		if i == 0 {
			s.Statuses[key(id)] = NotAnswered
		} else {
			s.Statuses[key(id)] = NotVisited
		}
	}
	return s
}

// RestoreSheet rebuilds a sheet from persisted maps. Unknown questions get
// not-visited so a definition change never leaves a hole in the palette.
func RestoreSheet(questionIDs []uint, answers map[string]string, statuses map[string]QuestionStatus, current int) *Sheet {
	s := &Sheet{
		QuestionIDs: questionIDs,
		Current:     clamp(current, 0, len(questionIDs)-1),
		Answers:     answers,
		Statuses:    statuses,
	}
	if s.Answers == nil {
		s.Answers = make(map[string]string)
	}
	if s.Statuses == nil {
		s.Statuses = make(map[string]QuestionStatus)
	}
	for _, id := range questionIDs {
		if _, ok := s.Statuses[key(id)]; !ok {
			s.Statuses[key(id)] = NotVisited
		}
	}
	return s
}

// Visit makes the question at index i current, promoting not-visited to
// not-answered. Out-of-range indexes are ignored.
func (s *Sheet) Visit(i int) {
	if i < 0 || i >= len(s.QuestionIDs) {
		return
	}
	s.Current = i
	k := key(s.QuestionIDs[i])
	s.Statuses[k] = Visit(s.Statuses[k])
}

// SaveAnswer records an answer for the current question. An empty answer
// clears instead.
func (s *Sheet) SaveAnswer(answer string) {
	if len(s.QuestionIDs) == 0 {
		return
	}
	k := key(s.QuestionIDs[s.Current])
	if answer == "" {
		delete(s.Answers, k)
		s.Statuses[k] = Clear(s.Statuses[k])
		return
	}
	s.Answers[k] = answer
	s.Statuses[k] = Answer(s.Statuses[k])
}

// ClearAnswer removes the current question's answer, preserving any mark.
func (s *Sheet) ClearAnswer() {
	s.SaveAnswer("")
}

// MarkForReview flags the current question for review; the variant tracks
// whether an answer is present.
func (s *Sheet) MarkForReview() {
	if len(s.QuestionIDs) == 0 {
		return
	}
	k := key(s.QuestionIDs[s.Current])
	_, hasAnswer := s.Answers[k]
	s.Statuses[k] = Mark(s.Statuses[k], hasAnswer)
}

// SaveAndNext saves the answer, then advances the pointer. On the last
// question the pointer stays put.
func (s *Sheet) SaveAndNext(answer string) {
	s.SaveAnswer(answer)
	s.Next()
}

// Next advances to the following question, bounded at the end.
func (s *Sheet) Next() {
	if s.Current+1 < len(s.QuestionIDs) {
		s.Visit(s.Current + 1)
	}
}

// Prev moves to the preceding question, bounded at the start.
func (s *Sheet) Prev() {
	if s.Current > 0 {
		s.Visit(s.Current - 1)
	}
}

// Summary holds per-status counts for the palette legend. It is derived on
// demand and never stored.
type Summary struct {
	NotVisited        int `json:"not_visited"`
	NotAnswered       int `json:"not_answered"`
	Answered          int `json:"answered"`
	Marked            int `json:"marked"`
	AnsweredAndMarked int `json:"answered_and_marked"`
}

// Summarize counts questions by status. Every question id has an entry after
// NewSheet/RestoreSheet, so the map carries the full palette.
func (s *Sheet) Summarize() Summary {
	return Summarize(s.Statuses)
}

// Summarize counts a status map into the palette legend.
func Summarize(statuses map[string]QuestionStatus) Summary {
	var sum Summary
	for _, st := range statuses {
		switch st {
		case NotAnswered:
			sum.NotAnswered++
		case Answered:
			sum.Answered++
		case Marked:
			sum.Marked++
		case AnsweredAndMarked:
			sum.AnsweredAndMarked++
		default:
			sum.NotVisited++
		}
	}
	return sum
}

func key(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
