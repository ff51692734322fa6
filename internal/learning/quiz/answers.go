package quiz

// AnswerSet maps a question position to the selected option index. Positions appear only once
// the learner has answered them.
type AnswerSet map[int]int

func (a AnswerSet) Has(position int) bool {
	_, ok := a[position]
	return ok
}

func (a AnswerSet) Selected(position int) (int, bool) {
	v, ok := a[position]
	return v, ok
}

func (a AnswerSet) Clone() AnswerSet {
	out := make(AnswerSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
