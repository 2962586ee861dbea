package delta

import "math/rand"

// randomGen produces small random change deltas against a document of a
// given rune length, for the randomized convergence checks in
// transform_test.go. Seeded deterministically so failures reproduce.
type randomGen struct {
	r *rand.Rand
}

func newRandomGen(seed int64) *randomGen {
	return &randomGen{r: rand.New(rand.NewSource(seed))}
}

var randomWords = []string{"a", "bb", "ccc", "!", " ", "xyz"}

// randomChange builds a change delta valid against a document of the
// given rune length: a run of retains, inserts, and deletes that never
// reads past docLen.
func (g *randomGen) randomChange(docLen int) *Delta {
	d := New()
	pos := 0
	for pos < docLen {
		remaining := docLen - pos
		switch g.r.Intn(3) {
		case 0:
			n := 1 + g.r.Intn(remaining)
			d.Retain(n, nil)
			pos += n
		case 1:
			d.InsertText(randomWords[g.r.Intn(len(randomWords))], nil)
		case 2:
			n := 1 + g.r.Intn(remaining)
			d.DeleteN(n)
			pos += n
		}
		if g.r.Intn(4) == 0 {
			break
		}
	}
	if g.r.Intn(2) == 0 {
		d.InsertText(randomWords[g.r.Intn(len(randomWords))], nil)
	}
	return d
}
