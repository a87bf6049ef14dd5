package sentiment

import "testing"

func TestLexiconScore(t *testing.T) {
	lex := Lexicon{
		Positive: []string{"面白い", "最高", "Great"},
		Negative: []string{"微妙", "つまらない"},
	}
	tests := []struct {
		name     string
		snippets []string
		want     float64
	}{
		{"empty", nil, Neutral},
		{"no hits", []string{"今日読んだ"}, Neutral},
		{"all positive", []string{"最高の一冊", "面白い"}, 1},
		{"mixed", []string{"面白いけど微妙", "つまらない"}, 0.33},
		{"repeats count once", []string{"最高 最高 最高", "微妙"}, 0.5},
		{"case insensitive", []string{"GREAT read"}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := lex.Score(tc.snippets); got != tc.want {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}
