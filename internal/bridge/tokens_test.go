package bridge

import "testing"

func TestEstimateTokens(t *testing.T) {
	cases := map[string]int{
		"":         0,
		"a":        1,
		"abcd":     1,
		"abcde":    2,
		"abcdefgh": 2,
		"héllo":    2,
		"日本語です":    2,
	}
	for in, want := range cases {
		if got := EstimateTokens(in); got != want {
			t.Errorf("EstimateTokens(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestCountMessageTokens_PerMessage(t *testing.T) {
	msgs := []Message{
		NewMessage("user", "abcde"), // 2
		{Role: "assistant", Content: ContentFromRaw(`[{"text":"ab"},"cd"]`)}, // 1
		{Role: "user", Content: ContentFromRaw(`null`)},                      // 0
	}
	if got := CountMessageTokens(HeuristicCounter{}, msgs); got != 3 {
		t.Errorf("CountMessageTokens = %d, want 3", got)
	}
}

func TestNewCounter(t *testing.T) {
	c, err := NewCounter("")
	if err != nil {
		t.Fatalf("NewCounter(\"\"): %v", err)
	}
	if _, ok := c.(HeuristicCounter); !ok {
		t.Errorf("default counter = %T, want HeuristicCounter", c)
	}
	if _, err := NewCounter("bogus"); err == nil {
		t.Error("expected error for unknown tokenizer")
	}
}
