package ingest

import "testing"

func TestParseScore(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
		ok   bool
	}{
		{"plain number", "42", 42, true},
		{"number with noise", "score: 87 pts", 87, true},
		{"leading marks", "~~ 100", 100, true},
		{"first of several", "12 / 30", 12, true},
		{"zero", "0", 0, true},
		{"no digits", "illegible", 0, false},
		{"empty", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := parseScore(tt.text)
			if got != tt.want || ok != tt.ok {
				t.Errorf("parseScore(%q) = (%d, %v), want (%d, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestEvaluateGate(t *testing.T) {
	tests := []struct {
		name     string
		res      OCRResult
		wantAuto bool
	}{
		{"above threshold", OCRResult{Text: "42", Confidence: 0.95}, true},
		{"exactly at threshold", OCRResult{Text: "42", Confidence: 0.7}, true},
		{"just below threshold", OCRResult{Text: "42", Confidence: 0.69}, false},
		{"zero confidence", OCRResult{Text: "42", Confidence: 0}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, conf, auto := evaluate(tt.res, DefaultConfidence)
			if auto != tt.wantAuto {
				t.Errorf("evaluate() auto = %v, want %v", auto, tt.wantAuto)
			}
			if score == nil || *score != 42 {
				t.Errorf("evaluate() score = %v, want 42", score)
			}
			if conf != tt.res.Confidence {
				t.Errorf("evaluate() confidence = %v, want %v", conf, tt.res.Confidence)
			}
		})
	}
}

func TestEvaluateUnparseableForcesZeroConfidence(t *testing.T) {
	// A high engine confidence on garbage text must not auto-apply.
	score, conf, auto := evaluate(OCRResult{Text: "???", Confidence: 0.99}, DefaultConfidence)
	if score != nil {
		t.Errorf("evaluate() score = %v, want nil", score)
	}
	if conf != 0 {
		t.Errorf("evaluate() confidence = %v, want 0", conf)
	}
	if auto {
		t.Error("evaluate() auto = true for unparseable text")
	}
}
