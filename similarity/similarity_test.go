package similarity

import (
	"strings"
	"testing"
)

func TestSimilarities_IdenticalTexts(t *testing.T) {
	// WHAT: Identical texts score at (or extremely near) 1.0.
	// WHY: Verbatim boilerplate across documents must be flagged maximally.
	v := NewTFIDF(Config{})
	texts := []string{
		"Responding Party objects to this request as burdensome and oppressive.",
		"Responding Party objects to this request as burdensome and oppressive.",
		"The weather yesterday was unexpectedly pleasant for the season of autumn.",
	}
	sims := v.Similarities(texts)
	if sims[0][1] < 0.99 {
		t.Errorf("identical texts similarity = %f, want ~1.0", sims[0][1])
	}
	if sims[0][2] > 0.3 {
		t.Errorf("unrelated texts similarity = %f, want low", sims[0][2])
	}
}

func TestSimilarities_Symmetric(t *testing.T) {
	// WHAT: The similarity matrix is symmetric with unit diagonal.
	// WHY: Callers index either triangle interchangeably.
	v := NewTFIDF(Config{})
	texts := []string{
		"Objection raised on grounds of attorney client privilege doctrine.",
		"Objection raised on grounds of undue burden and excessive scope.",
		"Payment schedules were renegotiated quarterly per the contract terms.",
	}
	sims := v.Similarities(texts)
	for i := range sims {
		if sims[i][i] != 1.0 {
			t.Errorf("diagonal [%d][%d] = %f, want 1.0", i, i, sims[i][i])
		}
		for j := range sims {
			if sims[i][j] != sims[j][i] {
				t.Errorf("matrix not symmetric at [%d][%d]", i, j)
			}
		}
	}
}

func TestSimilarities_SingleText(t *testing.T) {
	// WHAT: A single text returns a 1x1 identity matrix.
	// WHY: The cross-document phase requires two documents; one is a no-op.
	v := NewTFIDF(Config{})
	sims := v.Similarities([]string{"only one segment here"})
	if len(sims) != 1 || sims[0][0] != 1.0 {
		t.Errorf("single-text matrix = %v, want [[1.0]]", sims)
	}
}

func TestSimilarities_Paraphrase(t *testing.T) {
	// WHAT: Paraphrased boilerplate scores higher than unrelated text.
	// WHY: Phase 2 exists to catch near-verbatim template language that the
	// fixed pattern table misses.
	v := NewTFIDF(Config{})
	texts := []string{
		"Responding Party objects to this interrogatory as overly broad, unduly burdensome, and oppressive.",
		"Responding Party objects to this interrogatory as overly broad and unduly burdensome.",
		"The cafe on the corner serves espresso until midnight on weekends only.",
	}
	sims := v.Similarities(texts)
	if sims[0][1] <= sims[0][2] {
		t.Errorf("paraphrase sim %f should exceed unrelated sim %f", sims[0][1], sims[0][2])
	}
	if sims[0][1] < 0.5 {
		t.Errorf("paraphrase similarity = %f, want >= 0.5", sims[0][1])
	}
}

func TestSplitSentences_Offsets(t *testing.T) {
	// WHAT: Sentence spans carry byte offsets that slice back to their text.
	// WHY: Detection converts span offsets into segment positions; a drift
	// here corrupts every downstream removal.
	text := "First sentence here. Second sentence follows! Third one asks a question? Yes."
	spans := SplitSentences(text)
	if len(spans) < 3 {
		t.Fatalf("got %d spans, want >= 3: %v", len(spans), spans)
	}
	for _, s := range spans {
		if text[s.Start:s.End] != s.Text {
			t.Errorf("span text %q does not match slice %q", s.Text, text[s.Start:s.End])
		}
	}
	if spans[0].Text != "First sentence here." {
		t.Errorf("first span = %q", spans[0].Text)
	}
}

func TestSplitSentences_LegalAbbreviations(t *testing.T) {
	// WHAT: "Case No. 2024CV12345" and "Smith v. Jones" stay in one sentence.
	// WHY: Splitting on abbreviation periods would shear case captions into
	// fragments too short for similarity analysis.
	text := "Plaintiff filed Case No. 2024CV12345 in Smith v. Jones before the court. The motion was denied."
	spans := SplitSentences(text)
	if len(spans) != 2 {
		t.Fatalf("got %d spans, want 2: %#v", len(spans), spans)
	}
	if !strings.Contains(spans[0].Text, "2024CV12345") {
		t.Errorf("case number split out of first sentence: %q", spans[0].Text)
	}
}

func TestSplitParagraphs(t *testing.T) {
	// WHAT: Blank lines delimit paragraphs; offsets slice back exactly.
	// WHY: Paragraph splitting is the fallback when sentence segmentation is
	// disabled.
	text := "First paragraph\nstill first.\n\nSecond paragraph.\n\n\nThird."
	spans := SplitParagraphs(text)
	if len(spans) != 3 {
		t.Fatalf("got %d spans, want 3: %#v", len(spans), spans)
	}
	for _, s := range spans {
		if text[s.Start:s.End] != s.Text {
			t.Errorf("span %q does not match slice %q", s.Text, text[s.Start:s.End])
		}
	}
}

func TestTopTerms(t *testing.T) {
	// WHAT: TopTerms surfaces the distinctive vocabulary of one segment.
	// WHY: Reports show operators what drove a similarity match.
	v := NewTFIDF(Config{MinDocFreq: 1})
	texts := []string{
		"arbitration clause governs arbitration venue",
		"delivery window excludes holidays entirely",
	}
	terms := v.TopTerms(texts, 0, 3)
	if len(terms) == 0 {
		t.Fatal("no top terms returned")
	}
	found := false
	for _, term := range terms {
		if strings.Contains(term, "arbitration") {
			found = true
		}
	}
	if !found {
		t.Errorf("expected an arbitration n-gram in %v", terms)
	}
}
