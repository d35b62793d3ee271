package textqual

// referenceWords is the default dictionary for the english-hit-rate gate.
// A small blend of high-frequency English words and legal-domain terms.
// This is a crude proxy for "is this genuine language text", not a real
// dictionary lookup; Config.Words can substitute a different set.
var referenceWords = []string{
	// high-frequency English
	"the", "be", "to", "of", "and", "a", "in", "that", "have", "it",
	"for", "not", "on", "with", "he", "as", "you", "do", "at", "this",
	"but", "his", "by", "from", "they", "we", "say", "her", "she", "or",
	"an", "will", "my", "one", "all", "would", "there", "their", "what",
	"so", "up", "out", "if", "about", "who", "get", "which", "go", "me",
	"when", "make", "can", "like", "time", "no", "just", "him", "know",
	"take", "people", "into", "year", "your", "good", "some", "could",
	"them", "see", "other", "than", "then", "now", "look", "only", "come",
	"its", "over", "think", "also", "back", "after", "use", "two", "how",
	"our", "work", "first", "well", "way", "even", "new", "want", "because",
	"any", "these", "give", "day", "most", "us", "is", "was", "are", "been",
	"has", "had", "were", "said", "each", "such", "may", "shall", "must",
	// legal-domain terms
	"court", "plaintiff", "defendant", "party", "parties", "counsel",
	"attorney", "motion", "order", "judgment", "case", "claim", "request",
	"response", "objection", "discovery", "interrogatory", "deposition",
	"evidence", "exhibit", "witness", "testimony", "hearing", "trial",
	"filed", "pursuant", "hereby", "herein", "thereof", "whereas",
	"agreement", "contract", "damages", "relief", "settlement", "statute",
	"jurisdiction", "appeal", "verdict", "notice", "service", "document",
	"production", "privilege", "burden", "scope",
}
