// CLAUDE:SUMMARY Fixed regex pattern library for known legal boilerplate, grouped by category.
package boilerplate

import "regexp"

// Category names for the fixed pattern library.
const (
	CategoryStandardObjections  = "standard_objections"
	CategoryDiscoveryResponses  = "discovery_responses"
	CategoryCaseCitations       = "case_citations"
	CategoryFormattingElements  = "formatting_elements"
	CategoryProceduralLanguage  = "procedural_language"
	CategoryCrossDocument       = "cross_document"
)

// CategoryPatterns groups raw pattern sources under one category label.
// Patterns are compiled once at Detector construction with case-insensitive,
// dot-matches-newline, multiline flags.
type CategoryPatterns struct {
	Category string
	Patterns []string
}

// DefaultPatterns is the stock legal boilerplate library. The bounded
// [\s\S]{0,N}? tails keep matches from running away across unrelated
// sentences when a closing period is missing.
func DefaultPatterns() []CategoryPatterns {
	return []CategoryPatterns{
		{
			Category: CategoryStandardObjections,
			Patterns: []string{
				`responding party objects to this (?:request|interrogatory|demand)[\s\S]{0,300}?\.`,
				`(?:plaintiff|defendant|propounding party) objects (?:to|on the grounds?)[\s\S]{0,250}?\.`,
				`objection is made (?:to|on the grounds?)[\s\S]{0,250}?\.`,
				`(?:this request is |the request is )?(?:overly broad|unduly burdensome)(?:,? (?:and |or )?(?:oppressive|harassing|vague|ambiguous))+[\s\S]{0,150}?\.`,
				`without waiving (?:the foregoing|said|these|any) objections?[\s\S]{0,250}?\.`,
				`subject to,? and without waiving[\s\S]{0,250}?\.`,
			},
		},
		{
			Category: CategoryDiscoveryResponses,
			Patterns: []string{
				`after a (?:diligent|reasonable) (?:search|inquiry)(?: and (?:a )?(?:diligent|reasonable) (?:search|inquiry))?[\s\S]{0,250}?\.`,
				`discovery (?:is continuing|remains ongoing|has not been completed)[\s\S]{0,150}?\.`,
				`responding party reserves the right to (?:amend|supplement|modify)[\s\S]{0,200}?\.`,
				`all (?:responsive,? )?(?:non-?privileged )?documents (?:in (?:its|his|her|their) possession[\s\S]{0,80}?)?(?:will be|have been|are being) produced[\s\S]{0,150}?\.`,
				`(?:the )?investigation (?:of this matter )?(?:is continuing|continues|is ongoing)[\s\S]{0,150}?\.`,
			},
		},
		{
			Category: CategoryCaseCitations,
			Patterns: []string{
				`\d+\s+(?:cal\.?\s?(?:app\.?)?|f\.\s?(?:2d|3d|supp\.?)|u\.s\.|s\.\s?ct\.)\s*(?:2d|3d|4th|5th)?\s*\d+(?:,\s*\d+)?(?:\s*\(\d{4}\))?`,
				`(?:see,? (?:e\.g\.,? )?|citing |accord,? )[A-Za-z][A-Za-z'&.,\s]{2,60}\sv\.\s[A-Za-z][A-Za-z'&.,\s]{2,60}?\(\d{4}\)`,
				`pursuant to (?:the )?(?:code of civil procedure|federal rules? of civil procedure|c\.?c\.?p\.?|f\.?r\.?c\.?p\.?)\s*(?:sections?|§§?|rules?)?\s*[\d.()a-z,\s]{1,40}\d`,
				`(?:cal\.|fed\.)\s*(?:civ\.|evid\.|r\.)\s*(?:proc\.|code|civ\.\s*p\.)\s*(?:§§?|sections?)\s*[\d.]+`,
			},
		},
		{
			Category: CategoryFormattingElements,
			Patterns: []string{
				`_{5,}`,
				`-{5,}`,
				`={5,}`,
				`\*{5,}`,
				`(?:^|\s)page\s+\d+\s+of\s+\d+(?:\s|$)`,
				`(?:^[ \t]*\d{1,2}[ \t]*\r?\n){4,}`,
			},
		},
		{
			Category: CategoryProceduralLanguage,
			Patterns: []string{
				`proof of service[\s\S]{0,300}?(?:\.|\n\n)`,
				`i (?:hereby )?(?:certify|declare) (?:under penalty of perjury )?that[\s\S]{0,300}?\.`,
				`executed (?:on|this) [\s\S]{0,80}?(?:at|in) [\s\S]{0,80}?\.`,
				`attorneys? for (?:plaintiffs?|defendants?|respondents?|petitioners?|cross-(?:complainants?|defendants?))`,
				`(?:a )?(?:reasonable and )?good faith (?:effort to )?meet and confer[\s\S]{0,200}?\.`,
			},
		},
	}
}

// compiledCategory pairs a category with its compiled patterns.
type compiledCategory struct {
	category string
	patterns []*regexp.Regexp
}

// compilePatterns compiles all pattern sources with the shared flag prefix.
// An invalid pattern is a programming error in an injected table; it fails
// construction rather than silently dropping coverage.
func compilePatterns(tables []CategoryPatterns) ([]compiledCategory, error) {
	out := make([]compiledCategory, 0, len(tables))
	for _, tbl := range tables {
		cc := compiledCategory{category: tbl.Category}
		for _, src := range tbl.Patterns {
			re, err := regexp.Compile(`(?ism)` + src)
			if err != nil {
				return nil, err
			}
			cc.patterns = append(cc.patterns, re)
		}
		out = append(out, cc)
	}
	return out, nil
}
