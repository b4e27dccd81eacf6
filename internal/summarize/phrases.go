package summarize

import "necromancer/internal/core"

// PhrasePool holds the interchangeable fragments for one category.
type PhrasePool struct {
	Actions   []string
	Outcomes  []string
	Strengths []string
}

var pools = map[core.Category]PhrasePool{
	core.CategoryWriting: {
		Actions: []string{
			"crafted compelling, well-structured content",
			"translated complex ideas into clear prose",
			"researched and wrote engaging material",
			"shaped a consistent editorial voice",
		},
		Outcomes: []string{
			"content that engaged readers",
			"clear value for its audience",
			"documentation people actually read",
			"a stronger voice for the brand",
		},
		Strengths: []string{
			"a sharp eye for narrative and structure",
			"careful research and precise language",
			"an instinct for what readers need",
		},
	},
	core.CategoryDesign: {
		Actions: []string{
			"created visually striking designs",
			"designed intuitive interfaces",
			"balanced aesthetics with functionality",
			"developed a cohesive visual language",
		},
		Outcomes: []string{
			"an exceptional user experience",
			"a memorable brand identity",
			"interfaces that users enjoy",
			"polished, accessible visuals",
		},
		Strengths: []string{
			"a strong sense of layout and hierarchy",
			"empathy for the people using the product",
			"attention to visual detail",
		},
	},
	core.CategoryCode: {
		Actions: []string{
			"engineered a robust, well-tested codebase",
			"built scalable software components",
			"automated critical development workflows",
			"designed clean, maintainable APIs",
			"developed efficient, reliable tooling",
		},
		Outcomes: []string{
			"measurable performance improvements",
			"a reliable, production-ready system",
			"faster, safer releases",
			"maintainable software that scales with demand",
			"clear technical wins for the team",
		},
		Strengths: []string{
			"solid engineering judgment",
			"a pragmatic approach to hard technical problems",
			"care for correctness and maintainability",
		},
	},
	core.CategoryMiscellaneous: {
		Actions: []string{
			"combined diverse skills across disciplines",
			"brought versatility and creativity to an open brief",
			"organized and led a cross-functional effort",
			"turned an open-ended idea into action",
		},
		Outcomes: []string{
			"results that spanned multiple disciplines",
			"something truly remarkable",
			"lasting impact for the people involved",
			"momentum the whole team could build on",
		},
		Strengths: []string{
			"range well beyond a single specialty",
			"initiative and adaptability",
			"a knack for connecting people and ideas",
		},
	},
}

// PoolFor returns the phrase pool for c, defaulting to Miscellaneous.
func PoolFor(c core.Category) PhrasePool {
	if p, ok := pools[c]; ok {
		return p
	}
	return pools[core.CategoryMiscellaneous]
}

// OutcomePhrases lists the outcome fragments for c.
func OutcomePhrases(c core.Category) []string {
	return append([]string(nil), PoolFor(c).Outcomes...)
}
