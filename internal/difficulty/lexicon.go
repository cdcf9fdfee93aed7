package difficulty

import "github.com/abhisek/quizmind/internal/model"

// bloomVerbs groups Bloom's taxonomy verbs by the band they signal.
// Remember/Understand map to easy, Apply/Analyze to medium and
// Evaluate/Create to hard.
var bloomVerbs = map[model.Difficulty][]string{
	model.DifficultyEasy: {
		"list", "define", "name", "identify", "recall", "recognize", "state",
		"label", "match", "memorize", "repeat", "describe", "explain",
		"summarize", "classify", "interpret", "paraphrase", "outline", "locate",
	},
	model.DifficultyMedium: {
		"apply", "calculate", "compute", "solve", "use", "demonstrate",
		"implement", "illustrate", "analyze", "analyse", "compare", "contrast",
		"examine", "differentiate", "distinguish", "organize", "infer",
		"determine", "categorize",
	},
	model.DifficultyHard: {
		"evaluate", "assess", "justify", "critique", "judge", "defend", "argue",
		"appraise", "create", "design", "construct", "formulate", "propose",
		"develop", "synthesize", "hypothesize", "devise", "critically",
	},
}

// complexityWords are topic-independent cues, weighted 1x.
var complexityWords = map[model.Difficulty][]string{
	model.DifficultyEasy: {
		"basic", "simple", "common", "main", "first", "list", "name", "example",
		"capital", "largest", "smallest",
	},
	model.DifficultyMedium: {
		"relationship", "process", "method", "difference", "cause", "effect",
		"function", "structure", "impact", "role", "steps", "factors",
	},
	model.DifficultyHard: {
		"critically", "methodological", "assumptions", "implications",
		"theoretical", "paradigm", "hypothesis", "epistemological", "nuanced",
		"framework", "underlying", "synthesis", "ramifications", "trade-offs",
	},
}

// mathWords apply only to the Mathematics topic, weighted 2x.
var mathWords = map[model.Difficulty][]string{
	model.DifficultyEasy: {
		"add", "sum", "subtract", "plus", "minus", "count", "multiply", "times",
	},
	model.DifficultyMedium: {
		"equation", "fraction", "percentage", "ratio", "area", "probability",
		"perimeter", "variable", "slope", "exponent",
	},
	model.DifficultyHard: {
		"derivative", "integral", "theorem", "proof", "eigenvalue", "matrix",
		"limit", "differential", "asymptotic", "convergence", "topology",
	},
}

// structuralPhrases are multi-word cues, weighted 3x.
var structuralPhrases = map[model.Difficulty][]string{
	model.DifficultyEasy: {
		"what is", "who was", "name the", "which of the following",
	},
	model.DifficultyMedium: {
		"how does", "explain why", "what is the difference", "why does",
	},
	model.DifficultyHard: {
		"compare and", "evaluate the", "to what extent", "justify your",
		"critically assess",
	},
}

const (
	weightGeneric    = 1.0
	weightMath       = 2.0
	weightStructural = 3.0
)

const mathTopic = "mathematics"
