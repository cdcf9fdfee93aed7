package questiongen

import (
	"sort"
	"strings"

	"github.com/abhisek/quizmind/internal/model"
)

// catalog maps built-in topics to a prompt context per skill level.
var catalog = map[string]map[model.Skill]string{
	"Mathematics": {
		model.SkillBeginner:     "Arithmetic, fractions, percentages, basic geometry shapes and simple equations with one unknown.",
		model.SkillIntermediate: "Algebraic expressions, linear and quadratic equations, coordinate geometry, probability and basic statistics.",
		model.SkillAdvanced:     "Calculus, derivatives and integrals, limits, linear algebra, proofs and advanced probability.",
	},
	"Science": {
		model.SkillBeginner:     "States of matter, the solar system, plants and animals, the human body and simple forces.",
		model.SkillIntermediate: "Chemical reactions, cells and genetics, energy transfer, electricity and Newton's laws.",
		model.SkillAdvanced:     "Thermodynamics, quantum behavior, molecular biology, organic chemistry and relativity.",
	},
	"History": {
		model.SkillBeginner:     "Famous historical figures, major wars, ancient civilizations and important inventions.",
		model.SkillIntermediate: "Causes and effects of revolutions, the world wars, colonialism and the industrial revolution.",
		model.SkillAdvanced:     "Historiography, comparative analysis of empires, economic history and interpretations of primary sources.",
	},
	"Geography": {
		model.SkillBeginner:     "Continents, oceans, countries and their capitals, major rivers and mountains.",
		model.SkillIntermediate: "Climate zones, plate tectonics, population distribution, trade routes and natural resources.",
		model.SkillAdvanced:     "Geopolitics, urbanization models, climate systems, glacial and fluvial processes and spatial analysis.",
	},
	"Literature": {
		model.SkillBeginner:     "Well-known authors, classic novels, basic literary terms such as plot, character and setting.",
		model.SkillIntermediate: "Themes, symbolism, narrative voice, poetic devices and literary movements.",
		model.SkillAdvanced:     "Literary theory, structuralism, postcolonial criticism, intertextuality and close reading.",
	},
	"Programming": {
		model.SkillBeginner:     "Variables, data types, conditionals, loops and functions.",
		model.SkillIntermediate: "Data structures, recursion, object-oriented design, complexity and error handling.",
		model.SkillAdvanced:     "Concurrency, distributed systems, compilers, memory models and algorithm design.",
	},
}

// Topics returns the catalog topics in alphabetical order.
func Topics() []string {
	out := make([]string, 0, len(catalog))
	for t := range catalog {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// CatalogTopic returns the canonical name of topic if it is in the catalog.
func CatalogTopic(topic string) (string, bool) {
	topic = strings.TrimSpace(topic)
	for t := range catalog {
		if strings.EqualFold(t, topic) {
			return t, true
		}
	}
	return "", false
}

// catalogContext returns the context for a catalog topic and skill.
func catalogContext(topic string, skill model.Skill) (string, bool) {
	name, ok := CatalogTopic(topic)
	if !ok {
		return "", false
	}
	ctx, ok := catalog[name][skill]
	return ctx, ok
}

// CanonicalTopic returns the catalog spelling of topic, or topic trimmed
// when it is not in the catalog.
func CanonicalTopic(topic string) string {
	if name, ok := CatalogTopic(topic); ok {
		return name
	}
	return strings.TrimSpace(topic)
}
