package ai

import "unicode/utf8"

// DefaultMaxInputChars bounds the document text sent with the prompt.
const DefaultMaxInputChars = 25000

// ConversionPrompt instructs the model to emit a storyboard JSON blueprint.
// Every field is required; anything absent from the source must be written
// as "", [] or "TBD" rather than invented.
const ConversionPrompt = `You are an expert eLearning instructional designer and developer.
Convert the human-written storyboard below (extracted from text, slides or PDF) into a
production-ready JSON blueprint for an eLearning module.

Module-level fields (all required):
- moduleName, moduleType, duration, complexityLevel, tags, learningOutcomes, audience
- brandGuidelines (colours, fonts), sponsorLogo
- glossary, references, and any extra module-level fields present in the source

"scenes" is an ordered array. Every scene object must include:
- sceneNumber, sceneTitle
- voiceover
- onScreenText: array separating heading, body, instructions, labels
- layout: detailed visual and text layout instructions (e.g. image left, text right, CTA bottom)
- mediaAssets: array of objects with type (image/video/icon), filename, altText, fileUrl if known
- interactivity: type (click-to-reveal, MCQ, drag-and-drop, ...) and full logic: button labels,
  options, outcomes, nextScene or branching, state changes
- knowledgeCheck: question, options, correctAnswer(s), feedback, remediation (nextScene if
  wrong/correct), scoring if relevant
- branching: nextScene (by number or key) and branchingOptions for scenarios or choices
- accessibility: altText for every visual, transcript for every audio/voiceover, ARIA labels or
  keyboard notes if present
- animation: timing, animation type, trigger if specified
- coachGuidance: guidance for facilitators or AI coaches
- authorNotes: anything for developers or content creators

If information is not in the source, output an empty string, an empty array, or "TBD".
Do not invent content.

Respond with the JSON object only, with no explanation or comments.`

// BuildConversionPrompt appends at most maxChars characters of text to the
// conversion prompt. It reports whether text was truncated.
func BuildConversionPrompt(text string, maxChars int) (string, bool) {
	truncated := false
	if maxChars > 0 && utf8.RuneCountInString(text) > maxChars {
		text = string([]rune(text)[:maxChars])
		truncated = true
	}
	return ConversionPrompt + "\n\nStoryboard source:\n" + text, truncated
}
