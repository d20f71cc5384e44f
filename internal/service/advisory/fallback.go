package advisory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/farmassist-bd/farmassist/internal/ports"
)

// Fixed advisory strings. User-visible failures are always phrased as
// natural-language advice, never raw error codes.
const (
	emptyInputAdvisory = "Please provide a question, upload an image, or record your voice to get assistance."

	quotaAdvisory      = "I apologize, but the AI service is currently experiencing high demand. Please try again in a few moments."
	authAdvisory       = "There's an issue with the AI service authentication. Please check the API configuration."
	timeoutAdvisory    = "The request took too long to process. Please try again with a shorter query."
	badRequestAdvisory = "The request format was invalid. Please try rephrasing your question."

	noInputFallback = "I received your request but couldn't process it fully. Please try again, or share more details about your farming question."

	guaranteedReply = "I'm here to help with your farming questions. Please try asking again or provide more details about your crop or problem."

	tomatoAdvice = "In Bangladesh, tomatoes can be cultivated in two main seasons: winter (October-February) and summer (March-June). For winter cultivation, start seeds in September-October. Ensure well-drained soil, regular watering, and protection from cold. For summer, provide shade during peak heat. Use organic fertilizers and maintain proper spacing (60cm between plants)."

	leafAdvice = "Leaf problems can be caused by various factors: fungal diseases (use fungicides), pests (apply neem oil), nutrient deficiencies (add balanced fertilizer), or water issues (ensure proper drainage). If you can share an image, I can provide more specific diagnosis."
)

// advisoryForGeneratorError maps the generator error taxonomy to its fixed
// user-facing string. Unrecognized errors yield "" so the ladder descends.
func advisoryForGeneratorError(err error) string {
	switch {
	case errors.Is(err, ports.ErrQuotaExceeded):
		return quotaAdvisory
	case errors.Is(err, ports.ErrUnauthorized):
		return authAdvisory
	case errors.Is(err, ports.ErrTimeout):
		return timeoutAdvisory
	case errors.Is(err, ports.ErrBadRequest):
		return badRequestAdvisory
	default:
		return ""
	}
}

// cannedAdvice returns keyword-matched advice, or "" when the transcript
// contains nothing recognizable. English keywords only: whether the canned
// rung should also match Bengali keywords is an open behavior question, and
// the generator rungs above already answer Bengali queries in Bengali.
func cannedAdvice(transcript string) string {
	lower := strings.ToLower(transcript)
	switch {
	case strings.Contains(lower, "tomato"):
		return tomatoAdvice
	case strings.Contains(lower, "leaf"), strings.Contains(lower, "disease"):
		return leafAdvice
	default:
		return ""
	}
}

// genericFallback is the terminal guaranteed-success rung.
func genericFallback(transcript string) string {
	if strings.TrimSpace(transcript) != "" {
		return fmt.Sprintf("Thank you for your question: '%s'. I'm currently experiencing some technical difficulties, but here's general farming advice: Ensure proper soil preparation, adequate water supply, timely fertilization, and pest management. For specific crop advice, please try again in a moment.", transcript)
	}
	return noInputFallback
}
