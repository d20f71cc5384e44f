package advisory

import (
	"fmt"
	"strings"

	"github.com/farmassist-bd/farmassist/internal/domain"
)

// modality tags which kind of input bundle started the run. It is decided
// once at state construction and drives prompt template selection.
type modality int

const (
	modalityChat modality = iota
	modalityVoice
	modalityImageOnly
	modalityImageWithText
)

func (m modality) String() string {
	switch m {
	case modalityVoice:
		return "voice"
	case modalityImageOnly:
		return "image_only"
	case modalityImageWithText:
		return "image_with_text"
	default:
		return "chat"
	}
}

func classifyModality(in *domain.AdvisoryInput) modality {
	switch {
	case in.Audio != nil:
		return modalityVoice
	case in.Image != nil && strings.TrimSpace(in.Text) == "":
		return modalityImageOnly
	case in.Image != nil:
		return modalityImageWithText
	default:
		return modalityChat
	}
}

const voiceInstruction = `You are FarmAssist, an intelligent voice assistant for farmers in Bangladesh.
Your role is to help farmers with their agricultural questions and problems.

KEY RESPONSIBILITIES:
- Listen carefully to the farmer's voice query (transcribed text provided)
- Provide clear, practical, and actionable farming advice
- CRITICALLY IMPORTANT: Respond in the EXACT SAME LANGUAGE as the farmer's query
  * If the farmer spoke in Bengali (বাংলা), you MUST respond ONLY in Bengali
  * If the farmer spoke in English, you MUST respond ONLY in English
  * Do NOT mix languages - use only the language the farmer used
- Be empathetic, patient, and understanding of farmer's concerns
- If disease or pest issues are mentioned, provide specific treatment recommendations
- Consider weather conditions when giving advice
- Use simple, easy-to-understand language suitable for farmers
- If an image is also provided, analyze it along with the voice query

RESPONSE GUIDELINES:
- Keep responses concise but comprehensive (2-4 sentences for simple queries, up to 6 for complex issues)
- Always provide actionable steps when possible
- If you detect crop diseases, suggest specific treatments (organic or chemical)
- Mention relevant weather considerations
- Be encouraging and supportive
- ALWAYS match the language of your response to the language of the farmer's voice query`

const imageInstruction = `You are FarmAssist, an expert agricultural image analysis assistant for farmers in Bangladesh.
Your specialty is analyzing crop images to identify diseases, pests, nutrient deficiencies, and growth issues.

KEY RESPONSIBILITIES:
- Carefully examine the provided crop/plant image
- Identify visible diseases, pests, nutrient deficiencies, or other issues
- Provide specific, actionable treatment recommendations
- Consider the crop type if mentioned or visible
- CRITICALLY IMPORTANT: Respond in the EXACT SAME LANGUAGE as the farmer's question (if provided)
  * If the farmer asked in Bengali (বাংলা), you MUST respond ONLY in Bengali
  * If the farmer asked in English, you MUST respond ONLY in English
  * If no question is provided, detect from context or default to Bengali for Bangladesh farmers
  * Do NOT mix languages - use only the language the farmer used
- Be precise about what you observe in the image

ANALYSIS GUIDELINES:
- Describe what you see in the image (leaf color, spots, damage, growth stage, etc.)
- Identify the specific problem (disease name, pest type, deficiency type)
- Provide treatment steps (immediate actions and long-term solutions)
- Suggest preventive measures
- If uncertain, clearly state what you can see and recommend consulting an agricultural expert
- Consider weather and location context when relevant
- ALWAYS match the language of your response to the language of the farmer's question`

const chatInstruction = `You are FarmAssist, a knowledgeable and friendly chat assistant for farmers in Bangladesh.
You help farmers with agricultural questions, farming advice, and problem-solving through text conversation.

KEY RESPONSIBILITIES:
- Answer farming questions clearly and accurately
- Provide practical, actionable advice
- Help with crop selection, planting, care, and harvesting
- Assist with disease and pest management
- Offer weather-based farming recommendations
- CRITICALLY IMPORTANT: Respond in the EXACT same language as the farmer's input
  * If the farmer writes in Bengali (বাংলা), you MUST respond in Bengali
  * If the farmer writes in English, you MUST respond in English
  * Do NOT mix languages - use only the language the farmer used
- Be conversational, friendly, and supportive

CONVERSATION GUIDELINES:
- Maintain a helpful, patient, and encouraging tone
- Ask clarifying questions if needed (in the same language as the farmer)
- Provide step-by-step guidance for complex tasks
- Reference local farming practices in Bangladesh when relevant
- If an image is attached, analyze it along with the text query
- ALWAYS match the language of your response to the language of the farmer's question`

// instructionFor returns the system instruction for the given modality.
// All four carry the non-negotiable exact-language contract.
func instructionFor(m modality) string {
	switch m {
	case modalityVoice:
		return voiceInstruction
	case modalityImageOnly, modalityImageWithText:
		return imageInstruction
	default:
		return chatInstruction
	}
}

// languageInstruction is appended to the system instruction so the response
// language exactly equals the detected input language, never mixed.
func languageInstruction(lang domain.Language) string {
	if lang == domain.LanguageBengali {
		return "\n\nCRITICAL: You MUST respond ONLY in Bengali (বাংলা). Do NOT use English. Write your entire response in Bengali script."
	}
	return "\n\nCRITICAL: You MUST respond ONLY in English. Do NOT use Bengali."
}

func languageName(lang domain.Language) string {
	if lang == domain.LanguageBengali {
		return "Bengali (বাংলা)"
	}
	return "English"
}

// buildContext assembles the factual context block handed to the generator:
// transcript, detected crop, classifier verdict (only when it holds an
// actionable finding), a compact summary of the first forecast data point,
// and rounded coordinates.
func buildContext(st *pipelineState) string {
	var parts []string

	if st.hasQuestion() {
		parts = append(parts, fmt.Sprintf("Farmer's query/question: %s", st.transcript))
	} else if st.input.Image != nil {
		parts = append(parts, "Farmer has uploaded an image for analysis (no text question provided).")
	}

	if st.crop != "" {
		parts = append(parts, fmt.Sprintf("Identified crop: %s", st.crop))
	}

	if cls := st.classification; cls != nil {
		if cls.Detected() {
			parts = append(parts, fmt.Sprintf("Computer vision analysis detected: %s (confidence: %.1f%%)", cls.Label, cls.Confidence*100))
			if len(cls.Detections) > 0 {
				parts = append(parts, fmt.Sprintf("Number of detections: %d", len(cls.Detections)))
			}
		} else if cls.Err != "" {
			parts = append(parts, fmt.Sprintf("Vision analysis note: %s", cls.Err))
		}
	}

	if w := summarizeForecast(st.forecast); w != "" {
		parts = append(parts, w)
	}

	if loc := st.input.Location; loc != nil {
		parts = append(parts, fmt.Sprintf("Farmer's location: Latitude %.4f, Longitude %.4f (Bangladesh)", loc.Lat, loc.Lon))
	}

	if len(parts) == 0 {
		return "No additional context available."
	}
	return strings.Join(parts, "\n")
}

// summarizeForecast compacts the first hourly data point into one line.
// Precipitation is mentioned only when nonzero.
func summarizeForecast(f *domain.Forecast) string {
	if f.Empty() {
		return ""
	}

	var info []string
	h := f.Hourly
	if len(h.Temperature2M) > 0 {
		info = append(info, fmt.Sprintf("Temperature: %.1f°C", h.Temperature2M[0]))
	}
	if len(h.RelativeHumidity2M) > 0 {
		info = append(info, fmt.Sprintf("Humidity: %.0f%%", h.RelativeHumidity2M[0]))
	}
	if len(h.Precipitation) > 0 && h.Precipitation[0] > 0 {
		info = append(info, fmt.Sprintf("Expected precipitation: %.1fmm", h.Precipitation[0]))
	}

	if len(info) == 0 {
		return ""
	}
	return "Weather conditions: " + strings.Join(info, ", ")
}

// buildPrompt renders the per-modality user prompt with the context block and
// the explicit language demand.
func buildPrompt(st *pipelineState) string {
	context := buildContext(st)
	langLine := languageInstruction(st.language)
	langName := languageName(st.language)

	switch st.modality {
	case modalityImageOnly:
		return fmt.Sprintf(`Analyze the provided image and provide a comprehensive response to help the farmer.

CONTEXT INFORMATION:
%s

Please:
1. Describe what you see in the image (crop type, growth stage, visible issues)
2. Identify any problems (diseases, pests, nutrient deficiencies, etc.)
3. Provide specific treatment recommendations
4. Suggest preventive measures

%s
The farmer's input language is: %s. You MUST respond in %s.`, context, langLine, langName, langName)

	case modalityImageWithText:
		return fmt.Sprintf(`The farmer has provided both an image and a question. Analyze the image in context of their question.

CONTEXT INFORMATION:
%s

Please:
1. Address the farmer's specific question
2. Analyze the image in relation to their question
3. Provide comprehensive advice combining both the question and image analysis
4. Give actionable recommendations

%s
The farmer's input language is: %s. You MUST respond in %s.`, context, langLine, langName, langName)

	default: // voice or chat
		return fmt.Sprintf(`Based on the following information, provide a helpful and comprehensive response to the farmer.

CONTEXT INFORMATION:
%s

Please provide:
1. A direct answer to the farmer's question
2. Practical, actionable advice
3. Specific recommendations when applicable
4. Any relevant warnings or considerations

%s
The farmer's input language is: %s. You MUST respond in %s. If the farmer asked in Bengali, respond in Bengali. If they asked in English, respond in English.`, context, langLine, langName, langName)
	}
}
