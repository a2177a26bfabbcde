package pipeline

import "fmt"

// System instruction for the page parser model. The model must answer with
// a single JSON object; description is the only required field.
const pageParserSystemPrompt = `You are a document page analyst. You will be given an image of a single page from a document. Extract its contents and reply with a single JSON object containing exactly these fields:

- "text": the full text content of the page, transcribed faithfully. Use null if the page contains no readable text.
- "summary": a short summary of the page contents. Use null if there is nothing to summarize.
- "description": a description of what is on the page, similar to alt text (layout, figures, tables, photographs, blank page, and so on). This field is required and must always be a string.
- "requestNextPage": optional boolean. Set to true only if the page clearly continues on the next page and seeing it would change your transcription.

Reply with the JSON object only. No markdown fences, no commentary.`

const defaultParsePrompt = "Please process the given image as requested."

// correctionPrompt re-issues the request with the model's previous answer
// and the reason it was rejected, asking for a corrected response.
func correctionPrompt(lastResponse string, validationErr error) string {
	return fmt.Sprintf(
		"Please process the given image as requested. "+
			"Your last response below resulted in the following error:\n"+
			"Response:\n%s\nError: %v\n"+
			"Respond again with a corrected JSON object.",
		lastResponse, validationErr,
	)
}
