package refine

import "fmt"

const promptTemplate = `You are reviewing the output of a columnar transposition cipher solver.

Decrypted text: "%s"

If this reads as natural language, return the same letters in the same order with proper word spacing and punctuation. If it does not, return the text unchanged.

Reply with only a JSON object of the form {"spacedText": "..."} and nothing else.`

func buildPrompt(decrypted string) string {
	return fmt.Sprintf(promptTemplate, decrypted)
}
