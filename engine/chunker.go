// ABOUTME: Chunking policy for simulated streaming
// ABOUTME: Pure function so streaming can be tested without timing dependencies

package engine

// Chunks splits text on whitespace boundaries. Each chunk is a word together
// with the whitespace run that follows it, so the concatenation of all chunks
// is exactly the input. Empty input yields no chunks.
func Chunks(text string) []string {
	if text == "" {
		return nil
	}

	var chunks []string
	start := 0
	for i := 0; i < len(text); {
		for i < len(text) && !isSpace(text[i]) {
			i++
		}
		for i < len(text) && isSpace(text[i]) {
			i++
		}
		chunks = append(chunks, text[start:i])
		start = i
	}
	return chunks
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
