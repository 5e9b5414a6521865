package chunker

import (
	"strings"
)

// Options controls how text is chunked.
type Options struct {
	MaxWords int // window size
	Overlap  int // words shared by consecutive windows
}

// Chunk is one window of the document.
type Chunk struct {
	Index int
	Text  string
	Words int
}

// WordCount approximates a token count by whitespace-delimited words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// ChunkText splits text into overlapping word windows. Whitespace inside a
// window is normalized to single spaces.
func ChunkText(text string, opts Options) []Chunk {
	if opts.MaxWords <= 0 {
		opts.MaxWords = 400
	}
	if opts.Overlap < 0 {
		opts.Overlap = 0
	}

	words := strings.Fields(text)
	var chunks []Chunk
	if len(words) == 0 {
		return chunks
	}

	step := opts.MaxWords - opts.Overlap
	if step <= 0 {
		step = opts.MaxWords
	}

	for start := 0; start < len(words); start += step {
		end := min(start+opts.MaxWords, len(words))
		chunks = append(chunks, Chunk{
			Index: len(chunks),
			Text:  strings.Join(words[start:end], " "),
			Words: end - start,
		})
		if end == len(words) {
			break
		}
	}
	return chunks
}
