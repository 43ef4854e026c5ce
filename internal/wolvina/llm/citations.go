package llm

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Support ties the text ending at EndIndex (a byte offset) to citations.
type Support struct {
	EndIndex     int
	ChunkIndices []int
}

// AddCitations inserts " [n](uri), ..." after each supported segment.
// Insertion runs from the end of the text backwards so earlier offsets
// stay valid.
func AddCitations(text string, supports []Support, chunks []Citation) string {
	if len(supports) == 0 || len(chunks) == 0 {
		return text
	}
	sorted := append([]Support(nil), supports...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EndIndex > sorted[j].EndIndex
	})

	for _, s := range sorted {
		var links []string
		for _, idx := range s.ChunkIndices {
			if idx < 0 || idx >= len(chunks) || chunks[idx].URI == "" {
				continue
			}
			links = append(links, fmt.Sprintf("[%d](%s)", idx+1, chunks[idx].URI))
		}
		if len(links) == 0 {
			continue
		}
		end := clampToRune(text, s.EndIndex)
		text = text[:end] + " " + strings.Join(links, ", ") + text[end:]
	}
	return text
}

func clampToRune(text string, i int) int {
	if i < 0 {
		return 0
	}
	if i >= len(text) {
		return len(text)
	}
	for i > 0 && !utf8.RuneStart(text[i]) {
		i--
	}
	return i
}
