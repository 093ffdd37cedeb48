package reply

import "strings"

// Compose prepends the non-empty blocks, in order, to the generated reply,
// separating everything with a blank line. When the generated reply is blank
// the blocks alone are returned.
func Compose(generated string, blocks ...string) string {
	var parts []string
	for _, b := range blocks {
		if b != "" {
			parts = append(parts, b)
		}
	}
	if len(parts) == 0 {
		return generated
	}

	block := strings.Join(parts, "\n\n")
	if strings.TrimSpace(generated) == "" {
		return block
	}
	return block + "\n\n" + generated
}
