package chat

// deriveTitle truncates the first message of a chat into its display title:
// the first limit runes plus an ellipsis marker, or the content verbatim when
// it already fits.
func deriveTitle(content string, limit int) string {
	if limit <= 0 {
		limit = DefaultTitleLimit
	}
	runes := []rune(content)
	if len(runes) <= limit {
		return content
	}
	return string(runes[:limit]) + "..."
}
