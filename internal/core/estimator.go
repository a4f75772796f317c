// ABOUTME: Size estimation for prompt budgeting
// ABOUTME: Budgets are measured in characters (code points) with a 4-chars-per-token approximation
package core

import "unicode/utf8"

// CharsPerToken is the rough characters-per-token ratio used for estimates
const CharsPerToken = 4

// CharCount returns the number of characters (code points) in text
func CharCount(text string) int {
	return utf8.RuneCountInString(text)
}

// EstimateTokens approximates how many backend tokens text consumes
func EstimateTokens(text string) int {
	return CharCount(text) / CharsPerToken
}

// TruncateChars returns at most limit characters of text without splitting a code point
func TruncateChars(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	if len(text) <= limit {
		return text
	}
	count := 0
	for i := range text {
		if count == limit {
			return text[:i]
		}
		count++
	}
	return text
}
