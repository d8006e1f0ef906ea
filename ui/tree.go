package ui

import (
	"strings"
	"unicode/utf8"
)

// Tree hierarchy symbols using box drawing characters
const (
	TreeBranch     = "├── " // Branch connector
	TreeLastBranch = "└── " // Last branch connector
	TreeContinue   = "│   " // Parent has more siblings
	TreeIndent     = "    " // Parent was last, no vertical line needed
	TreeDetail     = "↳ "   // Failure detail under a test

	BoxTopLeft     = "┌"
	BoxTopRight    = "┐"
	BoxBottomLeft  = "└"
	BoxBottomRight = "┘"
	BoxVertical    = "│"
	BoxHorizontal  = "─"
	BoxTeeRight    = "├"
	BoxTeeLeft     = "┤"
)

// TreePrefixBuilder helps build consistent tree prefixes based on hierarchy depth and position
type TreePrefixBuilder struct{}

// BuildPrefix generates a tree prefix. parentIsLast holds, for every ancestor
// below the root, whether it was the last of its siblings.
func (TreePrefixBuilder) BuildPrefix(depth int, isLast bool, parentIsLast []bool) string {
	if depth == 0 {
		return ""
	}

	var prefix strings.Builder
	for i := 0; i < depth-1; i++ {
		if i < len(parentIsLast) && parentIsLast[i] {
			prefix.WriteString(TreeIndent)
		} else {
			prefix.WriteString(TreeContinue)
		}
	}

	if isLast {
		prefix.WriteString(TreeLastBranch)
	} else {
		prefix.WriteString(TreeBranch)
	}
	return prefix.String()
}

// BuildContinuation returns the indentation for lines that belong to an entry
// at depth without being a new branch, such as failure details.
func (TreePrefixBuilder) BuildContinuation(depth int, parentIsLast []bool) string {
	var prefix strings.Builder
	for i := 0; i < depth; i++ {
		if i < len(parentIsLast) && parentIsLast[i] {
			prefix.WriteString(TreeIndent)
		} else {
			prefix.WriteString(TreeContinue)
		}
	}
	return prefix.String()
}

func BuildTreePrefix(depth int, isLast bool, parentIsLast []bool) string {
	return TreePrefixBuilder{}.BuildPrefix(depth, isLast, parentIsLast)
}

func BuildContinuation(depth int, parentIsLast []bool) string {
	return TreePrefixBuilder{}.BuildContinuation(depth, parentIsLast)
}

// BuildBoxHeader creates a box header with the given title and width
func BuildBoxHeader(title string, width int) string {
	titleLen := utf8.RuneCountInString(title)
	if width < titleLen+4 {
		width = titleLen + 4
	}
	padding := width - 4 - titleLen

	header := BoxTopLeft + repeatString(BoxHorizontal, width-2) + BoxTopRight + "\n"
	header += BoxVertical + " " + title + repeatString(" ", padding+1) + BoxVertical + "\n"
	header += BoxTeeRight + repeatString(BoxHorizontal, width-2) + BoxTeeLeft + "\n"
	return header
}

// BuildBoxLine creates a content line within a box, truncating long content
func BuildBoxLine(content string, width int) string {
	contentLen := utf8.RuneCountInString(content)
	maxContentLen := width - 4

	if contentLen > maxContentLen {
		runes := []rune(content)
		content = string(runes[:maxContentLen-3]) + "..."
		contentLen = maxContentLen
	}

	padding := maxContentLen - contentLen
	return BoxVertical + " " + content + repeatString(" ", padding+1) + BoxVertical + "\n"
}

// BuildBoxFooter creates a box footer with the given width
func BuildBoxFooter(width int) string {
	return BoxBottomLeft + repeatString(BoxHorizontal, width-2) + BoxBottomRight + "\n"
}

func repeatString(s string, n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(s, n)
}
