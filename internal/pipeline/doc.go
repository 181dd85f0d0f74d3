// Package pipeline holds the rendering stages shared by every template:
//   - rich-text conversion of WordPress body fields via Goldmark
//   - stylesheet assembly, including the generated @page rule
//   - CSS injection into the rendered HTML document
//
// PDF production lives in the root booklet package. This package only
// deals with document content and styling.
package pipeline
