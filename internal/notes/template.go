// pattern: Functional Core

package notes

// Render returns the skeleton written into every new note: a top-level
// heading followed by an empty checklist item.
func Render(heading string) []byte {
	return []byte("# " + heading + "\n- [ ] \n")
}
