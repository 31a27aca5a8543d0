//go:build !unix

package vm

// interrupted is always false where reads cannot be interrupted by signals.
func interrupted(error) bool {
	return false
}
