//go:build windows && !cgo

package win32

// Without cgo the focus source falls back to window classes.
func openUIA() (focusReader, error) {
	return nil, errNoUIA
}
