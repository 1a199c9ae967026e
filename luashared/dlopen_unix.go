//go:build linux || darwin

package luashared

import "github.com/ebitengine/purego"

// RTLD_GLOBAL so the VM's own dependencies can resolve against it, the
// way the game loads it.
func openLibrary(path string) (uintptr, error) {
	return purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
}

func findSymbol(handle uintptr, name string) (uintptr, error) {
	return purego.Dlsym(handle, name)
}
