package luashared

import (
	"fmt"
	"math/bits"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
)

// OpenError maps each candidate path to the reason it failed to open.
type OpenError map[string]error

func (e OpenError) Error() string {
	paths := make([]string, 0, len(e))
	for path := range e {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteByte('\n')
	for _, path := range paths {
		fmt.Fprintf(&b, "%s = %v\n", path, e[path])
	}
	return b.String()
}

// OpenGameLibrary opens another shared library loaded by the game
// (engine, server, ...), probing the same layout chain the game uses.
// On 32-bit linux the plain build is preferred over the _srv one; a
// dedicated server wants OpenGameLibrarySrv instead.
//
// Returns the OS handle and the path that won. The handle is never
// released, matching the lua_shared lifetime rule.
func OpenGameLibrary(name string) (uintptr, string, error) {
	return openGameLibrary(name, false)
}

// OpenGameLibrarySrv is OpenGameLibrary with the dedicated-server
// (_srv-suffixed) builds prioritized on platforms that ship them.
func OpenGameLibrarySrv(name string) (uintptr, string, error) {
	return openGameLibrary(name, true)
}

func openGameLibrary(name string, srv bool) (uintptr, string, error) {
	errs := make(OpenError)
	for _, path := range GameLibraryCandidates(name, srv) {
		handle, err := openLibrary(path)
		if err != nil {
			errs[path] = err
			continue
		}
		return handle, path, nil
	}
	return 0, "", errs
}

// GameLibraryCandidates returns the relative paths where the game may
// keep the library, in probe order. The final bare name lets the system
// loader's own search path have the last word.
func GameLibraryCandidates(name string, srv bool) []string {
	switch runtime.GOOS {
	case "windows":
		if bits.UintSize == 64 {
			return []string{
				filepath.Join("bin", "win64", name+".dll"),
				name,
			}
		}
		return []string{
			filepath.Join("bin", name+".dll"),
			filepath.Join("garrysmod", "bin", name+".dll"),
			name,
		}

	case "linux":
		if bits.UintSize == 64 {
			return []string{
				filepath.Join("bin", "linux64", name+".so"),
				filepath.Join("bin", "linux64", "lib"+name+".so"),
				name,
			}
		}
		cands := []string{
			filepath.Join("bin", "linux32", name+".so"),
			filepath.Join("bin", "linux32", "lib"+name+".so"),
		}
		cands = append(cands, suffixedSet(name, ".so", srv)...)
		return append(cands, name)

	case "darwin":
		cands := []string{
			filepath.Join("GarrysMod_Signed.app", "Contents", "MacOS", name+".dylib"),
			filepath.Join("GarrysMod_Signed.app", "Contents", "MacOS", "lib"+name+".dylib"),
		}
		cands = append(cands, suffixedSet(name, ".dylib", srv)...)
		return append(cands, name)

	default:
		return []string{name}
	}
}

// suffixedSet lists the bin/ and garrysmod/bin/ variants with the plain
// and _srv builds ordered by srv preference.
func suffixedSet(name, ext string, srvFirst bool) []string {
	set := func(suffix string) []string {
		return []string{
			filepath.Join("bin", name+suffix+ext),
			filepath.Join("bin", "lib"+name+suffix+ext),
			filepath.Join("garrysmod", "bin", name+suffix+ext),
			filepath.Join("garrysmod", "bin", "lib"+name+suffix+ext),
		}
	}
	if srvFirst {
		return append(set("_srv"), set("")...)
	}
	return append(set(""), set("_srv")...)
}
