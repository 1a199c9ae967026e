package luashared

import (
	"fmt"
	"math/bits"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// EnvOverride names the environment variable that short-circuits library
// discovery with an explicit lua_shared path.
const EnvOverride = "GLUA_SHARED"

// Discover returns the lua_shared path to open, relative to the game root
// the process was started in. The EnvOverride variable wins when set; a
// set-but-missing override is a hard failure rather than a fallback, since
// a wrong explicit override should be loud.
func Discover() (string, error) {
	if path := os.Getenv(EnvOverride); path != "" {
		if _, err := os.Stat(path); err != nil {
			return "", fmt.Errorf("%s points at %q: %w", EnvOverride, path, err)
		}
		return path, nil
	}

	errs := make(OpenError)
	for _, path := range luaSharedCandidates() {
		if _, err := os.Stat(path); err != nil {
			Logger().Debug("lua_shared candidate missed", zap.String("path", path))
			errs[path] = err
			continue
		}
		return path, nil
	}
	return "", fmt.Errorf("lua_shared not found:%w", errs)
}

// luaSharedCandidates lists the game's lua_shared locations in probe
// order for this platform and bitness. 32-bit linux prefers the dedicated
// server build, which is all that branch ships.
func luaSharedCandidates() []string {
	switch runtime.GOOS {
	case "windows":
		if bits.UintSize == 64 {
			return []string{filepath.Join("bin", "win64", "lua_shared.dll")}
		}
		return []string{
			filepath.Join("garrysmod", "bin", "lua_shared.dll"),
			filepath.Join("bin", "lua_shared.dll"),
		}
	case "linux":
		if bits.UintSize == 64 {
			return []string{filepath.Join("bin", "linux64", "lua_shared.so")}
		}
		return []string{
			filepath.Join("garrysmod", "bin", "lua_shared_srv.so"),
			filepath.Join("bin", "linux32", "lua_shared.so"),
		}
	case "darwin":
		return []string{
			filepath.Join("GarrysMod_Signed.app", "Contents", "MacOS", "lua_shared.dylib"),
			filepath.Join("garrysmod", "bin", "lua_shared.dylib"),
		}
	default:
		return nil
	}
}

var (
	x8664     bool
	x8664Once sync.Once
)

// IsX8664 reports whether the surrounding game installation is the x86-64
// branch. 64-bit processes always are; 32-bit processes probe the same
// markers the game's own tooling checks.
func IsX8664() bool {
	x8664Once.Do(func() {
		if bits.UintSize == 64 {
			x8664 = true
			return
		}
		switch runtime.GOOS {
		case "windows":
			if fi, err := os.Stat("srcds_win64.exe"); err == nil && !fi.IsDir() {
				x8664 = true
			}
		case "linux":
			exe, err := os.Executable()
			if err == nil {
				switch filepath.Base(exe) {
				case "srcds_linux":
					return
				case "srcds":
					x8664 = true
					return
				}
			}
			if fi, err := os.Stat(filepath.Join("bin", "linux64")); err == nil && fi.IsDir() {
				x8664 = true
			}
		case "darwin":
			if fi, err := os.Stat(filepath.Join("garrysmod", "bin", "lua_shared.dylib")); err == nil && !fi.IsDir() {
				x8664 = true
			}
		}
	})
	return x8664
}
