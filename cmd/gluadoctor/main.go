package main

import (
	"errors"
	"flag"
	"fmt"
	"math/bits"
	"os"
	"runtime"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	gluabridge "github.com/goobie/glua-bridge"
	"github.com/goobie/glua-bridge/luashared"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	okStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#98FB98"))
	badStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	pathStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))
	dimStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
)

func main() {
	var (
		debug       = flag.Bool("debug", false, "Log discovery detail to stderr")
		interactive = flag.Bool("i", false, "Interactive stack explorer over the in-process fake VM")
	)
	flag.Parse()

	luashared.SetLogger(gluabridge.NewConsoleLogger(*debug))

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: -i needs a terminal")
			os.Exit(1)
		}
		if err := runExplorer(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if !doctor() {
		os.Exit(1)
	}
}

// doctor reports what discovery and symbol resolution would give a
// module loaded from the current directory, and whether such a module
// would come up at all.
func doctor() bool {
	fmt.Println(titleStyle.Render("glua doctor"))
	fmt.Println()

	cwd, _ := os.Getwd()
	fmt.Printf("%s  %s\n", dimStyle.Render("game root"), cwd)
	fmt.Printf("%s  %s/%s, %d-bit", dimStyle.Render("platform "), runtime.GOOS, runtime.GOARCH, bits.UintSize)
	if luashared.IsX8664() {
		fmt.Print(", x86-64 branch")
	}
	fmt.Println()
	if override := os.Getenv(luashared.EnvOverride); override != "" {
		fmt.Printf("%s  %s=%s\n", dimStyle.Render("override "), luashared.EnvOverride, pathStyle.Render(override))
	}
	fmt.Println()

	path, err := luashared.Discover()
	if err != nil {
		fmt.Println(badStyle.Render("lua_shared not found"))
		var misses luashared.OpenError
		if errors.As(err, &misses) {
			paths := make([]string, 0, len(misses))
			for p := range misses {
				paths = append(paths, p)
			}
			sort.Strings(paths)
			for _, p := range paths {
				fmt.Printf("  %s %s\n", pathStyle.Render(p), dimStyle.Render(fmt.Sprintf("= %v", misses[p])))
			}
		} else {
			fmt.Printf("  %s\n", dimStyle.Render(err.Error()))
		}
		fmt.Println()
		fmt.Println(dimStyle.Render("Run from the game root (the directory holding garrysmod/), or set " + luashared.EnvOverride + " to the library path."))
		return false
	}
	fmt.Printf("%s  %s\n", okStyle.Render("lua_shared found"), pathStyle.Render(path))

	if err := resolve(); err != nil {
		fmt.Println(badStyle.Render(fmt.Sprintf("symbol resolution failed: %v", err)))
		return false
	}
	fmt.Println(okStyle.Render("all VM symbols resolved"))
	return true
}

// resolve runs the real import under recover so an incomplete library
// reads as a report line instead of a crash.
func resolve() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	luashared.Import()
	return nil
}
