// Package toolpath locates the ffmpeg and ffprobe executables.
package toolpath

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	// EnvFFmpeg overrides the ffmpeg executable path.
	EnvFFmpeg = "REELSHELF_FFMPEG"
	// EnvFFprobe overrides the ffprobe executable path.
	EnvFFprobe = "REELSHELF_FFPROBE"
)

// bundledDirs are searched relative to each base directory, in order.
var bundledDirs = []string{
	"bin",
	filepath.Join("vendor", "ffmpeg", "bin"),
	filepath.Join("tools", "ffmpeg", "bin"),
}

// Resolver finds executables by explicit override, then PATH, then bundled
// locations under BaseDirs.
type Resolver struct {
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
	// LookPath defaults to exec.LookPath.
	LookPath func(string) (string, error)
	// BaseDirs default to the directory of the running executable and the
	// working directory.
	BaseDirs []string
}

// Resolve returns the path for program, consulting envVar first. The empty
// string means the program could not be found.
func (r Resolver) Resolve(envVar, program string) string {
	getenv := r.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	lookPath := r.LookPath
	if lookPath == nil {
		lookPath = exec.LookPath
	}

	if override := strings.TrimSpace(getenv(envVar)); override != "" {
		p := expandHome(override)
		if isExecutable(p) {
			return p
		}
		if runtime.GOOS == "windows" && filepath.Ext(p) == "" && isExecutable(p+".exe") {
			return p + ".exe"
		}
	}

	if found, err := lookPath(program); err == nil {
		return found
	}

	names := []string{program}
	if runtime.GOOS == "windows" {
		names = []string{program + ".exe", program}
	}
	for _, base := range r.baseDirs() {
		for _, dir := range bundledDirs {
			for _, name := range names {
				candidate := filepath.Join(base, dir, name)
				if isExecutable(candidate) {
					return candidate
				}
			}
		}
	}

	return ""
}

func (r Resolver) baseDirs() []string {
	if len(r.BaseDirs) > 0 {
		return r.BaseDirs
	}
	var dirs []string
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	return dirs
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(p, "~"))
		}
	}
	return p
}

func isExecutable(p string) bool {
	info, err := os.Stat(p)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	if runtime.GOOS == "windows" {
		switch strings.ToLower(filepath.Ext(p)) {
		case ".exe", ".bat", ".cmd":
			return true
		}
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}
