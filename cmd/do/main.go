package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/templui/goalboard/cmd/do/cmd"
)

func main() {
	maybeRebuild()

	rootCmd := &cobra.Command{
		Use:   "do",
		Short: "Development tools for goalboard",
	}

	rootCmd.AddCommand(cmd.DevCmd())
	rootCmd.AddCommand(cmd.CheckCmd())
	rootCmd.AddCommand(cmd.MigrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// maybeRebuild keeps a compiled bin/do in step with its sources: when any
// file under cmd/do is newer than the binary it rebuilds and re-execs itself.
// `go run ./cmd/do` is left alone.
func maybeRebuild() {
	exe, err := os.Executable()
	if err != nil || !strings.HasSuffix(exe, filepath.Join("bin", "do")) {
		return
	}

	info, err := os.Stat(exe)
	if err != nil || !sourcesNewerThan(filepath.Join("cmd", "do"), info.ModTime()) {
		return
	}

	fmt.Println("==> cmd/do changed, rebuilding", exe)
	build := exec.Command("go", "build", "-o", exe, "./cmd/do")
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Println("rebuild failed, running the stale binary:", err)
		return
	}

	if err := syscall.Exec(exe, os.Args, os.Environ()); err != nil {
		fmt.Println("re-exec failed:", err)
	}
}

// sourcesNewerThan reports whether any .go file below dir was modified after since.
func sourcesNewerThan(dir string, since time.Time) bool {
	newer := false
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") {
			return nil
		}
		info, err := d.Info()
		if err == nil && info.ModTime().After(since) {
			newer = true
			return filepath.SkipAll
		}
		return nil
	})
	return newer
}
