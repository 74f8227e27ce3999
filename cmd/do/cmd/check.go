package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"
)

type check struct {
	name  string
	bin   string
	args  []string
	runFn func() error // custom run function (if set, bin/args ignored)
}

func CheckCmd() *cobra.Command {
	var short bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run gofmt, go vet and go test in parallel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks(short)
		},
	}
	cmd.Flags().BoolVar(&short, "short", false, "pass -short to go test")
	return cmd
}

func runChecks(short bool) error {
	if _, err := exec.LookPath("go"); err != nil {
		return fmt.Errorf("missing required binary: go")
	}

	testArgs := []string{"test", "./..."}
	if short {
		testArgs = append(testArgs, "-short")
	}

	checks := []check{
		{name: "gofmt", runFn: runGofmt},
		{name: "vet", bin: "go", args: []string{"vet", "./..."}},
		{name: "test", bin: "go", args: testArgs},
	}

	start := time.Now()
	var wg sync.WaitGroup
	errCh := make(chan error, len(checks))

	for _, c := range checks {
		wg.Add(1)
		go func(c check) {
			defer wg.Done()

			checkStart := time.Now()
			var err error
			if c.runFn != nil {
				err = c.runFn()
			} else {
				cmd := exec.Command(c.bin, c.args...)
				cmd.Stdout = os.Stdout
				cmd.Stderr = os.Stderr
				err = cmd.Run()
			}

			if err != nil {
				errCh <- fmt.Errorf("%s: %w", c.name, err)
				return
			}

			fmt.Printf("[%s] done (%s)\n", c.name, time.Since(checkStart).Round(time.Millisecond))
		}(c)
	}

	wg.Wait()
	close(errCh)

	var errs []error
	for err := range errCh {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		for _, err := range errs {
			fmt.Println("error:", err)
		}
		return fmt.Errorf("checks failed")
	}

	fmt.Printf("done (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// runGofmt fails when any file outside _examples needs formatting.
func runGofmt() error {
	out, err := exec.Command("gofmt", "-l", "cmd", "internal").Output()
	if err != nil {
		return err
	}

	files := strings.Fields(string(bytes.TrimSpace(out)))
	if len(files) == 0 {
		return nil
	}
	for _, f := range files {
		fmt.Println("[gofmt] needs formatting:", f)
	}
	return fmt.Errorf("%d files need formatting", len(files))
}
