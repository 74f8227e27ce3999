package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"
)

func DevCmd() *cobra.Command {
	var (
		port   string
		appEnv string
	)

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run the API server under air, rebuilding on Go and SQL changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			airPath, err := exec.LookPath("air")
			if err != nil {
				fmt.Println("Missing binary: air")
				fmt.Println("Install with: go install github.com/air-verse/air@latest")
				return fmt.Errorf("air not found")
			}

			fmt.Printf("==> goalboard API on http://localhost:%s (APP_ENV=%s)\n", port, appEnv)
			return syscall.Exec(airPath, airArgs(), devEnv(os.Environ(), port, appEnv))
		},
	}

	cmd.Flags().StringVar(&port, "port", "8090", "port the server listens on")
	cmd.Flags().StringVar(&appEnv, "env", "development", "APP_ENV for the server")
	return cmd
}

// airArgs configures air entirely from flags so no .air.toml is needed.
// Migrations are embedded, so .sql edits trigger a rebuild as well.
func airArgs() []string {
	return []string{
		"air",
		"-c", "/dev/null",
		"-root", ".",
		"-build.cmd", "go build -o ./tmp/server ./cmd/server",
		"-build.bin", "./tmp/server",
		"-build.delay", "100",
		"-build.exclude_dir", "bin,tmp,.data,_examples",
		"-build.exclude_regex", "_test.go$",
		"-build.include_ext", "go,sql",
		"-build.kill_delay", "500ms",
		"-build.send_interrupt", "true",
	}
}

// devEnv replaces PORT and APP_ENV in the caller's environment.
func devEnv(base []string, port, appEnv string) []string {
	env := make([]string, 0, len(base)+2)
	for _, kv := range base {
		if hasKey(kv, "PORT") || hasKey(kv, "APP_ENV") {
			continue
		}
		env = append(env, kv)
	}
	return append(env, "PORT="+port, "APP_ENV="+appEnv)
}

func hasKey(kv, key string) bool {
	return len(kv) > len(key) && kv[:len(key)+1] == key+"="
}
