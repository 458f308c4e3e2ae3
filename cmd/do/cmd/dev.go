package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"syscall"

	"github.com/spf13/cobra"
)

func DevCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Run the server under air with CSS rebuilds on change",
		RunE: func(cmd *cobra.Command, args []string) error {
			airPath, err := exec.LookPath("air")
			if err != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), "Missing binary: air")
				fmt.Fprintln(cmd.ErrOrStderr(), "  go install github.com/air-verse/air@latest")
				return fmt.Errorf("air not found")
			}

			env := append(os.Environ(), "PORT="+port)
			return syscall.Exec(airPath, airArgs(port), env)
		},
	}

	cmd.Flags().StringVar(&port, "port", "8090", "port the server listens on behind the air proxy")
	return cmd
}

func airArgs(port string) []string {
	return []string{
		"air",
		"-c", "/dev/null",
		"-root", ".",
		"-build.cmd", "go run ./cmd/do gen && go build -o ./tmp/server ./cmd/server",
		"-build.bin", "./tmp/server",
		"-build.delay", "100",
		"-build.exclude_dir", "bin,node_modules,tmp,uploads,sessions,_examples",
		"-build.exclude_regex", "_test.go$|output\\.css$",
		"-build.include_ext", "go,css,js,sql",
		"-build.kill_delay", "500ms",
		"-build.send_interrupt", "true",
		"-proxy.enabled", "true",
		"-proxy.proxy_port", "8080",
		"-proxy.app_port", port,
	}
}
