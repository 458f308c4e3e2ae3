package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const (
	cssInput  = "assets/css/input.css"
	cssOutput = "assets/css/output.css"
)

func GenCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Build assets/css/output.css with the tailwind standalone CLI",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force && isUpToDate(cssOutput, cssSources(".")) {
				fmt.Fprintln(cmd.OutOrStdout(), "[tailwindcss] skipped")
				return nil
			}
			return runTailwind(cmd)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "rebuild even when output.css is newer than its sources")
	return cmd
}

func runTailwind(cmd *cobra.Command) error {
	if _, err := exec.LookPath("tailwindcss"); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Missing binary: tailwindcss")
		fmt.Fprintln(cmd.ErrOrStderr(), "  https://tailwindcss.com/blog/standalone-cli")
		return fmt.Errorf("tailwindcss not found")
	}

	start := time.Now()
	tw := exec.Command("tailwindcss", "-i", cssInput, "-o", cssOutput, "--minify")
	tw.Stdout = cmd.OutOrStdout()
	tw.Stderr = cmd.ErrOrStderr()
	if err := tw.Run(); err != nil {
		return fmt.Errorf("tailwindcss: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "[tailwindcss] done (%s)\n", time.Since(start).Round(time.Millisecond))
	return nil
}

// cssSources lists the files tailwind scans for class names.
func cssSources(root string) []string {
	inputs := []string{filepath.Join(root, cssInput)}
	_ = filepath.WalkDir(filepath.Join(root, "internal", "ui"), func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.HasSuffix(path, ".go") && !strings.HasSuffix(path, "_test.go") {
			inputs = append(inputs, path)
		}
		return nil
	})
	js, _ := filepath.Glob(filepath.Join(root, "assets", "js", "*.js"))
	return append(inputs, js...)
}

func isUpToDate(output string, inputs []string) bool {
	outInfo, err := os.Stat(output)
	if err != nil {
		return false
	}

	for _, input := range inputs {
		inInfo, err := os.Stat(input)
		if err != nil {
			continue
		}
		if inInfo.ModTime().After(outInfo.ModTime()) {
			return false
		}
	}
	return true
}
