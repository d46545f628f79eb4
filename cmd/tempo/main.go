package main

import (
	"os"
	"regexp"
	"strings"

	"tempo-cli/internal/cli"
)

var reDay = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func rewriteDirectDateArgs(argv []string) []string {
	// Convenience: `tempo 2024-06-05` works like `tempo --date 2024-06-05`.
	//
	// Cobra treats the first non-flag token as a subcommand, so we rewrite argv before parsing.
	// Persistent flags may come first (e.g. `tempo --config-dir ... 2024-06-05`), so we look
	// for the first positional token, not just argv[1].
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--config-dir": true,
		"--format":     true,
		"--log-level":  true,
		"--date":       true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++ // skip value if present
			}
			continue
		}

		// First positional token.
		if reDay.MatchString(a) {
			out := make([]string, 0, len(argv)+1)
			out = append(out, argv[:i]...)
			out = append(out, "--date")
			out = append(out, argv[i:]...)
			return out
		}
		return argv
	}

	return argv
}

func main() {
	os.Args = rewriteDirectDateArgs(os.Args)

	cmd := cli.NewRootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
