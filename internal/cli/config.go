package cli

import (
	"strings"

	"tempo-cli/internal/config"

	"github.com/spf13/cobra"
)

type configEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type configList []configEntry

func (l configList) Header() []string { return []string{"KEY", "VALUE"} }

func (l configList) Rows() [][]string {
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		rows = append(rows, []string{e.Key, e.Value})
	}
	return rows
}

func isSecret(key string) bool { return strings.HasSuffix(key, "access_token") }

// mask keeps the last four characters of a token so users can tell tokens apart.
func mask(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 4 {
		return "****"
	}
	return "****" + v[len(v)-4:]
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and change ~/.config/tempo/config.json",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	return cmd
}

func newConfigShowCmd(app *App) *cobra.Command {
	var reveal bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration (file plus TEMPO_* environment)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := configList{}
			for _, k := range config.Keys() {
				v, err := app.cfg.Get(k)
				if err != nil {
					return writeErr(cmd, err)
				}
				if isSecret(k) && !reveal {
					v = mask(v)
				}
				out = append(out, configEntry{Key: k, Value: v})
			}
			return writeData(cmd, app, out)
		},
	}

	cmd.Flags().BoolVar(&reveal, "reveal", false, "Print access tokens instead of masking them")
	return cmd
}

func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set one configuration key",
		Long:  "Set one configuration key. Keys: " + strings.Join(config.Keys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Environment overrides must not end up in the file.
			cfg, err := config.LoadFile()
			if err != nil {
				return writeErr(cmd, err)
			}
			key, value := args[0], args[1]
			if err := cfg.Set(key, value); err != nil {
				return writeErr(cmd, err)
			}
			if err := config.Save(cfg); err != nil {
				return writeErr(cmd, err)
			}
			app.log.Info("config updated", "key", key)

			shown := value
			if isSecret(key) {
				shown = mask(value)
			}
			return writeData(cmd, app, configEntry{Key: key, Value: shown})
		},
	}
}
