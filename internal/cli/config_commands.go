package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"reelshelf/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit the configuration file",
	}
	cmd.AddCommand(
		newConfigShowCommand(ctx),
		newConfigInitCommand(ctx),
		newConfigRootCommand(ctx, true),
		newConfigRootCommand(ctx, false),
	)
	return cmd
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration after defaults and environment overrides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if ctx.jsonFlag {
				return writeJSON(cmd, cfg)
			}

			out := cmd.OutOrStdout()
			source := ctx.configPath
			if !ctx.configExists {
				source += " (not found, using defaults)"
			}
			fmt.Fprintf(out, "# %s\n", source)
			data, err := toml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = out.Write(data)
			return err
		},
	}
}

func newConfigInitCommand(ctx *commandContext) *cobra.Command {
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Args:        cobra.NoArgs,
		Annotations: skipConfig,
		RunE: func(cmd *cobra.Command, _ []string) error {
			target, err := initTarget(ctx.configFlag)
			if err != nil {
				return err
			}

			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			dir := filepath.Dir(target)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create config directory %q: %w", dir, err)
			}
			if err := os.WriteFile(target, []byte(config.SampleConfig()), 0o644); err != nil {
				return fmt.Errorf("write sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Add your movie folders to library_roots, then run `reelshelf scan`.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

// initTarget picks the file config init writes: --config, then
// REELSHELF_CONFIG, then the default location.
func initTarget(flag string) (string, error) {
	target := strings.TrimSpace(flag)
	if target == "" {
		target = strings.TrimSpace(os.Getenv(config.EnvConfig))
	}
	if target == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return defaultPath, nil
	}
	expanded, err := config.ExpandPath(target)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return expanded, nil
}

func newConfigRootCommand(ctx *commandContext, add bool) *cobra.Command {
	use, short := "add-root <directory...>", "Add library roots to the config file"
	if !add {
		use, short = "remove-root <directory...>", "Remove library roots from the config file"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			roots := args
			if add {
				if roots, err = expandRoots(args); err != nil {
					return err
				}
			}

			out := cmd.OutOrStdout()
			changed := false
			for _, root := range roots {
				var ok bool
				if add {
					ok, err = cfg.AddRoot(root)
				} else {
					ok, err = cfg.RemoveRoot(root)
				}
				if err != nil {
					return err
				}
				switch {
				case ok && add:
					fmt.Fprintf(out, "Added %s\n", root)
				case ok:
					fmt.Fprintf(out, "Removed %s\n", root)
				case add:
					fmt.Fprintf(out, "%s is already a library root\n", root)
				default:
					fmt.Fprintf(out, "%s is not a library root\n", root)
				}
				changed = changed || ok
			}

			if !changed {
				return nil
			}
			if err := config.Save(cfg, ctx.configPath); err != nil {
				return err
			}
			fmt.Fprintf(out, "Saved %s\n", ctx.configPath)
			return nil
		},
	}
}
