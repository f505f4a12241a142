package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jadenj13/issuelink/internals/config"
)

// Set at build time with -ldflags "-X github.com/jadenj13/issuelink/internals/cli.version=...".
var version = "dev"

func NewRootCmd() *cobra.Command {
	v := viper.New()
	var cfgFile string

	root := &cobra.Command{
		Use:   "issuelink",
		Short: "Verify that pushed commits reference an open, labelled issue",
		Long: `issuelink reads a push event, finds the first "#<number>" issue reference in
the head commit message and checks that the issue exists, is open and carries
the required label. It then comments on the issue with the commit author,
changed files and message.

Example:
  issuelink check --event $GITHUB_EVENT_PATH --label developing`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig(v, cfgFile)
		},
	}
	root.SetVersionTemplate("{{.Name}} {{.Version}}\n")

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .issuelink.yaml)")
	root.PersistentFlags().Bool("verbose", false, "enable debug logging")
	_ = v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))

	root.AddCommand(newCheckCmd(v), newServeCmd(v))
	return root
}

// Execute runs the root command
func Execute() error {
	return NewRootCmd().Execute()
}

func initConfig(v *viper.Viper, cfgFile string) error {
	if err := config.Bind(v); err != nil {
		return err
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config %s: %w", cfgFile, err)
		}
		return nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	v.AddConfigPath(cwd)
	v.SetConfigType("yaml")
	v.SetConfigName(".issuelink")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
