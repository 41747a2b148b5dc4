package cmd

import "github.com/spf13/cobra"

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "looply-agent",
		Short:         "Looply offline-caching and push-notification agent",
		Long:          "looply-agent is a background process that serves cached responses when the network is down, receives push payloads, routes notification interactions to deep links, and exchanges control messages with foreground Looply clients.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	app, err := wireApp()
	if err != nil {
		rootCmd.RunE = func(_ *cobra.Command, _ []string) error {
			return err
		}
		return rootCmd
	}

	rootCmd.AddCommand(
		newVersionCmd(),
		newServeCmd(app),
	)

	return rootCmd
}
