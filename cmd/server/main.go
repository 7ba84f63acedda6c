package main

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

func main() {
	root := &cobra.Command{
		Use:           "mutual-aid",
		Short:         "Community mutual-aid API server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(serveCmd(), migrateCmd(), seedCmd(), promoteCmd())

	if err := root.Execute(); err != nil {
		logrus.WithError(err).Fatal("command failed")
	}
}
