package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/routesim/routesim/server"
)

// serveCmd runs the simulation paced against wall clock and serves
// snapshots and control endpoints to a visualization front end.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the simulation and serve snapshots to a visualization front end",
	Run: func(cmd *cobra.Command, args []string) {
		driver := mustBuildDriver()
		srv := server.New(driver)
		if err := srv.Start(listenAddr); err != nil {
			logrus.Fatalf("server: %v", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", ":8080", "HTTP listen address")
	serveCmd.PreRun = setupLogging
	rootCmd.AddCommand(serveCmd)
}
