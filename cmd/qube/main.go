package main

import (
	"fmt"
	"os"

	"github.com/alfredjeanlab/qube/internal/client"
	"github.com/alfredjeanlab/qube/internal/ui"
	"github.com/spf13/cobra"
)

var (
	httpURL    string
	grpcAddr   string
	transport  string
	token      string
	jsonOutput bool

	projectsClient   client.ProjectsClient
	visibilityClient client.VisibilityClient
)

func defaultHTTPURL() string {
	if s := os.Getenv("QUBE_URL"); s != "" {
		return s
	}
	if u := activeRemoteURL(); u != "" {
		return u
	}
	return "http://localhost:9000"
}

func defaultGRPCAddr() string {
	if s := os.Getenv("QUBE_SERVER"); s != "" {
		return s
	}
	if a := activeRemoteGRPCAddr(); a != "" {
		return a
	}
	return "localhost:9090"
}

func defaultToken() string {
	if s := os.Getenv("QUBE_TOKEN"); s != "" {
		return s
	}
	return activeRemoteToken()
}

var rootCmd = &cobra.Command{
	Use:   "qube <command>",
	Short: "CLI client for the qube service",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		httpClient := client.NewHTTPClient(httpURL, token)
		projectsClient = httpClient
		switch transport {
		case "http":
			visibilityClient = httpClient
		case "grpc":
			c, err := client.NewGRPCClient(grpcAddr, token)
			if err != nil {
				return fmt.Errorf("failed to connect to server: %w", err)
			}
			visibilityClient = c
		default:
			return fmt.Errorf("unknown transport %q (must be http or grpc)", transport)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if visibilityClient != nil {
			visibilityClient.Close()
		}
		if projectsClient != nil {
			projectsClient.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&httpURL, "url", defaultHTTPURL(), "HTTP server URL")
	rootCmd.PersistentFlags().StringVar(&grpcAddr, "server", defaultGRPCAddr(), "gRPC server address")
	rootCmd.PersistentFlags().StringVar(&transport, "transport", "http", "transport for visibility changes (http or grpc)")
	rootCmd.PersistentFlags().StringVar(&token, "token", defaultToken(), "user token")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.AddGroup(
		&cobra.Group{ID: "projects", Title: "Projects:"},
		&cobra.Group{ID: "components", Title: "Components:"},
		&cobra.Group{ID: "system", Title: "System:"},
	)

	cobra.EnableCommandSorting = false
	rootCmd.SetHelpFunc(colorizedHelpFunc())

	// Projects
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(orgCmd)

	// Components
	rootCmd.AddCommand(componentCmd)
	rootCmd.AddCommand(watchCmd)

	// System
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(remoteCmd)
}

func main() {
	ui.Configure()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
