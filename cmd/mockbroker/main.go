package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/spf13/cobra"

	"github.com/cloudfoundry-community/mockbroker/api"
	"github.com/cloudfoundry-community/mockbroker/broker"
	"github.com/cloudfoundry-community/mockbroker/catalog"
	"github.com/cloudfoundry-community/mockbroker/operations"
	"github.com/cloudfoundry-community/mockbroker/registry"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		listenAddr   string
		catalogPath  string
		baseURL      string
		defaultDelay time.Duration
	)

	cmd := &cobra.Command{
		Use:          "mockbroker",
		Short:        "Run a mock service broker with simulated asynchronous provisioning",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(listenAddr, catalogPath, baseURL, defaultDelay)
		},
	}

	cmd.Flags().StringVar(&listenAddr, "listen", ":8080", "address to serve the broker API on")
	cmd.Flags().StringVar(&catalogPath, "catalog", "", "path to a JSON or YAML seed catalog; watched for changes")
	cmd.Flags().StringVar(&baseURL, "base-url", "http://localhost:8080", "prefix for generated dashboard and metrics URLs")
	cmd.Flags().DurationVar(&defaultDelay, "default-delay", time.Second, "completion delay for async operations without a delay parameter")

	return cmd
}

func run(listenAddr, catalogPath, baseURL string, defaultDelay time.Duration) error {
	logger := lager.NewLogger("mockbroker")
	logger.RegisterSink(lager.NewWriterSink(os.Stdout, lager.DEBUG))

	store := catalog.NewStore()
	if catalogPath != "" {
		services, err := catalog.LoadFile(catalogPath)
		if err != nil {
			return err
		}
		if err := store.Replace(services); err != nil {
			return err
		}
		logger.Info("catalog-loaded", lager.Data{"path": catalogPath, "services": len(services)})
	}

	serviceBroker := broker.New(store, registry.New(), operations.New(), logger, broker.Config{
		DefaultDelay: defaultDelay,
		BaseURL:      baseURL,
	})

	if catalogPath != "" {
		go watchCatalog(catalogPath, serviceBroker, logger.Session("catalog-watcher"))
	}

	logger.Info("listening", lager.Data{"address": listenAddr})
	return http.ListenAndServe(listenAddr, api.New(serviceBroker, logger))
}
